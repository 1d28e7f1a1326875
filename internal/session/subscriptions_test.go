package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
)

var descriptor = models.SubscriptionDescriptor{
	PvName:    "K:vac:p1",
	Condition: models.TriggerGreater,
	Value:     "1.5",
}

func TestSubscriptionLifecycle(t *testing.T) {
	app, client, ui := newApp(t)
	ctx := context.Background()

	var notified []models.DataEvent
	app.OnDataEvents(func(d models.SubscriptionDescriptor, evs []models.DataEvent) {
		notified = append(notified, evs...)
	})

	status := app.SubscribeDataEvent(ctx, descriptor, models.PvDataTypeDouble)
	require.False(t, status.IsError, status.Message)

	d := descriptor
	d.DataType = models.PvDataTypeDouble
	ui.RunPending()
	assert.Equal(t, []models.SubscriptionDescriptor{d}, app.Subscriptions().Items())

	dup := app.SubscribeDataEvent(ctx, descriptor, models.PvDataTypeDouble)
	assert.True(t, dup.IsError)

	value := models.DoubleValue(2)
	client.Stream(d).Emit(models.DataEvent{Descriptor: d, EventTime: models.Timestamp{EpochSeconds: 10}, DataValue: &value})
	require.True(t, ui.Await(func() bool { return len(notified) == 1 }, time.Second))
	assert.Len(t, app.DataEventsForSubscription(d), 1)

	status = app.CancelDataEventSubscription(ctx, d)
	require.False(t, status.IsError, status.Message)
	ui.RunPending()
	assert.Equal(t, 0, app.Subscriptions().Len())
	assert.True(t, client.Stream(d).Ended())
	assert.Len(t, app.DataEventsForSubscription(d), 1, "buffer retained after cancel")

	app.ClearDataEvents(d)
	assert.Empty(t, app.DataEventsForSubscription(d))

	again := app.CancelDataEventSubscription(ctx, d)
	assert.True(t, again.IsError)
}

func TestSubscribeValidatesDescriptor(t *testing.T) {
	app, client, _ := newApp(t)
	bad := descriptor
	bad.Value = "not-a-number"

	status := app.SubscribeDataEvent(context.Background(), bad, models.PvDataTypeDouble)
	assert.True(t, status.IsError)
	assert.Equal(t, 0, client.Calls("SubscribeDataEvent"))
}

func TestSubscribeFailureReleasesDescriptor(t *testing.T) {
	app, client, ui := newApp(t)
	client.SubscribeErr = errors.New("stream refused")

	status := app.SubscribeDataEvent(context.Background(), descriptor, models.PvDataTypeDouble)
	assert.True(t, status.IsError)
	assert.Equal(t, "stream refused", status.Message)
	ui.RunPending()
	assert.Equal(t, 0, app.Subscriptions().Len())

	client.SubscribeErr = nil
	status = app.SubscribeDataEvent(context.Background(), descriptor, models.PvDataTypeDouble)
	assert.False(t, status.IsError)
}

func TestCancelFailureKeepsSubscription(t *testing.T) {
	app, client, ui := newApp(t)
	client.CancelErr = errors.New("cancel rejected")
	d := descriptor
	d.DataType = models.PvDataTypeDouble

	require.False(t, app.SubscribeDataEvent(context.Background(), d, d.DataType).IsError)
	ui.RunPending()

	status := app.CancelDataEventSubscription(context.Background(), d)
	assert.True(t, status.IsError)
	ui.RunPending()
	assert.True(t, reactive.Contains(app.Subscriptions(), d))

	client.Stream(d).CancelErr = nil
}

func TestServerEndedStreamIsDeregistered(t *testing.T) {
	app, client, ui := newApp(t)
	d := descriptor
	d.DataType = models.PvDataTypeDouble
	require.False(t, app.SubscribeDataEvent(context.Background(), d, d.DataType).IsError)
	ui.RunPending()
	require.Equal(t, 1, app.Subscriptions().Len())

	client.Stream(d).End()
	assert.True(t, ui.Await(func() bool { return app.Subscriptions().Len() == 0 }, time.Second))
}

func TestCloseCancelsEveryStream(t *testing.T) {
	app, client, _ := newApp(t)
	a := models.SubscriptionDescriptor{PvName: "a", Condition: models.TriggerEqual, Value: "1", DataType: models.PvDataTypeInt}
	b := models.SubscriptionDescriptor{PvName: "b", Condition: models.TriggerLess, Value: "2", DataType: models.PvDataTypeLong}
	require.False(t, app.SubscribeDataEvent(context.Background(), a, a.DataType).IsError)
	require.False(t, app.SubscribeDataEvent(context.Background(), b, b.DataType).IsError)

	require.NoError(t, app.Close(context.Background()))
	assert.True(t, client.Stream(a).Ended())
	assert.True(t, client.Stream(b).Ended())

	status := app.SubscribeDataEvent(context.Background(), a, a.DataType)
	assert.True(t, status.IsError)
}

func TestCloseDuringSubscribeCancelsLateStream(t *testing.T) {
	app, client, ui := newApp(t)
	gate := make(chan struct{})
	client.SubscribeGate = gate
	d := descriptor
	d.DataType = models.PvDataTypeDouble

	result := make(chan models.ResultStatus, 1)
	go func() { result <- app.SubscribeDataEvent(context.Background(), d, d.DataType) }()
	require.Eventually(t, func() bool { return client.Calls("SubscribeDataEvent") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, app.Close(context.Background()))
	close(gate)

	status := <-result
	assert.True(t, status.IsError)
	assert.Equal(t, "Session is closed", status.Message)
	require.NotNil(t, client.Stream(d))
	assert.True(t, client.Stream(d).Ended())
	ui.RunPending()
	assert.Equal(t, 0, app.Subscriptions().Len())
}

func TestCancelThatBreaksStreamDeregisters(t *testing.T) {
	app, client, ui := newApp(t)
	d := descriptor
	d.DataType = models.PvDataTypeDouble
	require.False(t, app.SubscribeDataEvent(context.Background(), d, d.DataType).IsError)
	ui.RunPending()

	stream := client.Stream(d)
	stream.CancelErr = errors.New("write: broken pipe")
	stream.CloseOnCancelErr = true

	status := app.CancelDataEventSubscription(context.Background(), d)
	assert.True(t, status.IsError)
	assert.True(t, ui.Await(func() bool { return app.Subscriptions().Len() == 0 }, time.Second))

	again := app.CancelDataEventSubscription(context.Background(), d)
	assert.True(t, again.IsError)
	assert.Equal(t, "No active subscription for "+d.DisplayString(), again.Message)
}
