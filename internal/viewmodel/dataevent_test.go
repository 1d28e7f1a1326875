package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
)

var vacuumTrigger = models.SubscriptionDescriptor{
	PvName:    "K:vac:p1",
	Condition: models.TriggerGreater,
	Value:     "1.5",
	DataType:  models.PvDataTypeDouble,
}

func fillForm(d *DataEventExplore) {
	d.PvName.Set(" " + vacuumTrigger.PvName + " ")
	d.Condition.Set(vacuumTrigger.Condition)
	d.Value.Set(vacuumTrigger.Value)
	d.DataType.Set(vacuumTrigger.DataType)
}

func addVacuumTrigger(t *testing.T, f *fixture, d *DataEventExplore) *Subscription {
	t.Helper()
	fillForm(d)
	d.AddSubscription()
	require.True(t, f.ui.Await(func() bool { return !d.Adding.Get() }, waitFor))
	require.Equal(t, "Subscription added successfully", d.Status.Get())
	require.Equal(t, 1, d.Subscriptions.Len())
	return d.Subscriptions.At(0)
}

func TestAddSubscriptionHappyPath(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()

	assert.False(t, d.AddEnabled.Get())
	fillForm(d)
	assert.True(t, d.Valid.Get())

	d.AddSubscription()
	assert.Equal(t, "Adding data event subscription...", d.Status.Get())
	assert.True(t, d.Adding.Get())
	assert.False(t, d.AddEnabled.Get())
	require.Equal(t, 1, d.Subscriptions.Len())
	assert.Equal(t, SubscriptionAdding, d.Subscriptions.At(0).State.Get())

	require.True(t, f.ui.Await(func() bool { return !d.Adding.Get() }, waitFor))
	assert.Equal(t, "Subscription added successfully", d.Status.Get())

	sub := d.Subscriptions.At(0)
	assert.Equal(t, vacuumTrigger, sub.Descriptor)
	assert.Equal(t, SubscriptionActive, sub.State.Get())
	assert.Equal(t, []models.SubscriptionDescriptor{vacuumTrigger}, f.app.Subscriptions().Items())

	assert.Equal(t, "", d.PvName.Get())
	assert.Equal(t, models.TriggerCondition(""), d.Condition.Get())
	assert.Equal(t, "", d.Value.Get())
	assert.False(t, d.Valid.Get())
}

func TestAddSubscriptionInvalidForm(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()

	d.PvName.Set("K:vac:p1")
	d.Value.Set("1")
	d.AddSubscription()

	assert.Equal(t, "Cannot add subscription: form is invalid or application not initialized", d.Status.Get())
	assert.Zero(t, d.Subscriptions.Len())
	assert.Zero(t, f.client.Calls("SubscribeDataEvent"))

	detached := NewDataEventExplore(Env{})
	fillForm(detached)
	detached.AddSubscription()
	assert.Equal(t, "Cannot add subscription: form is invalid or application not initialized", detached.Status.Get())
}

func TestAddSubscriptionFailureRestoresForm(t *testing.T) {
	f := newFixture(t)
	f.client.SubscribeErr = errors.New("denied")
	d := NewDataEventExplore(f.env)
	defer d.Close()

	fillForm(d)
	d.AddSubscription()
	d.PvName.Set("edited while adding")
	require.True(t, f.ui.Await(func() bool { return !d.Adding.Get() }, waitFor))

	assert.Equal(t, "Failed to add subscription: denied", d.Status.Get())
	assert.Zero(t, d.Subscriptions.Len())
	assert.Equal(t, " K:vac:p1 ", d.PvName.Get())
	assert.Equal(t, models.PvDataTypeDouble, d.DataType.Get())
	assert.Zero(t, f.app.Subscriptions().Len())
}

func TestSelectAndReceiveEvents(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)

	stream := f.client.Stream(vacuumTrigger)
	require.NotNil(t, stream)
	v := models.DoubleValue(2.5)
	stream.Emit(models.DataEvent{Descriptor: vacuumTrigger, EventTime: models.Timestamp{EpochSeconds: 10}, DataValue: &v})
	require.True(t, f.ui.Await(func() bool { return len(f.app.DataEventsForSubscription(vacuumTrigger)) == 1 }, waitFor))
	assert.Zero(t, d.Events.Len())

	d.Select(sub)
	assert.Equal(t, "Loaded 1 events for subscription: K:vac:p1 > 1.5", d.Status.Get())
	require.Equal(t, 1, d.Events.Len())
	assert.Equal(t, "2.5", d.Events.At(0).Value)

	stream.Emit(models.DataEvent{Descriptor: vacuumTrigger, EventTime: models.Timestamp{EpochSeconds: 11}})
	require.True(t, f.ui.Await(func() bool { return d.Events.Len() == 2 }, waitFor))
	assert.Equal(t, "N/A", d.Events.At(1).Value)
}

func TestOpenEventNavigatesToQueryEditor(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)
	ev := models.DataEvent{Descriptor: vacuumTrigger, EventTime: models.Timestamp{EpochSeconds: 1_700_000_000}}

	d.OpenEvent(ev)
	assert.Equal(t, "No subscription selected for navigation", d.Status.Get())
	assert.Empty(t, f.nav.views)

	f.app.AddPvName("other")
	d.Select(sub)
	d.OpenEvent(ev)

	assert.Equal(t, []string{"K:vac:p1"}, f.app.PvNames())
	assert.Equal(t, int64(1_699_999_970), f.app.DataBeginTime().Get().Unix())
	assert.Equal(t, int64(1_700_000_030), f.app.DataEndTime().Get().Unix())
	assert.Equal(t, []ViewName{ViewDataExplore}, f.nav.views)
	want := "Navigated to Query Editor with event data for K:vac:p1 at " + time.Unix(1_700_000_000, 0).Format("2006-01-02 15:04:05")
	assert.Equal(t, want, d.Status.Get())
}

func TestCancelSubscription(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)
	f.client.Stream(vacuumTrigger).Emit(models.DataEvent{Descriptor: vacuumTrigger, EventTime: models.Timestamp{EpochSeconds: 5}})
	require.True(t, f.ui.Await(func() bool { return len(f.app.DataEventsForSubscription(vacuumTrigger)) == 1 }, waitFor))
	d.Select(sub)
	require.Equal(t, 1, d.Events.Len())

	d.CancelSubscription(sub)
	assert.Equal(t, SubscriptionCancelling, sub.State.Get())
	assert.Equal(t, "Canceling subscription...", d.Status.Get())

	require.True(t, f.ui.Await(func() bool { return sub.State.Get() == SubscriptionTerminated }, waitFor))
	assert.Equal(t, "Subscription canceled successfully", d.Status.Get())
	assert.Zero(t, d.Subscriptions.Len())
	assert.Nil(t, d.Selected.Get())
	assert.Zero(t, d.Events.Len())
	assert.Zero(t, f.app.Subscriptions().Len())
	assert.True(t, f.client.Stream(vacuumTrigger).Ended())
}

func TestCancelSubscriptionFailureKeepsItActive(t *testing.T) {
	f := newFixture(t)
	f.client.CancelErr = errors.New("server busy")
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)

	d.CancelSubscription(sub)
	require.True(t, f.ui.Await(func() bool { return sub.State.Get() == SubscriptionActive }, waitFor))
	assert.Equal(t, "Failed to cancel subscription: server busy", d.Status.Get())
	assert.Equal(t, 1, d.Subscriptions.Len())
	assert.Equal(t, 1, f.app.Subscriptions().Len())
}

func TestServerEndedSubscriptionIsTerminated(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)
	d.Select(sub)

	f.client.Stream(vacuumTrigger).End()
	require.True(t, f.ui.Await(func() bool { return d.Subscriptions.Len() == 0 }, waitFor))
	assert.Equal(t, SubscriptionTerminated, sub.State.Get())
	assert.Nil(t, d.Selected.Get())
}

func TestAddSubscriptionToEndedStreamIsNotActive(t *testing.T) {
	f := newFixture(t)
	f.client.EndStreams = true
	d := NewDataEventExplore(f.env)
	defer d.Close()

	for i := 0; i < 20; i++ {
		fillForm(d)
		d.AddSubscription()
		require.True(t, f.ui.Await(func() bool {
			return !d.Adding.Get() && f.app.Subscriptions().Len() == 0
		}, waitFor))
		f.ui.RunPending()

		assert.Zero(t, d.Subscriptions.Len(), "attempt %d", i)
		f.app.ClearDataEvents(vacuumTrigger)
	}
}

func TestCancelThatBreaksStreamTerminates(t *testing.T) {
	f := newFixture(t)
	d := NewDataEventExplore(f.env)
	defer d.Close()
	sub := addVacuumTrigger(t, f, d)

	stream := f.client.Stream(vacuumTrigger)
	stream.CancelErr = errors.New("write: broken pipe")
	stream.CloseOnCancelErr = true

	d.CancelSubscription(sub)
	require.True(t, f.ui.Await(func() bool { return sub.State.Get() == SubscriptionTerminated }, waitFor))
	assert.Zero(t, d.Subscriptions.Len())
	assert.Zero(t, f.app.Subscriptions().Len())
}

func TestDataEventExploreListsOpenSubscriptions(t *testing.T) {
	f := newFixture(t)
	st := f.app.SubscribeDataEvent(context.Background(), vacuumTrigger, vacuumTrigger.DataType)
	require.False(t, st.IsError, st.Message)
	f.ui.RunPending()

	d := NewDataEventExplore(f.env)
	defer d.Close()
	require.Equal(t, 1, d.Subscriptions.Len())
	assert.Equal(t, SubscriptionActive, d.Subscriptions.At(0).State.Get())
}
