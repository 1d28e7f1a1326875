package simulator

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/storage"
)

var overPressure = models.SubscriptionDescriptor{
	PvName:    "K:vac:p1",
	Condition: models.TriggerGreater,
	Value:     "1.5",
	DataType:  models.PvDataTypeDouble,
}

type recvResult struct {
	ev  models.DataEvent
	err error
}

func receive(stream rpc.EventStream) <-chan recvResult {
	out := make(chan recvResult, 16)
	go func() {
		defer close(out)
		for {
			ev, err := stream.Recv()
			out <- recvResult{ev, err}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func next(t *testing.T, ch <-chan recvResult) recvResult {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "stream closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream")
		return recvResult{}
	}
}

func ingest(t *testing.T, client rpc.Client, pv string, values ...float64) {
	t.Helper()
	ctx := context.Background()
	reg, err := client.RegisterProvider(ctx, rpc.RegisterProviderRequest{Name: "gauges"})
	require.NoError(t, err)

	frame := models.DataFrame{Name: "f"}
	col := models.DataColumn{Name: pv}
	for i, v := range values {
		frame.Timestamps = append(frame.Timestamps, ts(int64(1000+i)))
		col.Values = append(col.Values, models.DoubleValue(v))
	}
	frame.Columns = []models.DataColumn{col}
	_, err = client.IngestData(ctx, models.IngestRequest{ProviderID: reg.ProviderID, Frames: []models.DataFrame{frame}})
	require.NoError(t, err)
}

func TestEventStreamDeliversTriggerHits(t *testing.T) {
	s, client := startServer(t)
	ctx := context.Background()

	stream, err := client.SubscribeDataEvent(ctx, overPressure)
	require.NoError(t, err)
	assert.NotEmpty(t, stream.ID())
	assert.Equal(t, 1, s.Hub().Len())
	events := receive(stream)

	ingest(t, client, "K:vac:p1", 1.0, 2.0, 1.5)
	ingest(t, client, "K:vac:other", 9.0)

	got := next(t, events)
	require.NoError(t, got.err)
	assert.Equal(t, overPressure, got.ev.Descriptor)
	assert.Equal(t, ts(1001), got.ev.EventTime)
	require.NotNil(t, got.ev.DataValue)
	assert.Equal(t, models.DoubleValue(2.0), *got.ev.DataValue)

	cancelCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, stream.Cancel(cancelCtx))

	end := next(t, events)
	assert.ErrorIs(t, end.err, io.EOF)
	assert.Eventually(t, func() bool { return s.Hub().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeRejectsInvalidDescriptor(t *testing.T) {
	s, client := startServer(t)

	bad := overPressure
	bad.Value = "lots"
	_, err := client.SubscribeDataEvent(context.Background(), bad)
	var exc *rpc.ExceptionalError
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, rpc.KindReject, exc.Kind)
	assert.Contains(t, exc.Message, "lots")
	assert.Equal(t, 0, s.Hub().Len())
}

func TestServerEndsStreams(t *testing.T) {
	s, client := startServer(t)

	stream, err := client.SubscribeDataEvent(context.Background(), overPressure)
	require.NoError(t, err)
	events := receive(stream)

	s.Hub().Close()

	end := next(t, events)
	assert.ErrorIs(t, end.err, io.EOF)
	assert.Equal(t, 0, s.Hub().Len())
}

func TestHubPublishFrame(t *testing.T) {
	hub := NewHub()
	sub, err := hub.add(models.SubscriptionDescriptor{
		PvName:    "pv",
		Condition: models.TriggerLessOrEqual,
		Value:     "3",
		DataType:  models.PvDataTypeInt,
	})
	require.NoError(t, err)

	ack := <-sub.out
	assert.Equal(t, rpc.StreamAck, ack.Type)
	assert.Equal(t, sub.id, ack.SubscriptionID)

	sent := hub.PublishFrame(models.DataFrame{
		Timestamps: []models.Timestamp{ts(1), ts(2), ts(3)},
		Columns: []models.DataColumn{
			{Name: "pv", Values: []models.DataValue{models.LongValue(2), models.LongValue(4), models.StringValue("x")}},
			{Name: "other", Values: []models.DataValue{models.LongValue(0), models.LongValue(0), models.LongValue(0)}},
		},
	})
	assert.Equal(t, 1, sent)

	ev := <-sub.out
	assert.Equal(t, rpc.StreamEvent, ev.Type)
	assert.Equal(t, ts(1), ev.Event.EventTime)
	assert.Equal(t, []string{"pv"}, hub.PvNames())

	hub.remove(sub.id)
	sub.close()
	assert.False(t, sub.send(rpc.StreamMessage{Type: rpc.StreamEvent}))
	assert.Equal(t, 0, hub.Len())
}

func TestTickerIngestsForSubscribedPvs(t *testing.T) {
	store := storage.NewMemoryStore()
	hub := NewHub()
	ticker := NewTicker(store, hub, time.Second, 1)

	n, err := ticker.Tick(time.Unix(100, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	sub, err := hub.add(models.SubscriptionDescriptor{
		PvName:    "tick:pv",
		Condition: models.TriggerGreaterOrEqual,
		Value:     "-10",
		DataType:  models.PvDataTypeDouble,
	})
	require.NoError(t, err)
	<-sub.out

	n, err = ticker.Tick(time.Unix(101, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	last, ok := store.Latest("tick:pv")
	require.True(t, ok)
	assert.Equal(t, ts(101), last.Time)
	f, _ := last.Value.Float64()
	assert.InDelta(t, 0, f, 1)

	providers := store.Providers(models.ProviderCriteria{Text: strp(TickerProviderName)})
	assert.Len(t, providers, 1)
}
