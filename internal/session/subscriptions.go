package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/reactive"
	"github.com/dp-desktop/client/internal/rpc"
)

// SubscribeDataEvent opens a data event stream for d. Received events are
// appended to the buffer for d, and the descriptor joins Subscriptions once
// the stream is acknowledged.
func (a *App) SubscribeDataEvent(ctx context.Context, d models.SubscriptionDescriptor, dataType models.PvDataType) (status models.ResultStatus) {
	defer guard(&status, "subscribeDataEvent")

	d.DataType = dataType
	if err := d.Validate(); err != nil {
		return models.Failure("Invalid subscription: " + err.Error())
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return models.Failure("Session is closed")
	}
	if _, exists := a.streams[d]; exists {
		a.mu.Unlock()
		return models.Failure("Subscription already exists: " + d.DisplayString())
	}
	// A nil entry reserves the descriptor while the stream is opening.
	a.streams[d] = nil
	a.mu.Unlock()

	stream, err := a.client.SubscribeDataEvent(ctx, d)
	if err != nil {
		a.mu.Lock()
		delete(a.streams, d)
		a.mu.Unlock()
		logger.Warnf("[Subscription] %s failed: %v", d.DisplayString(), err)
		return models.FailureFrom(err)
	}

	a.mu.Lock()
	if a.closed {
		// Close ran while the stream was opening and did not see it.
		delete(a.streams, d)
		a.mu.Unlock()
		if err := stream.Cancel(ctx); err != nil {
			logger.Warnf("[Subscription %s] cancel after close failed: %v", stream.ID(), err)
		}
		return models.Failure("Session is closed")
	}
	a.streams[d] = &subscription{stream: stream, opened: time.Now()}
	if _, ok := a.buffers[d]; !ok {
		a.buffers[d] = nil
	}
	a.mu.Unlock()

	// Posted before the receive loop starts, so registration precedes events.
	a.ui.Post(func() {
		if !reactive.Contains(a.subscriptions, d) {
			a.subscriptions.Append(d)
		}
	})
	go a.receive(d, stream)

	return models.Success("Subscribed to " + d.DisplayString())
}

func (a *App) receive(d models.SubscriptionDescriptor, stream rpc.EventStream) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Subscription %s] PANIC recovered: %v", stream.ID(), r)
		}
	}()

	count := 0
	for {
		ev, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warnf("[Subscription %s] receive ended: %v", stream.ID(), err)
			}
			break
		}
		count++

		a.mu.Lock()
		a.buffers[d] = append(a.buffers[d], ev)
		a.mu.Unlock()

		a.ui.Post(func() { a.notifyEvents(d, []models.DataEvent{ev}) })
	}
	logger.Infof("[Subscription %s] closed after %d event(s)", stream.ID(), count)

	// A stream the server ended on its own is deregistered here; explicit
	// cancels deregister in CancelDataEventSubscription.
	a.mu.Lock()
	sub, ok := a.streams[d]
	current := ok && sub != nil && sub.stream == stream
	if current {
		sub.ended = true
	}
	orphaned := current && !sub.cancelling
	if orphaned {
		delete(a.streams, d)
	}
	a.mu.Unlock()

	if orphaned {
		a.ui.Post(func() { a.removeSubscription(d) })
	}
}

func (a *App) removeSubscription(d models.SubscriptionDescriptor) {
	if i := reactive.IndexOf(a.subscriptions, d); i >= 0 {
		a.subscriptions.RemoveAt(i)
	}
}

// CancelDataEventSubscription ends the stream for d. Its event buffer is
// kept until ClearDataEvents.
func (a *App) CancelDataEventSubscription(ctx context.Context, d models.SubscriptionDescriptor) (status models.ResultStatus) {
	defer guard(&status, "cancelDataEventSubscription")

	a.mu.Lock()
	sub, ok := a.streams[d]
	if !ok || sub == nil {
		a.mu.Unlock()
		return models.Failure("No active subscription for " + d.DisplayString())
	}
	sub.cancelling = true
	a.mu.Unlock()

	if err := sub.stream.Cancel(ctx); err != nil {
		// A stream that closed while cancelling is gone either way. If the
		// receive loop has not noticed yet it deregisters on exit.
		a.mu.Lock()
		sub.cancelling = false
		dead := sub.ended && a.streams[d] == sub
		if dead {
			delete(a.streams, d)
		}
		a.mu.Unlock()
		logger.Warnf("[Subscription %s] cancel failed: %v", sub.stream.ID(), err)
		if dead {
			a.ui.Post(func() { a.removeSubscription(d) })
		}
		return models.FailureFrom(err)
	}

	a.mu.Lock()
	delete(a.streams, d)
	a.mu.Unlock()

	a.ui.Post(func() { a.removeSubscription(d) })
	return models.Success("Subscription cancelled: " + d.DisplayString())
}

// DataEventsForSubscription returns a snapshot of the buffered events for d.
// It may be called from any goroutine.
func (a *App) DataEventsForSubscription(d models.SubscriptionDescriptor) []models.DataEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.DataEvent(nil), a.buffers[d]...)
}

// ClearDataEvents drops the buffer for d.
func (a *App) ClearDataEvents(d models.SubscriptionDescriptor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, open := a.streams[d]; open {
		a.buffers[d] = nil
		return
	}
	delete(a.buffers, d)
}

// Close cancels every open subscription. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	open := make(map[models.SubscriptionDescriptor]*subscription, len(a.streams))
	for d, sub := range a.streams {
		if sub != nil {
			sub.cancelling = true
			open[d] = sub
		}
	}
	a.mu.Unlock()

	var errs []error
	for d, sub := range open {
		cctx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
		if err := sub.stream.Cancel(cctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to cancel %s: %w", d.DisplayString(), err))
		}
		cancel()

		a.mu.Lock()
		delete(a.streams, d)
		a.mu.Unlock()
	}
	if len(open) > 0 {
		logger.Infof("[App] closed %d subscription(s)", len(open))
	}
	return errors.Join(errs...)
}
