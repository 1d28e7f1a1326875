// Package task runs blocking work off the UI goroutine and delivers exactly
// one terminal callback back onto it.
package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/uithread"
)

var (
	logger = logging.For("task")
	nextID atomic.Uint64
)

// PanicError wraps a value recovered from a panicking task body.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Task is the handle of one background operation.
type Task struct {
	id        uint64
	name      string
	ui        uithread.Dispatcher
	cancelled atomic.Bool
	cancel    context.CancelFunc
}

// ID returns the process-unique task number.
func (t *Task) ID() uint64 { return t.id }

// Name returns the label given at launch.
func (t *Task) Name() string { return t.name }

// Cancel marks the task cancelled and cancels its context. Callbacks that
// have not run yet are dropped.
func (t *Task) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		logger.Debugf("[Task %d] %s cancelled", t.id, t.name)
	}
	t.cancel()
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Post runs fn on the UI goroutine unless the task is cancelled by then.
// Bodies use it to report intermediate progress.
func (t *Task) Post(fn func()) {
	t.ui.Post(func() {
		if t.Cancelled() {
			return
		}
		fn()
	})
}

// Runner launches tasks whose callbacks are posted to one dispatcher.
type Runner struct {
	ctx context.Context
	ui  uithread.Dispatcher
}

// NewRunner creates a runner. Cancelling ctx cancels the context of every
// task it started.
func NewRunner(ctx context.Context, ui uithread.Dispatcher) *Runner {
	return &Runner{ctx: ctx, ui: ui}
}

// Dispatcher returns the UI dispatcher callbacks are posted to.
func (r *Runner) Dispatcher() uithread.Dispatcher {
	return r.ui
}

// Run executes body on a new goroutine and posts onOk or onFail to the UI
// goroutine when it returns. Nothing waits for the goroutine at shutdown.
// Either handler may be nil.
func Run[T any](r *Runner, name string, body func(ctx context.Context, t *Task) (T, error), onOk func(T), onFail func(error)) *Task {
	ctx, cancel := context.WithCancel(r.ctx)
	t := &Task{
		id:     nextID.Add(1),
		name:   name,
		ui:     r.ui,
		cancel: cancel,
	}

	go func() {
		defer cancel()

		start := time.Now()
		result, err := execute(ctx, t, body)
		logger.Debugf("[Task %d] %s finished in %v (err=%v)", t.id, name, time.Since(start), err)

		r.ui.Post(func() {
			if t.Cancelled() {
				logger.Debugf("[Task %d] %s result dropped after cancel", t.id, name)
				return
			}
			if err != nil {
				if onFail != nil {
					onFail(err)
				}
				return
			}
			if onOk != nil {
				onOk(result)
			}
		})
	}()

	return t
}

func execute[T any](ctx context.Context, t *Task, body func(ctx context.Context, t *Task) (T, error)) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("[Task %d] %s PANIC recovered: %v", t.id, t.name, rec)
			err = &PanicError{Value: rec}
		}
	}()
	return body(ctx, t)
}
