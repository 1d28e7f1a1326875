// Package uithread serialises work onto the single goroutine that owns all
// reactive state.
package uithread

import (
	"context"
	"sync"
	"time"

	"github.com/dp-desktop/client/internal/logging"
)

var logger = logging.For("uithread")

// Dispatcher queues a function for execution on the UI goroutine.
// Post must be safe to call from any goroutine and must not block.
type Dispatcher interface {
	Post(fn func())
}

// Queue is an unbounded FIFO of functions with a wake-up signal. It is the
// storage behind every Dispatcher in this package and the terminal shell.
type Queue struct {
	mu    sync.Mutex
	items []func()
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post queues fn. It never blocks.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wake receives a value after Post when nobody has drained the queue yet.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	fn := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return fn, true
}

// RunPending runs queued functions, including ones posted while running,
// until the queue is empty. It returns how many ran. Only the owning UI
// goroutine may call it.
func (q *Queue) RunPending() int {
	n := 0
	for {
		fn, ok := q.pop()
		if !ok {
			return n
		}
		execute(fn)
		n++
	}
}

func execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("PANIC recovered in UI callback: %v", r)
		}
	}()
	fn()
}

// Loop runs posted functions in order on the goroutine that calls Run.
type Loop struct {
	*Queue
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{Queue: NewQueue()}
}

// Run executes queued functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.Wake():
		}
	}
}

// Call posts fn and waits for it to run.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manual is a dispatcher drained explicitly by its owner. Tests use it so the
// test goroutine plays the UI thread.
type Manual struct {
	*Queue
}

// NewManual creates an empty manual dispatcher.
func NewManual() *Manual {
	return &Manual{Queue: NewQueue()}
}

// Await drains the queue until cond holds or the timeout expires.
func (m *Manual) Await(cond func() bool, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		m.RunPending()
		if cond() {
			return true
		}
		select {
		case <-m.Wake():
		case <-deadline.C:
			m.RunPending()
			return cond()
		}
	}
}
