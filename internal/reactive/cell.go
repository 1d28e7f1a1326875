// Package reactive provides observable cells, derived bindings and lists.
//
// Nothing in this package is safe for concurrent use: every value is owned by
// the UI goroutine, and workers reach it only through a uithread.Dispatcher.
package reactive

// Observable is anything that can announce that it changed.
type Observable interface {
	Watch(fn func()) (cancel func())
}

// Readable is a cell whose value can be read and observed.
type Readable[T any] interface {
	Observable
	Get() T
	Subscribe(fn func(old, new T)) (cancel func())
}

type subscriber[T any] struct {
	fn     func(old, new T)
	active bool
}

// Cell holds one value and notifies subscribers when it changes.
type Cell[T any] struct {
	value T
	equal func(a, b T) bool
	subs  []*subscriber[T]
}

// NewCell creates a cell comparing values with ==.
func NewCell[T comparable](initial T) *Cell[T] {
	return NewCellFunc(initial, func(a, b T) bool { return a == b })
}

// NewCellFunc creates a cell with a custom equality.
func NewCellFunc[T any](initial T, equal func(a, b T) bool) *Cell[T] {
	return &Cell[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and notifies subscribers if it differs from the current
// value. It reports whether a change happened.
func (c *Cell[T]) Set(v T) bool {
	if c.equal(c.value, v) {
		return false
	}
	old := c.value
	c.value = v
	c.notify(old, v)
	return true
}

// Subscribe registers fn for change events. Listeners run synchronously in
// registration order.
func (c *Cell[T]) Subscribe(fn func(old, new T)) (cancel func()) {
	s := &subscriber[T]{fn: fn, active: true}
	c.subs = append(c.subs, s)
	return func() {
		if !s.active {
			return
		}
		s.active = false
		for i, other := range c.subs {
			if other == s {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				break
			}
		}
	}
}

// Watch registers fn for change events without the values.
func (c *Cell[T]) Watch(fn func()) (cancel func()) {
	return c.Subscribe(func(T, T) { fn() })
}

func (c *Cell[T]) notify(prev, next T) {
	snapshot := append([]*subscriber[T](nil), c.subs...)
	for _, s := range snapshot {
		if s.active {
			s.fn(prev, next)
		}
	}
}

// BindBidirectional keeps a and b equal. b takes a's value first; after
// that a write to either is copied to the other once, and the equality
// check stops the echo.
func BindBidirectional[T any](a, b *Cell[T]) (unbind func()) {
	b.Set(a.Get())
	cancelA := a.Subscribe(func(_, v T) { b.Set(v) })
	cancelB := b.Subscribe(func(_, v T) { a.Set(v) })
	return func() {
		cancelA()
		cancelB()
	}
}
