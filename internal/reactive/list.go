package reactive

import "slices"

// ChangeKind classifies a list change.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Replaced
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "replaced"
	}
}

// ListChange describes one splice: at index From, Removed items were taken
// out and Added items were put in their place.
type ListChange[T any] struct {
	From    int
	Removed []T
	Added   []T
}

// Kind reports whether the splice added, removed or replaced items.
func (c ListChange[T]) Kind() ChangeKind {
	switch {
	case len(c.Removed) == 0:
		return Added
	case len(c.Added) == 0:
		return Removed
	default:
		return Replaced
	}
}

// To is the end (exclusive) of the affected range in the resulting list.
func (c ListChange[T]) To() int {
	return c.From + len(c.Added)
}

type listSubscriber[T any] struct {
	fn     func(ListChange[T])
	active bool
}

// List is an ordered observable sequence. It does not deduplicate.
type List[T any] struct {
	items []T
	subs  []*listSubscriber[T]
}

// NewList creates a list holding items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the items.
func (l *List[T]) Items() []T { return slices.Clone(l.items) }

// IndexFunc returns the index of the first item satisfying f, or -1.
func (l *List[T]) IndexFunc(f func(T) bool) int {
	return slices.IndexFunc(l.items, f)
}

// ContainsFunc reports whether any item satisfies f.
func (l *List[T]) ContainsFunc(f func(T) bool) bool {
	return l.IndexFunc(f) >= 0
}

// Append adds items at the end.
func (l *List[T]) Append(items ...T) {
	l.Insert(len(l.items), items...)
}

// Insert adds items at index i.
func (l *List[T]) Insert(i int, items ...T) {
	if len(items) == 0 {
		return
	}
	l.items = slices.Insert(l.items, i, items...)
	l.notify(ListChange[T]{From: i, Added: slices.Clone(items)})
}

// Replace swaps the item at index i.
func (l *List[T]) Replace(i int, item T) {
	old := l.items[i]
	l.items[i] = item
	l.notify(ListChange[T]{From: i, Removed: []T{old}, Added: []T{item}})
}

// RemoveAt removes the item at index i.
func (l *List[T]) RemoveAt(i int) {
	l.RemoveRange(i, i+1)
}

// RemoveRange removes items in [from, to).
func (l *List[T]) RemoveRange(from, to int) {
	if from >= to {
		return
	}
	removed := slices.Clone(l.items[from:to])
	l.items = slices.Delete(l.items, from, to)
	l.notify(ListChange[T]{From: from, Removed: removed})
}

// RemoveFunc removes every item satisfying f and returns how many were
// removed. Each removal is reported separately.
func (l *List[T]) RemoveFunc(f func(T) bool) int {
	n := 0
	for i := len(l.items) - 1; i >= 0; i-- {
		if f(l.items[i]) {
			l.RemoveAt(i)
			n++
		}
	}
	return n
}

// SetAll replaces the whole content in one change.
func (l *List[T]) SetAll(items []T) {
	if len(l.items) == 0 && len(items) == 0 {
		return
	}
	removed := l.items
	l.items = slices.Clone(items)
	l.notify(ListChange[T]{From: 0, Removed: removed, Added: slices.Clone(items)})
}

// Clear removes every item.
func (l *List[T]) Clear() {
	l.RemoveRange(0, len(l.items))
}

// Subscribe registers fn for structural changes.
func (l *List[T]) Subscribe(fn func(ListChange[T])) (cancel func()) {
	s := &listSubscriber[T]{fn: fn, active: true}
	l.subs = append(l.subs, s)
	return func() {
		if !s.active {
			return
		}
		s.active = false
		for i, other := range l.subs {
			if other == s {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				break
			}
		}
	}
}

// Watch registers fn for any change.
func (l *List[T]) Watch(fn func()) (cancel func()) {
	return l.Subscribe(func(ListChange[T]) { fn() })
}

func (l *List[T]) notify(change ListChange[T]) {
	snapshot := append([]*listSubscriber[T](nil), l.subs...)
	for _, s := range snapshot {
		if s.active {
			s.fn(change)
		}
	}
}

// Contains reports whether v is in l.
func Contains[T comparable](l *List[T], v T) bool {
	return slices.Contains(l.items, v)
}

// IndexOf returns the index of v in l, or -1.
func IndexOf[T comparable](l *List[T], v T) int {
	return slices.Index(l.items, v)
}

// Size derives the length of l.
func Size[T any](l *List[T]) *Derived[int] {
	return Derive(l.Len, l)
}

// NotEmpty derives whether l has at least one item.
func NotEmpty[T any](l *List[T]) *Derived[bool] {
	return Derive(func() bool { return l.Len() > 0 }, l)
}
