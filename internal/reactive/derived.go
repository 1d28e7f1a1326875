package reactive

// Derived is a read-only cell computed from other observables. It
// recomputes eagerly on every source change and notifies only when the
// computed value differs.
type Derived[T any] struct {
	cell    *Cell[T]
	compute func() T
	cancels []func()
}

// Derive creates a derived cell comparing values with ==.
func Derive[T comparable](compute func() T, sources ...Observable) *Derived[T] {
	return DeriveFunc(func(a, b T) bool { return a == b }, compute, sources...)
}

// DeriveFunc creates a derived cell with a custom equality.
func DeriveFunc[T any](equal func(a, b T) bool, compute func() T, sources ...Observable) *Derived[T] {
	d := &Derived[T]{
		cell:    NewCellFunc(compute(), equal),
		compute: compute,
	}
	for _, src := range sources {
		d.cancels = append(d.cancels, src.Watch(d.recompute))
	}
	return d
}

func (d *Derived[T]) recompute() {
	d.cell.Set(d.compute())
}

// Get returns the current value.
func (d *Derived[T]) Get() T {
	return d.cell.Get()
}

// Subscribe registers fn for change events.
func (d *Derived[T]) Subscribe(fn func(old, new T)) (cancel func()) {
	return d.cell.Subscribe(fn)
}

// Watch registers fn for change events without the values.
func (d *Derived[T]) Watch(fn func()) (cancel func()) {
	return d.cell.Watch(fn)
}

// Close detaches the cell from its sources.
func (d *Derived[T]) Close() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
}

// Map derives a cell by applying f to src.
func Map[A any, B comparable](src Readable[A], f func(A) B) *Derived[B] {
	return Derive(func() B { return f(src.Get()) }, src)
}

// All is true when every input is true.
func All(inputs ...Readable[bool]) *Derived[bool] {
	return Derive(func() bool {
		for _, in := range inputs {
			if !in.Get() {
				return false
			}
		}
		return true
	}, observables(inputs)...)
}

// Any is true when at least one input is true.
func Any(inputs ...Readable[bool]) *Derived[bool] {
	return Derive(func() bool {
		for _, in := range inputs {
			if in.Get() {
				return true
			}
		}
		return false
	}, observables(inputs)...)
}

// Not negates b.
func Not(b Readable[bool]) *Derived[bool] {
	return Map(b, func(v bool) bool { return !v })
}

func observables[T any](in []Readable[T]) []Observable {
	out := make([]Observable, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}
