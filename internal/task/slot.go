package task

import "context"

// Slot holds the latest task of one kind for a view model. Launching through
// a slot cancels the task it replaces, and results are only delivered while
// their generation is still current. Slots belong to the UI goroutine.
type Slot struct {
	generation uint64
	current    *Task
}

// Generation returns the current generation number.
func (s *Slot) Generation() uint64 {
	return s.generation
}

// Pending reports whether a task launched through the slot has not yet
// delivered its result.
func (s *Slot) Pending() bool {
	return s.current != nil
}

// Cancel drops the pending task, if any, and advances the generation.
func (s *Slot) Cancel() {
	s.generation++
	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
}

func (s *Slot) finish(gen uint64) bool {
	if gen != s.generation {
		return false
	}
	s.current = nil
	return true
}

// RunLatest launches body through slot s, superseding the previous task.
func RunLatest[T any](r *Runner, s *Slot, name string, body func(ctx context.Context, t *Task) (T, error), onOk func(T), onFail func(error)) *Task {
	s.Cancel()
	gen := s.generation
	t := Run(r, name, body,
		func(v T) {
			if s.finish(gen) && onOk != nil {
				onOk(v)
			}
		},
		func(err error) {
			if s.finish(gen) && onFail != nil {
				onFail(err)
			}
		})
	s.current = t
	return t
}
