package store

import "context"

// Task is the handle of one dispatch.
type Task[P any] struct {
	tag        string
	generation uint64
	done       chan struct{}

	payload P
	err     error
	stale   bool
}

func newTask[P any](tag string, generation uint64) *Task[P] {
	return &Task[P]{tag: tag, generation: generation, done: make(chan struct{})}
}

func failedTask[P any](tag string, err error) *Task[P] {
	t := newTask[P](tag, 0)
	var zero P
	t.resolve(zero, err, false)
	return t
}

func (t *Task[P]) resolve(payload P, err error, stale bool) {
	t.payload = payload
	t.err = err
	t.stale = stale
	close(t.done)
}

// Tag returns the operation tag.
func (t *Task[P]) Tag() string { return t.tag }

// Generation returns the generation assigned at dispatch.
func (t *Task[P]) Generation() uint64 { return t.generation }

// Done is closed once the task has settled and the slice has been updated.
func (t *Task[P]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task settles or ctx is done.
// The payload and error are those of this dispatch, even when the settle
// policy kept them out of the slice (see Stale).
func (t *Task[P]) Wait(ctx context.Context) (P, error) {
	select {
	case <-t.done:
		return t.payload, t.err
	case <-ctx.Done():
		var zero P
		return zero, ctx.Err()
	}
}

// Stale reports whether the settlement was discarded by the settle policy.
// It is only meaningful after Done is closed.
func (t *Task[P]) Stale() bool {
	<-t.done
	return t.stale
}
