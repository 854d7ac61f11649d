package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Slice owns the state of one resource.
// All transitions go through its reducer, one event at a time.
type Slice[D any] struct {
	name    string
	rt      *runtime
	reducer *Reducer[D]

	mu     sync.Mutex
	state  domain.SliceState[D]
	latest map[string]uint64
	// unsettled dispatches per operation; Pending holds while any remain
	inflight map[string]int
}

// NewSlice registers a new slice on the store. empty builds the initial data
// shape and is reused by reset actions. Slice names must be unique per store.
func NewSlice[D any](s *Store, name string, empty func() D) *Slice[D] {
	r := NewReducer(empty)
	sl := &Slice[D]{
		name:     name,
		rt:       s.rt,
		reducer:  r,
		state:    r.Empty(),
		latest:   make(map[string]uint64),
		inflight: make(map[string]int),
	}
	s.register(sl)
	return sl
}

// Name returns the slice name.
func (s *Slice[D]) Name() string { return s.name }

// State returns the current state. The data must be treated as read-only.
func (s *Slice[D]) State() domain.SliceState[D] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns State as an untyped value.
func (s *Slice[D]) Snapshot() any {
	return s.State()
}

// OnReset registers a named reset action. Registration happens before the store is used.
func (s *Slice[D]) OnReset(action string, fn func(*D)) *Slice[D] {
	s.reducer.OnReset(action, fn)
	return s
}

// Resets lists the reset actions of the slice, sorted.
func (s *Slice[D]) Resets() []string {
	out := make([]string, 0, len(s.reducer.resets))
	for name := range s.reducer.resets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reset applies a named reset action. In-flight operations are not affected and
// may still settle afterwards.
func (s *Slice[D]) Reset(ctx context.Context, action string) error {
	if _, ok := s.reducer.resets[action]; !ok {
		return fmt.Errorf("%w: %s/%s", domain.ErrUnknownReset, s.name, action)
	}
	s.apply(domain.Event{
		Type:      domain.EventReset,
		Slice:     s.name,
		Operation: action,
		Timestamp: s.rt.now(),
	})
	s.rt.logger.DebugContext(ctx, "slice reset", "slice", s.name, "action", action)
	return nil
}

// begin assigns the next generation of an operation and applies the pending event.
func (s *Slice[D]) begin(operation string) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[operation]++
	if s.rt.policy == LastDispatchedWins {
		// only the newest dispatch will ever settle into the slice
		s.inflight[operation] = 1
	} else {
		s.inflight[operation]++
	}
	ev := domain.Event{
		Type:       domain.EventPending,
		Slice:      s.name,
		Operation:  operation,
		Generation: s.latest[operation],
		Timestamp:  s.rt.now(),
	}
	s.applyLocked(ev)
	return ev
}

// settle applies a fulfilled or rejected event unless the settle policy
// discards it. It reports whether the event was applied. The slice stays
// pending while another operation of it is still in flight.
func (s *Slice[D]) settle(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt.policy == LastDispatchedWins && ev.Generation < s.latest[ev.Operation] {
		return false
	}
	if s.inflight[ev.Operation]--; s.inflight[ev.Operation] <= 0 {
		delete(s.inflight, ev.Operation)
	}
	s.state = s.reducer.Reduce(s.state, ev)
	if len(s.inflight) > 0 {
		s.state.Pending = true
	}
	s.rt.hub.publish(domain.Change{Slice: s.name, Event: ev, State: s.state})
	return true
}

func (s *Slice[D]) apply(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ev)
}

// applyLocked publishes under the slice lock so subscribers observe events in order.
func (s *Slice[D]) applyLocked(ev domain.Event) {
	s.state = s.reducer.Reduce(s.state, ev)
	s.rt.hub.publish(domain.Change{Slice: s.name, Event: ev, State: s.state})
}
