package store

import "github.com/aretw0/parkdash/pkg/domain"

// ResetAll is the reset action every slice understands: all data fields return
// to their empty shape.
const ResetAll = "reset"

// Reducer is the pure transition function of a slice.
type Reducer[D any] struct {
	empty   func() D
	assigns map[string]func(*D, any)
	resets  map[string]func(*D)
}

// NewReducer creates a reducer whose ResetAll action restores empty().
func NewReducer[D any](empty func() D) *Reducer[D] {
	r := &Reducer[D]{
		empty:   empty,
		assigns: make(map[string]func(*D, any)),
		resets:  make(map[string]func(*D)),
	}
	r.resets[ResetAll] = func(d *D) { *d = empty() }
	return r
}

// Handle makes the reducer aware of an operation. assign stores a fulfilled
// payload into the data; nil means the operation only updates the flags.
func (r *Reducer[D]) Handle(operation string, assign func(*D, any)) {
	r.assigns[operation] = assign
}

// OnReset registers a named reset action.
func (r *Reducer[D]) OnReset(action string, fn func(*D)) {
	r.resets[action] = fn
}

// Empty returns the initial state.
func (r *Reducer[D]) Empty() domain.SliceState[D] {
	return domain.SliceState[D]{Data: r.empty()}
}

// Reduce applies one event. Events for unknown operations or reset actions
// return the state unchanged.
func (r *Reducer[D]) Reduce(state domain.SliceState[D], ev domain.Event) domain.SliceState[D] {
	switch ev.Type {
	case domain.EventPending:
		if _, ok := r.assigns[ev.Operation]; !ok {
			return state
		}
		state.Pending = true

	case domain.EventFulfilled:
		assign, ok := r.assigns[ev.Operation]
		if !ok {
			return state
		}
		state.Pending = false
		state.Error = false
		state.Message = ""
		if assign != nil {
			assign(&state.Data, ev.Payload)
		}

	case domain.EventRejected:
		if _, ok := r.assigns[ev.Operation]; !ok {
			return state
		}
		state.Pending = false
		state.Error = true
		state.Message = domain.GenericMessage
		if ev.Err != nil && ev.Err.Message != "" {
			state.Message = ev.Err.Message
		}

	case domain.EventReset:
		reset, ok := r.resets[ev.Operation]
		if !ok {
			return state
		}
		reset(&state.Data)
		state.Pending = false
		state.Error = false
		state.Message = ""
	}
	return state
}
