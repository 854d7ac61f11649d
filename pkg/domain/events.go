package domain

import (
	"context"
	"time"
)

// EventType defines the lifecycle transition carried by an event.
type EventType string

const (
	EventPending   EventType = "pending"
	EventFulfilled EventType = "fulfilled"
	EventRejected  EventType = "rejected"
	EventReset     EventType = "reset"
)

// Event is a single lifecycle transition of a slice.
// For reset events Operation holds the reset action name.
type Event struct {
	Type       EventType     `json:"type"`
	Slice      string        `json:"slice"`
	Operation  string        `json:"operation"`
	Generation uint64        `json:"generation,omitempty"`
	Payload    any           `json:"-"`
	Err        *RequestError `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Tag returns the unique operation tag "<slice>/<operation>".
func (e Event) Tag() string {
	return OperationTag(e.Slice, e.Operation)
}

// OperationTag builds the unique tag of an operation.
func OperationTag(slice, operation string) string {
	return slice + "/" + operation
}

// Change is published to subscribers after an event has been applied to a slice.
// State is the slice state right after the event.
type Change struct {
	Slice string `json:"slice"`
	Event Event  `json:"event"`
	State any    `json:"state"`
}

// LifecycleHooks defines callbacks for store observability.
// OnDiscard fires when a stale settlement is dropped by the settle policy.
type LifecycleHooks struct {
	OnDispatch func(context.Context, *Event)
	OnSettle   func(context.Context, *Event, time.Duration)
	OnDiscard  func(context.Context, *Event)
}

// ComposeHooks chains several hook sets so that each callback runs in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		if h.OnDispatch != nil {
			prev := out.OnDispatch
			out.OnDispatch = func(ctx context.Context, e *Event) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnDispatch(ctx, e)
			}
		}
		if h.OnSettle != nil {
			prev := out.OnSettle
			out.OnSettle = func(ctx context.Context, e *Event, d time.Duration) {
				if prev != nil {
					prev(ctx, e, d)
				}
				h.OnSettle(ctx, e, d)
			}
		}
		if h.OnDiscard != nil {
			prev := out.OnDiscard
			out.OnDiscard = func(ctx context.Context, e *Event) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnDiscard(ctx, e)
			}
		}
	}
	return out
}
