package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Decoder turns a successful reply into the operation payload.
type Decoder[P any] func(reply *domain.Reply) (P, error)

// ThunkOption configures an operation.
type ThunkOption func(*thunkOptions)

type thunkOptions struct {
	unguarded bool
}

// Unguarded marks an operation that authenticates with Args.Token alone
// (login, token refresh). The guard is neither consulted nor told about a 401.
func Unguarded() ThunkOption {
	return func(o *thunkOptions) { o.unguarded = true }
}

// Thunk is an asynchronous operation bound to a slice.
type Thunk[D, P any] struct {
	slice   *Slice[D]
	info    domain.OperationInfo
	decode  Decoder[P]
	guarded bool
}

// Define registers an operation whose JSON response decodes into P.
// assign stores the payload into the slice data; pass nil for operations that
// only update the flags.
func Define[D, P any](s *Slice[D], name string, ep domain.Endpoint, assign func(*D, P), opts ...ThunkOption) *Thunk[D, P] {
	return DefineWith(s, name, ep, decodeJSON[P], assign, opts...)
}

// DefineWith registers an operation with a custom decoder.
func DefineWith[D, P any](s *Slice[D], name string, ep domain.Endpoint, decode Decoder[P], assign func(*D, P), opts ...ThunkOption) *Thunk[D, P] {
	var o thunkOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := &Thunk[D, P]{
		slice: s,
		info: domain.OperationInfo{
			Tag:      domain.OperationTag(s.name, name),
			Slice:    s.name,
			Name:     name,
			Endpoint: ep,
		},
		decode:  decode,
		guarded: !o.unguarded,
	}

	var untyped func(*D, any)
	if assign != nil {
		untyped = func(d *D, payload any) {
			if p, ok := payload.(P); ok {
				assign(d, p)
			}
		}
	}
	s.reducer.Handle(name, untyped)

	if err := s.rt.registry.Register(t.info, func(ctx context.Context, args domain.Args) (any, error) {
		return t.Run(ctx, args)
	}); err != nil {
		panic(err)
	}
	return t
}

// Tag returns the unique operation tag.
func (t *Thunk[D, P]) Tag() string { return t.info.Tag }

// Info describes the operation.
func (t *Thunk[D, P]) Info() domain.OperationInfo { return t.info }

// Run dispatches the operation and waits for it to settle.
func (t *Thunk[D, P]) Run(ctx context.Context, args domain.Args) (P, error) {
	return t.Dispatch(ctx, args).Wait(ctx)
}

// Dispatch starts the operation and returns immediately.
// The slice is pending when Dispatch returns.
func (t *Thunk[D, P]) Dispatch(ctx context.Context, args domain.Args) *Task[P] {
	rt := t.slice.rt
	if !rt.acquire() {
		return failedTask[P](t.info.Tag, ErrClosed)
	}

	pending := t.slice.begin(t.info.Name)
	task := newTask[P](t.info.Tag, pending.Generation)
	if rt.hooks.OnDispatch != nil {
		rt.hooks.OnDispatch(ctx, &pending)
	}

	go func() {
		defer rt.release()
		start := rt.now()

		payload, rerr := t.execute(ctx, args)

		ev := domain.Event{
			Slice:      t.slice.name,
			Operation:  t.info.Name,
			Generation: pending.Generation,
			Timestamp:  rt.now(),
		}
		var result error
		if rerr != nil {
			ev.Type = domain.EventRejected
			ev.Err = rerr
			result = rerr
		} else {
			ev.Type = domain.EventFulfilled
			ev.Payload = payload
		}

		applied := t.slice.settle(ev)
		if applied {
			if rt.hooks.OnSettle != nil {
				rt.hooks.OnSettle(ctx, &ev, ev.Timestamp.Sub(start))
			}
			if rerr != nil {
				t.surface(ctx, rerr)
			}
		} else {
			// A discarded settlement neither toasts nor reaches the guard:
			// the newer dispatch reports its own outcome.
			rt.logger.DebugContext(ctx, "stale settlement discarded",
				"operation", t.info.Tag, "generation", ev.Generation)
			if rt.hooks.OnDiscard != nil {
				rt.hooks.OnDiscard(ctx, &ev)
			}
		}

		task.resolve(payload, result, !applied)
	}()
	return task
}

// execute runs the guarded HTTP call and classifies any failure. It never
// panics and has no side effects beyond the call itself.
func (t *Thunk[D, P]) execute(ctx context.Context, args domain.Args) (payload P, rerr *domain.RequestError) {
	defer func() {
		if r := recover(); r != nil {
			var zero P
			payload = zero
			rerr = t.classify(ctx, &domain.RequestError{
				Kind:    domain.KindGeneric,
				Message: domain.GenericMessage,
				Err:     fmt.Errorf("operation panicked: %v", r),
			})
		}
	}()

	rt := t.slice.rt
	if t.guarded {
		token, err := rt.guard.Authorize(ctx, args.Token)
		if err != nil {
			return payload, t.classify(ctx, err)
		}
		args.Token = token
	}

	reply, err := rt.executor.Execute(ctx, domain.Call{
		Operation: t.info.Tag,
		Endpoint:  t.info.Endpoint,
		Args:      args,
	})
	if err != nil {
		return payload, t.classify(ctx, err)
	}

	payload, err = t.decode(reply)
	if err != nil {
		return payload, t.classify(ctx, &domain.RequestError{
			Kind:       domain.KindGeneric,
			StatusCode: reply.StatusCode,
			Message:    domain.GenericMessage,
			Err:        fmt.Errorf("failed to decode %s response: %w", t.info.Tag, err),
		})
	}
	return payload, nil
}

// classify turns any failure into a RequestError owned by this operation.
func (t *Thunk[D, P]) classify(ctx context.Context, err error) *domain.RequestError {
	rerr := domain.AsRequestError(err)
	if rerr.Operation == "" {
		rerr.Operation = t.info.Tag
	}
	t.slice.rt.logger.DebugContext(ctx, "operation rejected",
		"operation", t.info.Tag,
		"kind", rerr.Kind,
		"status", rerr.StatusCode,
		"message", rerr.Message,
		"err", rerr.Err,
	)
	return rerr
}

// surface reports an applied rejection. Unauthorized failures go to the
// guard, every other failure is toasted with the server's own message when
// it sent one.
func (t *Thunk[D, P]) surface(ctx context.Context, rerr *domain.RequestError) {
	rt := t.slice.rt
	if rerr.Kind == domain.KindUnauthorized {
		if t.guarded {
			rt.guard.Unauthorized(ctx, rerr)
		}
		return
	}
	rt.notify(ctx, domain.Toast{
		Level:     domain.ToastError,
		Message:   rerr.ToastMessage(),
		Operation: t.info.Tag,
		Timestamp: rt.now(),
	})
}

func decodeJSON[P any](reply *domain.Reply) (P, error) {
	var p P
	if reply == nil || len(bytes.TrimSpace(reply.Body)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(reply.Body, &p); err != nil {
		return p, err
	}
	return p, nil
}
