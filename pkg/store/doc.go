/*
Package store implements the request-lifecycle store.

Every API-backed resource is a Slice: a SliceState holding typed data fields and
the pending/error/message flags. Operations are Thunks defined on a slice; each
dispatch runs the HTTP call in its own goroutine and settles as fulfilled or
rejected. A pure Reducer maps the lifecycle events to state transitions.

	s := store.New(executor, store.WithGuard(guard))
	defer s.Close(ctx)

	task := s.Arrivals.GetArrivals.Dispatch(ctx, domain.Args{Query: &domain.Query{Page: 1}})
	page, err := task.Wait(ctx)

Overlapping dispatches of the same operation are resolved by the SettlePolicy.
*/
package store
