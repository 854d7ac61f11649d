/*
Package observability turns store lifecycle events into Prometheus metrics and
structured log lines.

Both are exposed as domain.LifecycleHooks so they can be composed and passed to
store.WithLifecycleHooks.
*/
package observability
