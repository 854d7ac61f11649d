/*
Package session manages the credentials of dashboard sessions.

The Manager serialises access to a session's credentials (a ref-counted local
lock plus an optional distributed lock), deduplicates token refreshes, and
provides the Guard that the store consults before every guarded operation.
A 401 from any operation goes through Guard.Unauthorized: one refresh is tried
when a refresher is configured, otherwise (or when it fails) the credentials are
cleared and the unauthorized handler runs.
*/
package session
