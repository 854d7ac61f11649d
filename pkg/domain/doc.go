/*
Package domain contains the core types of the parkdash request-lifecycle store.

It defines the state container shared by every resource slice, the lifecycle
events that drive it, the error taxonomy of the administrative API and the
resource payloads exchanged with it. This package is kept pure and free of I/O,
following Hexagonal Architecture principles.

# Key Entities

  - SliceState: Data fields of one resource plus the pending/error/message flags.
  - Event: A lifecycle transition (pending, fulfilled, rejected, reset).
  - RequestError: A rejected operation, classified by ErrorKind.
  - Query: Pagination, search and sort parameters of list operations.
  - Credentials: The bearer and refresh tokens of a session.
*/
package domain
