/*
Package ports defines the driven ports (interfaces) of the parkdash store.

These interfaces decouple the request-lifecycle store from its external
implementations, so that the same slices run against the real API, a fake
backend, and any credential backend.

# Key Interfaces

  - Executor: Performs the HTTP call behind an operation (e.g., the REST adapter).
  - CredentialStore: Persists session credentials (memory, file, Redis).
  - Notifier: Shows transient toasts for failed operations.
  - DistributedLocker: Provides distributed locking around credential refreshes.
  - Dispatcher: The surface the gateway and MCP adapters drive the store through.
*/
package ports
