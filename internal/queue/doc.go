// Package queue implements the offline submission queue manager: bounded
// enqueue, sequential FIFO draining against the backend, per-item retry
// bookkeeping, and dead-lettering of items that exhaust their retries or hit
// a permanent backend rejection.
//
// The manager owns queue item lifecycle exclusively; localstore is its
// persistence medium. At most one drain cycle runs at a time; concurrent
// Process calls join the in-flight cycle rather than starting a second one.
// Treat this package as the single source of truth for retry semantics.
package queue
