package emit

import "context"

// Emitter receives and processes observability events from a bounded
// search.
//
// Emitters enable pluggable observability backends: plain logging,
// distributed tracing, in-memory capture for tests. Implementations
// should be non-blocking and safe for concurrent use.
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	// Emit must not panic; implementations that can fail should log the
	// failure internally rather than propagate it.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, preserving order.
	// Returns an error only on catastrophic failure (e.g. misconfiguration);
	// individual event failures should be logged, not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events have been sent to the
	// backend, or ctx is done. Safe to call more than once.
	Flush(ctx context.Context) error
}
