// Package emit provides event emission and observability for a bounded
// search.
package emit

// Event represents an observability event emitted during a bounded search.
//
// RunConfigured emits these events:
//   - search_start, once at the start (Meta "resumed")
//   - trace_result, once per fix-point loop iteration (Meta "failure",
//     "backtracks", "duration_ms")
//   - max_traces_reached, when MaxTraces stops the search
//   - search_complete, once at the end (Meta "traces")
//
// Events are emitted to an Emitter, which can log them, ship them to
// OpenTelemetry, buffer them for inspection, or discard them.
type Event struct {
	// SearchID identifies the bounded search that emitted this event.
	SearchID string

	// Iteration is the sequential fix-point loop iteration (1-indexed).
	// Zero for search_start; max_traces_reached and search_complete carry
	// the number of iterations run so far.
	Iteration int

	// Tid identifies the thread this event concerns, when applicable.
	// Zero when the event is not about a specific thread.
	Tid int

	// Msg is a short event kind, e.g. "search_start", "trace_result",
	// "max_traces_reached", "search_complete".
	Msg string

	// Meta carries event-specific structured data. Keys RunConfigured sets:
	//   - "resumed": whether the search resumed from a checkpoint
	//   - "failure": the Failure kind a trace ended with
	//   - "backtracks": number of backtrack requests the trace produced
	//   - "duration_ms": wall-clock time for the iteration
	//   - "traces": number of traces explored
	Meta map[string]interface{}
}
