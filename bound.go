package sct

// Bound is a pluggable bounding policy (§4.6): a triple of a predicate and
// two functions that stay bound-agnostic in the core. Pass by value (or as
// a small struct of closures); never conflate a Bound with a Scheduler.
type Bound interface {
	// BoundOK reports whether a prefix (as a decision sequence from the
	// root) is still within budget.
	BoundOK(decisions []Decision) bool

	// BacktrackFn amplifies the precise backtrack requests FindBacktrackPoints
	// derived from a trace with whatever additional (typically
	// conservative) requests the bound's semantics require, given the
	// per-step backtrack scratch the driver loop derives from the same trace.
	BacktrackFn(scratch []BacktrackStep, requests []BacktrackRequest) []BacktrackRequest

	// Initialise chooses, at a branching step (one past the replayed
	// prefix), which tids the scheduler should enumerate as alternatives.
	// prior is nil at the very first step. runnable lists the threads
	// able to run along with their prospective (lookahead) action.
	Initialise(prior *ThreadID, runnable []Alternative) []ThreadID
}

// BacktrackStep is the per-step scratch the driver loop derives from a
// completed trace, handed to a Bound's BacktrackFn so it can splice in
// additional entries (e.g. a conservative point at the most recent thread
// change, as the bundled pre-emption bound does).
type BacktrackStep struct {
	// Index is this step's position in the trace.
	Index int
	// Path is the tree path up to (not including) this step.
	Path Path
	// Tid is the thread scheduled at this step.
	Tid ThreadID
	// Runnable lists the other tids runnable at this step (the step's
	// alternatives, with lookahead); the scheduled tid is not included.
	Runnable []Alternative
}
