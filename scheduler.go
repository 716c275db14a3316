package sct

// MemoryModel is the narrow interface the replay scheduler consults to
// decide whether a prospective action would block indefinitely. The core
// never interprets memory itself (§1); exec's memory-model implementations
// (sequential consistency, total store order, partial store order) satisfy
// this interface and are otherwise opaque to this package.
type MemoryModel interface {
	// WillBlockSafely reports whether look's first blocking operation would
	// block indefinitely given the current memory state (e.g. reading a
	// never-signalled m-var).
	WillBlockSafely(look Action) bool
}

// BPoint is the scheduler's per-step record: the runnable threads (with
// their prospective action) and the subset of those the bound's Initialise
// function offered as alternatives. At replayed steps only Runnable is set;
// Alternatives stays empty, since no branching decision was made there.
// FindBacktrackPoints does not read BPoints; it works from the trace.
type BPoint struct {
	Runnable     []Alternative
	Alternatives []ThreadID
}

// SchedState is the per-execution scheduler state (§3): the remaining
// prefix the replay scheduler must follow verbatim, the trace's bpoints
// record built up so far, and the memory-model auxiliary state. It is
// created fresh for each execution by NewSchedState and discarded
// afterwards; the only thing that survives a run is the Trace the
// execution engine builds alongside it.
type SchedState struct {
	Prefix  []ThreadID
	BPoints []BPoint
	Memory  MemoryModel
}

// NewSchedState builds the initial scheduler state for a run that must
// replay prefix verbatim before branching, against the given memory model.
func NewSchedState(prefix []ThreadID, mem MemoryModel) SchedState {
	p := make([]ThreadID, len(prefix))
	copy(p, prefix)
	return SchedState{Prefix: p, Memory: mem}
}

// ReplayScheduler is the deterministic replay scheduler of §4.3. It is
// invoked once per execution step by the execution engine with the
// previously running thread (nil at the first step) and the set of
// currently runnable threads paired with their prospective action. It is
// deterministic given prefix and memory, and must be strict: no step may
// be deferred past the point the engine asks for it, because the driver
// loop's FindBacktrackPoints pass scans the whole realised trace.
type ReplayScheduler struct {
	Bound Bound
}

// Step implements one scheduling decision. See §4.3:
//
//  1. Memory state is the execution engine's responsibility (it reaches
//     this method through each runnable action's Blocking flag); this
//     method only reads state.Memory, it never mutates memory.
//  2. Replay branch: if state.Prefix is non-empty, emit its head verbatim
//     and record an empty-alternatives bpoint.
//  3. Branching branch: call Bound.Initialise, filter to threads that
//     would not block safely, and emit the first live choice with the
//     rest recorded as alternatives. If no choice is live, abort (the
//     cleaned-up semantics of the design note in §9, rather than the
//     historical "fall back to the first choice" behaviour).
func (s ReplayScheduler) Step(prior *ThreadID, runnable []Alternative, state SchedState) (ThreadID, bool, SchedState) {
	if len(state.Prefix) > 0 {
		tid := state.Prefix[0]
		next := state
		next.Prefix = append([]ThreadID{}, state.Prefix[1:]...)
		next.BPoints = append(append([]BPoint{}, state.BPoints...), BPoint{Runnable: runnable})
		return tid, true, next
	}

	choices := s.Bound.Initialise(prior, runnable)
	if len(choices) == 0 {
		next := state
		next.BPoints = append(append([]BPoint{}, state.BPoints...), BPoint{Runnable: runnable})
		return 0, false, next
	}

	byTid := make(map[ThreadID]Action, len(runnable))
	for _, alt := range runnable {
		byTid[alt.Tid] = alt.Action
	}

	live := make([]ThreadID, 0, len(choices))
	for _, tid := range choices {
		look, ok := byTid[tid]
		if ok && state.Memory != nil && state.Memory.WillBlockSafely(look) {
			continue
		}
		live = append(live, tid)
	}

	next := state
	if len(live) == 0 {
		// Every choice would deadlock; abort rather than trivially running
		// a doomed schedule (see the §9 design note on the cleaned-up
		// final-step semantics).
		next.BPoints = append(append([]BPoint{}, state.BPoints...), BPoint{Runnable: runnable, Alternatives: choices})
		return 0, false, next
	}

	chosen := live[0]
	next.BPoints = append(append([]BPoint{}, state.BPoints...), BPoint{Runnable: runnable, Alternatives: live[1:]})
	return chosen, true, next
}
