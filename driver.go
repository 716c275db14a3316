package sct

// Outcome is the result of one execution: either a success value or one of
// the Failure kinds of §7. Failed discriminates which field is meaningful.
type Outcome[V any] struct {
	Value  V
	Failed bool
	Err    Failure
}

// OutcomeOK builds a successful Outcome.
func OutcomeOK[V any](v V) Outcome[V] { return Outcome[V]{Value: v} }

// OutcomeErr builds a failed Outcome carrying the given Failure kind.
func OutcomeErr[V any](f Failure) Outcome[V] { return Outcome[V]{Failed: true, Err: f} }

// Result pairs one execution's outcome with its user-facing trace —
// internal bookkeeping stripped, per user-trace in §4.5.
type Result[V any] struct {
	Outcome Outcome[V]
	Trace   Trace
}

// Scheduler is the narrow interface an execution engine drives once per
// step (§6): given the previously running thread (nil at the first step)
// and the currently runnable threads with their prospective action, choose
// the next tid to run, or report false to abort. ReplayScheduler is the
// concrete implementation this package provides; it satisfies Scheduler
// structurally, with no explicit assertion needed.
type Scheduler interface {
	Step(prior *ThreadID, runnable []Alternative, state SchedState) (tid ThreadID, ok bool, next SchedState)
}

// RunOnce is how RunBounded drives a single execution of a user
// computation through an external execution engine (§6): given a scheduler
// and its initial state, run the computation to completion and report the
// outcome, the final scheduler state, and the realised trace. RunBounded
// does not read the returned state: backtrack points are derived from the
// trace alone.
//
// Package exec provides the canonical implementation of the engine this
// closure talks to. RunBounded itself never imports exec — only a caller
// one level up (a CLI, an example, a test) builds a RunOnce value by
// closing over both the user computation and an exec.Machine, which is how
// the core stays decoupled from concurrency-primitive semantics (§1).
type RunOnce[V any] func(sched Scheduler, initial SchedState) (Outcome[V], SchedState, Trace)

// RunBounded drives the fix-point loop of §4.5 to exhaustion against the
// given bound: repeatedly selects a prefix from the tree, replays the
// computation under it via run, finds backtrack points in the resulting
// trace, grafts the trace onto the tree, and inserts newly discovered todo
// entries — until the tree is fully explored. It returns every distinct
// (outcome, trace) pair produced.
//
// rootTid is the thread identifier the very first Start decision names;
// mem is the memory model the replay scheduler consults when filtering
// live choices (nil is valid — it disables the will-block-safely filter,
// equivalent to a memory model that never reports a safe block).
func RunBounded[V any](bound Bound, rootTid ThreadID, mem MemoryModel, run RunOnce[V]) ([]Result[V], error) {
	tree := NewTree(rootTid)
	sched := ReplayScheduler{Bound: bound}
	var results []Result[V]

	for {
		prefix, conservative, tid, ok := tree.Next()
		if !ok {
			break
		}

		replay := pathTids(prefix)
		if len(prefix) > 0 {
			// Direct the run to schedule the claimed tid right after the
			// prefix. The root entry needs no such step: rootTid is the only
			// thread at the first step.
			replay = append(replay, tid)
		}
		initial := NewSchedState(replay, mem)
		outcome, _, trace := run(sched, initial)

		if len(trace) == 0 || !trace[0].Decision.IsStart() {
			return results, newInvariantErrorf("RunBounded", "engine returned a trace not beginning with Start (len=%d)", len(trace))
		}

		tids := traceTids(trace)
		if len(prefix) >= len(tids) || tids[len(prefix)] != tid {
			// The scheduler re-classified the branching step (e.g. tid
			// became non-runnable meanwhile, or the run aborted before
			// reaching it); the claimed entry is not actually resolved by
			// this trace, so hand it back.
			tree.Reinstate(prefix, tid, conservative)
		}

		requests := FindBacktrackPoints(trace)
		requests = bound.BacktrackFn(backtrackScratch(trace), requests)

		tree.Graft(conservative, trace)
		tree.InsertTodo(bound.BoundOK, requests)

		results = append(results, Result[V]{Outcome: outcome, Trace: userTrace(trace)})
	}

	return results, nil
}

// RunBoundedEffectful runs the same fix-point loop as RunBounded. The
// pure/effectful distinction lives entirely in how the caller's RunOnce
// closure is built — whether it threads an effect.Runner through the
// computation or not — never in the driver loop, which treats both
// identically and, either way, never overlaps two invocations of run
// (§5: iterations are serialised).
func RunBoundedEffectful[V any](bound Bound, rootTid ThreadID, mem MemoryModel, run RunOnce[V]) ([]Result[V], error) {
	return RunBounded(bound, rootTid, mem, run)
}

// RunPreemptionBounded is a convenience wrapper instantiating the bundled
// pre-emption bound (§4.6) with budget k.
func RunPreemptionBounded[V any](k int, rootTid ThreadID, mem MemoryModel, run RunOnce[V]) ([]Result[V], error) {
	bound, err := NewPreemptionBound(k)
	if err != nil {
		return nil, err
	}
	return RunBounded(bound, rootTid, mem, run)
}

// pathTids converts a decision-sequence Path into the ThreadID sequence the
// replay scheduler's SchedState.Prefix expects.
func pathTids(path Path) []ThreadID {
	tids := make([]ThreadID, len(path))
	var prior *ThreadID
	for i, d := range path {
		t := TidOf(derefOr(prior, 0), d)
		tids[i] = t
		p := t
		prior = &p
	}
	return tids
}

// backtrackScratch derives the per-step BacktrackStep scratch a Bound's
// BacktrackFn consults from a completed trace.
func backtrackScratch(trace Trace) []BacktrackStep {
	tids := traceTids(trace)
	scratch := make([]BacktrackStep, len(trace))
	for i, step := range trace {
		scratch[i] = BacktrackStep{
			Index:    i,
			Path:     decisionsToPath(trace[:i]),
			Tid:      tids[i],
			Runnable: step.Alternatives,
		}
	}
	return scratch
}

// userTrace strips internal bookkeeping from a realised trace before it is
// handed to the caller, per §4.5. TraceStep already carries exactly the
// (decision, alternatives, action) triple the result set exposes; this
// copies defensively so a caller mutating a returned Result cannot corrupt
// the tree's own bookkeeping.
func userTrace(trace Trace) Trace {
	out := make(Trace, len(trace))
	copy(out, trace)
	return out
}
