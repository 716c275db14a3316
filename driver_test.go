package sct

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newRacyWriteRun builds a RunOnce for §8 scenario 1: the main thread (tid
// 1) forks thread A (tid 2), which writes ref 0 to 1; main reads ref 0 and
// returns it. Depending on interleaving, the read observes 0 or 1.
func newRacyWriteRun() RunOnce[int] {
	return func(sched Scheduler, initial SchedState) (Outcome[int], SchedState, Trace) {
		scripts := map[ThreadID][]Action{
			1: {
				{Kind: ActionSpawn, Child: 2},
				{Kind: ActionReadRef, RefID: 0},
				{Kind: ActionStop},
			},
			2: nil, // populated once tid 1 spawns it
		}
		started := map[ThreadID]bool{1: true}
		refVal := 0
		result := 0

		state := initial
		var prior *ThreadID

		var trace Trace
		for {
			runnable := collectRunnable(scripts, started)
			if len(runnable) == 0 {
				break
			}
			tid, ok, next := sched.Step(prior, runnable, state)
			state = next
			if !ok {
				return OutcomeErr[int](FailureAbort), state, trace
			}

			runnableSet := map[ThreadID]bool{}
			for _, alt := range runnable {
				runnableSet[alt.Tid] = true
			}
			decision := DecisionOf(prior, runnableSet, tid)
			alternatives := alternativesExcept(runnable, tid)
			action := scripts[tid][0]
			scripts[tid] = scripts[tid][1:]

			switch action.Kind {
			case ActionSpawn:
				scripts[action.Child] = []Action{
					{Kind: ActionWriteRef, RefID: 0},
					{Kind: ActionStop},
				}
				started[action.Child] = true
			case ActionWriteRef:
				refVal = 1
			case ActionReadRef:
				result = refVal
			}

			trace = append(trace, TraceStep{Decision: decision, Alternatives: alternatives, Action: action})
			t := tid
			prior = &t
		}
		return OutcomeOK(result), state, trace
	}
}

// newSingleThreadedRun builds a trivial RunOnce with exactly one thread and
// no branching, for the single-threaded boundary-behaviour test.
func newSingleThreadedRun() RunOnce[int] {
	return func(sched Scheduler, initial SchedState) (Outcome[int], SchedState, Trace) {
		scripts := map[ThreadID][]Action{1: {{Kind: ActionReadRef, RefID: 0}, {Kind: ActionStop}}}
		started := map[ThreadID]bool{1: true}
		state := initial
		var prior *ThreadID
		var trace Trace
		for {
			runnable := collectRunnable(scripts, started)
			if len(runnable) == 0 {
				break
			}
			tid, ok, next := sched.Step(prior, runnable, state)
			state = next
			if !ok {
				return OutcomeErr[int](FailureAbort), state, trace
			}
			runnableSet := map[ThreadID]bool{}
			for _, alt := range runnable {
				runnableSet[alt.Tid] = true
			}
			decision := DecisionOf(prior, runnableSet, tid)
			action := scripts[tid][0]
			scripts[tid] = scripts[tid][1:]
			trace = append(trace, TraceStep{Decision: decision, Action: action})
			t := tid
			prior = &t
		}
		return OutcomeOK(0), state, trace
	}
}

func collectRunnable(scripts map[ThreadID][]Action, started map[ThreadID]bool) []Alternative {
	var out []Alternative
	for tid, script := range scripts {
		if !started[tid] || len(script) == 0 {
			continue
		}
		out = append(out, Alternative{Tid: tid, Action: script[0]})
	}
	return out
}

func alternativesExcept(runnable []Alternative, tid ThreadID) []Alternative {
	var out []Alternative
	for _, alt := range runnable {
		if alt.Tid != tid {
			out = append(out, alt)
		}
	}
	return out
}

func TestRunBoundedRacyWriteProducesBothOutcomes(t *testing.T) {
	results, err := RunPreemptionBounded(1, 1, nil, newRacyWriteRun())
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	seen := map[int]bool{}
	for _, r := range results {
		if r.Outcome.Failed {
			t.Fatalf("unexpected failure outcome: %v", r.Outcome.Err)
		}
		seen[r.Outcome.Value] = true
	}
	if !seen[0] || !seen[1] {
		t.Errorf("expected both outcomes {0, 1}, got %v (results=%d)", seen, len(results))
	}
}

func TestRunBoundedNoDuplicateTraces(t *testing.T) {
	results, err := RunPreemptionBounded(1, 1, nil, newRacyWriteRun())
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	signatures := map[string]bool{}
	for _, r := range results {
		sig := traceSignature(r.Trace)
		if signatures[sig] {
			t.Errorf("duplicate trace emitted: %s", sig)
		}
		signatures[sig] = true
	}
}

func traceSignature(tr Trace) string {
	s := ""
	for _, step := range tr {
		s += step.Decision.String() + "|"
	}
	return s
}

func TestRunBoundedSingleThreadedProducesExactlyOneTrace(t *testing.T) {
	results, err := RunPreemptionBounded(2, 1, nil, newSingleThreadedRun())
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected exactly one trace for a single-threaded computation, got %d", len(results))
	}
}

func TestRunBoundedPreemptCountWithinBudget(t *testing.T) {
	const k = 1
	results, err := RunPreemptionBounded(k, 1, nil, newRacyWriteRun())
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	for _, r := range results {
		if got := PreemptCountTrace(r.Trace); got > k {
			t.Errorf("trace exceeds pre-emption budget: PreemptCountTrace=%d, k=%d, trace=%s", got, k, traceSignature(r.Trace))
		}
	}
}

func TestRunBoundedReplayReproducesResult(t *testing.T) {
	results, err := RunPreemptionBounded(1, 1, nil, newRacyWriteRun())
	if err != nil {
		t.Fatalf("RunPreemptionBounded: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
	for _, r := range results {
		tids := pathTids(Path(r.Trace.Decisions()))
		sched := ReplayScheduler{Bound: mustPreemptionBound(t, 1)}
		outcome, _, replayed := newRacyWriteRun()(sched, NewSchedState(tids, nil))
		if outcome != r.Outcome {
			t.Errorf("replay produced a different outcome: got %+v, want %+v", outcome, r.Outcome)
		}
		if diff := cmp.Diff(r.Trace, replayed, cmp.AllowUnexported(Decision{})); diff != "" {
			t.Errorf("replay produced a different trace (-want +got):\n%s", diff)
		}
	}
}

func mustPreemptionBound(t *testing.T, k int) Bound {
	t.Helper()
	b, err := NewPreemptionBound(k)
	if err != nil {
		t.Fatalf("NewPreemptionBound: %v", err)
	}
	return b
}

func TestRunBoundedTerminatesWhenEveryRunAborts(t *testing.T) {
	alwaysAbort := func(sched Scheduler, initial SchedState) (Outcome[int], SchedState, Trace) {
		tid, ok, next := sched.Step(nil, []Alternative{{Tid: 1, Action: Action{Kind: ActionTakeMVar, MVarID: 0, Blocking: true}}}, initial)
		_ = tid
		if ok {
			t.Fatalf("test engine expected the scheduler to abort on an all-blocking runnable set")
		}
		return OutcomeErr[int](FailureAbort), next, Trace{{Decision: Start(1), Action: Action{Kind: ActionTakeMVar, MVarID: 0}}}
	}
	// A bound whose Initialise always offers the lone (blocking) thread,
	// and a memory model that reports it as permanently blocking, forces
	// the replay scheduler to abort on every run (§4.3's abort branch).
	bound, err := NewPreemptionBound(3)
	if err != nil {
		t.Fatalf("NewPreemptionBound: %v", err)
	}
	results, err := RunBounded[int](bound, 1, alwaysBlockMemory{}, alwaysAbort)
	if err != nil {
		t.Fatalf("RunBounded: %v", err)
	}
	for _, r := range results {
		if r.Outcome.Err != FailureAbort {
			t.Errorf("expected every result to be an Abort, got %+v", r.Outcome)
		}
	}
}

type alwaysBlockMemory struct{}

func (alwaysBlockMemory) WillBlockSafely(Action) bool { return true }
