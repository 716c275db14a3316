package exec

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-sct/sct"
	"github.com/go-sct/sct/effect"
)

// ThreadID is sct's thread identifier, re-exported so callers building a
// Computation never need to import sct directly for it.
type ThreadID = sct.ThreadID

// Computation is a user concurrent program: the body the main thread runs,
// given a Handle to fork threads and touch shared primitives. A second
// return value of non-nil is reported as FailureUncaughtException.
type Computation[S any] func(h *Handle) (S, error)

// proposedOp is what a thread reports to the Machine's central loop before
// it is granted a turn: the lookahead Action (final Blocking/TxRefs fields
// populated by reclassify, which the central loop calls fresh every round
// since shared state may have changed since the action was first proposed)
// plus book-keeping to unblock the right goroutine.
type proposedOp struct {
	action     sct.Action
	reclassify func() sct.Action // recompute Blocking (and TxRefs for STM) against current state
}

type threadState struct {
	resume chan struct{}
	pending *proposedOp
	alive   bool
}

// Machine drives one execution of a Computation[S] under an sct.Scheduler,
// implementing the RunOnce contract sct.RunBounded consumes (§6). It is
// single-use: call Run once per replay, building a fresh Machine each time
// (sct's driver loop replays the same computation many times under
// different prefixes).
type Machine[S any] struct {
	comp       Computation[S]
	mem        MemoryModel
	effects    effect.Runner
	stepBudget int
	mu         sync.Mutex
	nextTid  ThreadID
	nextRef  int
	nextMVar int
	nextTVar int
	refs     map[int]*refCell
	mvars    map[int]*mvarCell
	tvars    map[int]*tvarCell
	threads  map[ThreadID]*threadState
	proposals chan ThreadID // a thread's tid, each time it has a new pending proposal
	failure  error
	result   S
}

// MachineOption configures a Machine at construction time.
type MachineOption[S any] func(*Machine[S])

// WithStepBudget caps the number of scheduling decisions a single Run may
// take before it aborts with sct.FailureAbort (§5, §7), guarding against a
// non-terminating computation burning the whole search on one trace. Zero
// (the default) means no limit.
func WithStepBudget[S any](n int) MachineOption[S] {
	return func(m *Machine[S]) { m.stepBudget = n }
}

// NewMachine builds a Machine ready to run comp once, against mem (see
// NewSequentialConsistency, NewTSO, NewPSO) and runner (effect.NewNullRunner()
// if the computation performs no lifted effects).
func NewMachine[S any](comp Computation[S], mem MemoryModel, runner effect.Runner, opts ...MachineOption[S]) *Machine[S] {
	if runner == nil {
		runner = effect.NewNullRunner()
	}
	m := &Machine[S]{
		comp:      comp,
		mem:       mem,
		effects:   runner,
		refs:      map[int]*refCell{},
		mvars:     map[int]*mvarCell{},
		tvars:     map[int]*tvarCell{},
		threads:   map[ThreadID]*threadState{},
		proposals: make(chan ThreadID, 64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunOnce adapts Machine.Run into the sct.RunOnce[S] signature
// sct.RunBounded expects, closing over ctx for lifted effects.
func RunOnce[S any](ctx context.Context, comp Computation[S], mem MemoryModel, runner effect.Runner, opts ...MachineOption[S]) sct.RunOnce[S] {
	return func(sched sct.Scheduler, initial sct.SchedState) (sct.Outcome[S], sct.SchedState, sct.Trace) {
		m := NewMachine(comp, mem, runner, opts...)
		return m.Run(ctx, sched, initial)
	}
}

// Run drives comp to completion, implementing the execution-engine side of
// the §6 contract: it invokes sched once per scheduling step with the
// previously running thread and the currently proposing threads whose next
// action would not block (with lookahead), and commits whichever thread the
// scheduler selects.
func (m *Machine[S]) Run(ctx context.Context, sched sct.Scheduler, initial sct.SchedState) (sct.Outcome[S], sct.SchedState, sct.Trace) {
	state := initial
	var prior *ThreadID
	var trace sct.Trace
	live := 0

	root := m.newThread()
	m.startThread(ctx, root, func(h *Handle) {
		v, err := m.comp(h)
		m.mu.Lock()
		if err != nil && m.failure == nil {
			m.failure = err
		}
		m.result = v
		m.mu.Unlock()
		m.proposeStop(root)
	})
	live++
	m.awaitArrivals(1)

	for {
		if m.stepBudget > 0 && len(trace) >= m.stepBudget {
			m.abortAll()
			return sct.OutcomeErr[S](sct.FailureAbort), state, trace
		}

		m.mu.Lock()
		order := m.pendingOrder()
		pending := make([]*proposedOp, len(order))
		for i, tid := range order {
			pending[i] = m.threads[tid].pending
		}
		m.mu.Unlock()
		// reclassify reads shared state through methods that take m.mu
		// themselves, so it runs with the lock released.
		runnable := make([]sct.Alternative, 0, len(order))
		for i, tid := range order {
			action := pending[i].reclassify()
			pending[i].action = action
			runnable = append(runnable, sct.Alternative{Tid: tid, Action: action})
		}

		if len(runnable) == 0 {
			if live != 0 {
				// Every live thread should always have a pending proposal or
				// have stopped; reaching an empty runnable set with threads
				// still alive means one never proposed again, a bug in this
				// engine rather than anything the computation under test did.
				panic(fmt.Errorf("exec: %w: %d thread(s) alive with no pending proposal", sct.ErrNoProgress, live))
			}
			break // no thread ever proposed again: every thread has stopped
		}
		if allBlocked(runnable) {
			failure := sct.FailureDeadlock
			if allSTM(runnable) {
				failure = sct.FailureSTMDeadlock
			}
			if len(trace) == 0 {
				// Record the blocked first action so the trace still begins
				// with a Start step.
				trace = append(trace, sct.TraceStep{Decision: sct.Start(runnable[0].Tid), Action: runnable[0].Action})
			}
			return sct.OutcomeErr[S](failure), state, trace
		}
		// A thread whose next action would block cannot run at this step:
		// it is neither offered to the scheduler nor recorded as an
		// alternative.
		ready := make([]sct.Alternative, 0, len(runnable))
		for _, alt := range runnable {
			if !alt.Action.Blocking {
				ready = append(ready, alt)
			}
		}
		runnable = ready

		tid, ok, next := sched.Step(prior, runnable, state)
		state = next
		if !ok {
			m.abortAll()
			return sct.OutcomeErr[S](sct.FailureAbort), state, trace
		}

		runnableSet := make(map[ThreadID]bool, len(runnable))
		for _, alt := range runnable {
			runnableSet[alt.Tid] = true
		}
		decision := sct.DecisionOf(prior, runnableSet, tid)
		alts := alternativesExcept(runnable, tid)

		m.mu.Lock()
		ts := m.threads[tid]
		action := ts.pending.action
		ts.pending = nil
		expect := 0
		switch action.Kind {
		case sct.ActionStop:
			ts.alive = false
			live--
		case sct.ActionSpawn:
			live++
			expect = 2 // the spawning thread's next proposal, and the child's first
		default:
			expect = 1
		}
		m.mu.Unlock()

		ts.resume <- struct{}{}
		if expect > 0 {
			m.awaitArrivals(expect)
		}

		trace = append(trace, sct.TraceStep{Decision: decision, Alternatives: alts, Action: action})
		t := tid
		prior = &t

		if live == 0 {
			break
		}
	}

	m.mu.Lock()
	failure := m.failure
	result := m.result
	m.mu.Unlock()
	if failure != nil {
		return sct.OutcomeErr[S](sct.FailureUncaughtException), state, trace
	}
	return sct.OutcomeOK(result), state, trace
}

// awaitArrivals drains n proposal notifications from the shared channel.
// It is how the central loop learns a thread's new pending action (or a
// freshly spawned child's first one) without re-polling threads that are
// still blocked on an earlier, unresolved proposal.
func (m *Machine[S]) awaitArrivals(n int) {
	for i := 0; i < n; i++ {
		tid := <-m.proposals
		_ = tid // the proposal itself is already stored on threadState by propose()
	}
}

// pendingOrder returns the tids with an outstanding proposal, in ascending
// order, for deterministic iteration (m.mu must be held).
func (m *Machine[S]) pendingOrder() []ThreadID {
	tids := make([]ThreadID, 0, len(m.threads))
	for tid, ts := range m.threads {
		if ts.pending != nil {
			tids = append(tids, tid)
		}
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return tids
}

// abortAll releases every still-blocked thread goroutine with a cancelled
// resume so they unwind rather than leak once the search abandons this run.
func (m *Machine[S]) abortAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ts := range m.threads {
		if ts.pending != nil {
			close(ts.resume)
		}
	}
}

func allBlocked(runnable []sct.Alternative) bool {
	for _, alt := range runnable {
		if !alt.Action.Blocking {
			return false
		}
	}
	return true
}

func allSTM(runnable []sct.Alternative) bool {
	for _, alt := range runnable {
		if alt.Action.Kind != sct.ActionSTM {
			return false
		}
	}
	return len(runnable) > 0
}

func alternativesExcept(runnable []sct.Alternative, tid ThreadID) []sct.Alternative {
	out := make([]sct.Alternative, 0, len(runnable)-1)
	for _, alt := range runnable {
		if alt.Tid != tid {
			out = append(out, alt)
		}
	}
	return out
}

func (m *Machine[S]) newThread() ThreadID {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := m.nextTid
	m.nextTid++
	m.threads[tid] = &threadState{resume: make(chan struct{}), alive: true}
	return tid
}

// startThread launches body as tid's goroutine. body runs free-running Go
// code until it reaches its first primitive (via Handle), at which point
// it proposes and blocks until the central loop grants it a turn.
func (m *Machine[S]) startThread(ctx context.Context, tid ThreadID, body func(h *Handle)) {
	h := &Handle{tid: tid, m: m, ctx: ctx}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.mu.Lock()
				if m.failure == nil {
					m.failure = fmt.Errorf("exec: thread %d panicked: %v", tid, r)
				}
				m.mu.Unlock()
				m.proposeStop(tid)
			}
		}()
		body(h)
	}()
}

// propose reports action as tid's next intended primitive and blocks until
// the central loop grants a turn, returning whether the grant is live (a
// false return means the run aborted and the calling goroutine must
// unwind without performing the action). reclassify recomputes the
// action's Blocking (and, for STM, TxRefs) flags against current shared
// state; the central loop calls it fresh on every round a proposal remains
// pending, since state may have changed since it was first sent.
func (m *Machine[S]) propose(tid ThreadID, action sct.Action, reclassify func() sct.Action) bool {
	m.mu.Lock()
	ts := m.threads[tid]
	ts.pending = &proposedOp{action: action, reclassify: reclassify}
	m.mu.Unlock()
	m.proposals <- tid
	_, ok := <-ts.resume
	return ok
}

func (m *Machine[S]) proposeStop(tid ThreadID) {
	m.propose(tid, sct.Action{Kind: sct.ActionStop}, func() sct.Action { return sct.Action{Kind: sct.ActionStop} })
}

// forkChild implements Handle.Fork: it proposes a Spawn action naming the
// reserved child tid, waits for the grant, then launches the child's
// goroutine. The child is auto-stopped once fn returns, same as the root
// thread in Run.
func (m *Machine[S]) forkChild(ctx context.Context, parent ThreadID, fn func(h *Handle)) ThreadID {
	child := m.newThread()
	ok := m.propose(parent, sct.Action{Kind: sct.ActionSpawn, Child: child}, func() sct.Action {
		return sct.Action{Kind: sct.ActionSpawn, Child: child}
	})
	if !ok {
		return child
	}
	m.startThread(ctx, child, func(h *Handle) {
		fn(h)
		m.proposeStop(child)
	})
	return child
}

// liftEffect grounds a Lift primitive through the configured effect.Runner
// once the proposing thread has been granted its turn.
func (m *Machine[S]) liftEffect(ctx context.Context, tid ThreadID, call effect.Call, do func(context.Context) ([]byte, error)) ([]byte, error) {
	res, err := m.effects.Invoke(ctx, call, do)
	if err != nil {
		return nil, err
	}
	return res.Response, res.Err
}
