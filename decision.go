package sct

import "encoding/json"

// Decision classifies one scheduling step: Start, Continue or SwitchTo.
// Continue deliberately carries no tid; tidOf recovers the actual thread
// identifier given the thread that was running before the step.
type Decision struct {
	kind decisionKind
	tid  ThreadID
}

// decisionJSON is Decision's wire shape: kind/tid are unexported so callers
// can only build a Decision through Start/Continue/SwitchTo, but Snapshot
// (§E.3) needs trees containing Decision values to survive a JSON
// round-trip through store.Store.
type decisionJSON struct {
	Kind decisionKind `json:"kind"`
	Tid  ThreadID     `json:"tid"`
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(decisionJSON{Kind: d.kind, Tid: d.tid})
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw decisionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.kind = raw.Kind
	d.tid = raw.Tid
	return nil
}

type decisionKind int

const (
	decisionStart decisionKind = iota
	decisionContinue
	decisionSwitchTo
)

// Start returns the decision to begin (or resume after the previously
// running thread became non-runnable) the given thread.
func Start(tid ThreadID) Decision { return Decision{kind: decisionStart, tid: tid} }

// Continue returns the decision to run the same thread as the last step.
func Continue() Decision { return Decision{kind: decisionContinue} }

// SwitchTo returns the decision to pre-empt the running thread for another
// runnable thread.
func SwitchTo(tid ThreadID) Decision { return Decision{kind: decisionSwitchTo, tid: tid} }

// IsContinue reports whether d is a Continue decision.
func (d Decision) IsContinue() bool { return d.kind == decisionContinue }

// IsSwitchTo reports whether d is a SwitchTo decision.
func (d Decision) IsSwitchTo() bool { return d.kind == decisionSwitchTo }

// IsStart reports whether d is a Start decision.
func (d Decision) IsStart() bool { return d.kind == decisionStart }

func (d Decision) String() string {
	switch d.kind {
	case decisionStart:
		return "start(" + itoa(int(d.tid)) + ")"
	case decisionSwitchTo:
		return "switch-to(" + itoa(int(d.tid)) + ")"
	default:
		return "continue"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TidOf recovers the thread identifier a decision refers to. default_ is
// returned for Continue, since it carries no tid of its own.
func TidOf(default_ ThreadID, d Decision) ThreadID {
	switch d.kind {
	case decisionStart, decisionSwitchTo:
		return d.tid
	default:
		return default_
	}
}

// DecisionOf classifies the transition from prior (the previously running
// thread, or nil if this is the first step) to chosen, given the set of
// threads that were runnable before the step.
//
//   - no prior                    -> Start(chosen)
//   - prior == chosen             -> Continue()
//   - prior runnable (but != chosen) -> SwitchTo(chosen)
//   - otherwise (prior not runnable) -> Start(chosen)
func DecisionOf(prior *ThreadID, runnable map[ThreadID]bool, chosen ThreadID) Decision {
	if prior == nil {
		return Start(chosen)
	}
	if *prior == chosen {
		return Continue()
	}
	if runnable[*prior] {
		return SwitchTo(chosen)
	}
	return Start(chosen)
}

// ActiveTid folds TidOf over a sequence of decisions. The sequence must
// begin with a Start; otherwise ActiveTid returns an *InvariantError (see
// errors.go), an internal error rather than a reportable trace outcome.
func ActiveTid(decisions []Decision) (ThreadID, error) {
	if len(decisions) == 0 || !decisions[0].IsStart() {
		return 0, newInvariantError("ActiveTid: sequence must begin with a Start decision")
	}
	tid := decisions[0].tid
	for _, d := range decisions[1:] {
		tid = TidOf(tid, d)
	}
	return tid, nil
}

// PreemptCount counts the SwitchTo occurrences in decisions. Decision alone
// does not record whether the pre-empted thread was about to yield (that is
// a property of the trace step's alternatives, not the decision), so every
// SwitchTo is counted; PreemptCountTrace refines this using the full trace.
// The bundled pre-emption bound's BoundOK uses this function.
func PreemptCount(decisions []Decision) int {
	n := 0
	for _, d := range decisions {
		if d.IsSwitchTo() {
			n++
		}
	}
	return n
}

// Alternative is one of the other runnable (tid, prospective-action) pairs
// recorded alongside a decision at the point it was made.
type Alternative struct {
	Tid    ThreadID
	Action Action
}

// TraceStep is one step of a completed execution: the decision made, the
// alternatives available at that point, and the action actually executed.
type TraceStep struct {
	Decision     Decision
	Alternatives []Alternative
	Action       Action
}

// Trace is a completed execution, position 0 always a Start decision.
type Trace []TraceStep

// String renders t as a compact sequence of its decisions, e.g.
// "start(0) switch-to(1) continue", for test failure messages and CLI
// output. Not the "format reports" surface §1's Non-goals exclude — that
// names an external report-generation subsystem, not ordinary Stringer
// support.
func (t Trace) String() string {
	var b []byte
	for i, step := range t {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, step.Decision.String()...)
	}
	return string(b)
}

// Decisions extracts the decision sequence from a trace.
func (t Trace) Decisions() []Decision {
	ds := make([]Decision, len(t))
	for i, s := range t {
		ds[i] = s.Decision
	}
	return ds
}

// PreemptCountTrace counts SwitchTo steps where the pre-empted thread was
// not about to stop or block on its own: its pending action, recorded among
// the step's alternatives, is neither a stop nor blocking. It is never
// higher than PreemptCount of the same decisions.
func PreemptCountTrace(t Trace) int {
	tids := traceTids(t)
	n := 0
	for i, step := range t {
		if !step.Decision.IsSwitchTo() || i == 0 {
			continue
		}
		yielding := false
		for _, alt := range step.Alternatives {
			if alt.Tid == tids[i-1] && (alt.Action.Kind == ActionStop || alt.Action.Blocking) {
				yielding = true
			}
		}
		if !yielding {
			n++
		}
	}
	return n
}

// traceTids recovers the thread identifier actually scheduled at each step
// of t, by folding TidOf across the decision sequence. It is the shared
// basis for FindBacktrackPoints' backward scan and the driver loop's
// backtrack scratch.
func traceTids(t Trace) []ThreadID {
	tids := make([]ThreadID, len(t))
	var prior *ThreadID
	for i, step := range t {
		tid := TidOf(derefOr(prior, 0), step.Decision)
		tids[i] = tid
		p := tid
		prior = &p
	}
	return tids
}
