package sct

import "fmt"

// ThreadID identifies a schedulable thread of execution. It is opaque,
// ordered and hashable: the engine never mints these values itself, the
// execution engine does (see package exec).
type ThreadID int

// ActionKind classifies what a thread did (or would do next) in one step.
// The set is closed: the dependency relation in Dependent is a table over
// exactly these kinds, and new primitive kinds must be added here before
// they can be reasoned about.
type ActionKind int

const (
	// ActionUnknown is the zero value and never appears in a real trace.
	ActionUnknown ActionKind = iota

	// ActionReadRef reads a plain shared reference.
	ActionReadRef
	// ActionWriteRef writes a plain shared reference.
	ActionWriteRef

	// ActionTakeMVar takes (and empties) a synchronising variable.
	ActionTakeMVar
	// ActionPutMVar puts a value into a synchronising variable.
	ActionPutMVar

	// ActionSTM executes a software-transactional-memory transaction that
	// touched the transactional variables named in Action.TxRefs.
	ActionSTM

	// ActionSpawn creates a new thread, identified by Action.Child.
	ActionSpawn
	// ActionStop marks the normal or exceptional termination of a thread.
	ActionStop

	// ActionLiftExternal performs an opaque, side-effecting computation
	// grounded through an effect.Runner.
	ActionLiftExternal
)

func (k ActionKind) String() string {
	switch k {
	case ActionReadRef:
		return "read-ref"
	case ActionWriteRef:
		return "write-ref"
	case ActionTakeMVar:
		return "take-mvar"
	case ActionPutMVar:
		return "put-mvar"
	case ActionSTM:
		return "stm"
	case ActionSpawn:
		return "spawn"
	case ActionStop:
		return "stop"
	case ActionLiftExternal:
		return "lift-external"
	default:
		return "unknown"
	}
}

// Action is a classified description of what a thread did in one step, or
// (when reported as a lookahead, before the step is committed) what it
// would do next. The two variants share this type; Action does not carry
// the value read or written, only enough identity for the dependency
// relation (§4.4) to classify the pair.
type Action struct {
	// Kind classifies the action.
	Kind ActionKind

	// RefID identifies the shared reference touched by ActionReadRef /
	// ActionWriteRef. Zero for other kinds.
	RefID int

	// MVarID identifies the synchronising variable touched by
	// ActionTakeMVar / ActionPutMVar. Zero for other kinds.
	MVarID int

	// TxRefs lists the transactional variables an ActionSTM transaction
	// touched (read or wrote). Unordered; compared as a set.
	TxRefs []int

	// Child is the thread ActionSpawn created. Zero for other kinds.
	Child ThreadID

	// Blocking is true when this action, if scheduled, would block the
	// thread indefinitely given the current memory state (e.g. taking an
	// empty m-var nothing will ever fill). Only meaningful on lookahead
	// actions; see MemoryModel.WillBlockSafely.
	Blocking bool
}

func (a Action) String() string {
	switch a.Kind {
	case ActionReadRef:
		return fmt.Sprintf("read ref(%d)", a.RefID)
	case ActionWriteRef:
		return fmt.Sprintf("write ref(%d)", a.RefID)
	case ActionTakeMVar:
		return fmt.Sprintf("take mvar(%d)", a.MVarID)
	case ActionPutMVar:
		return fmt.Sprintf("put mvar(%d)", a.MVarID)
	case ActionSTM:
		return fmt.Sprintf("stm%v", a.TxRefs)
	case ActionSpawn:
		return fmt.Sprintf("spawn(%d)", a.Child)
	case ActionStop:
		return "stop"
	case ActionLiftExternal:
		return "lift-external"
	default:
		return "unknown"
	}
}

// Dependent reports whether two actions, performed by threads t1 and t2
// (t1 != t2), cannot be commuted without changing the observable result.
// It implements the closed table of §4.4. The thread identifiers are only
// needed to resolve the spawn/stop rows ("spawn t: any action of t is
// dependent", "stop of t: any action of t is dependent"); every other row
// depends only on the actions' target refs/m-vars/transaction sets.
func Dependent(t1 ThreadID, a1 Action, t2 ThreadID, a2 Action) bool {
	switch {
	case a1.Kind == ActionReadRef && a2.Kind == ActionWriteRef,
		a1.Kind == ActionWriteRef && a2.Kind == ActionReadRef:
		return a1.RefID == a2.RefID
	case a1.Kind == ActionWriteRef && a2.Kind == ActionWriteRef:
		return a1.RefID == a2.RefID
	case a1.Kind == ActionTakeMVar && a2.Kind == ActionPutMVar,
		a1.Kind == ActionPutMVar && a2.Kind == ActionTakeMVar:
		return a1.MVarID == a2.MVarID
	case a1.Kind == ActionPutMVar && a2.Kind == ActionPutMVar:
		return a1.MVarID == a2.MVarID
	case a1.Kind == ActionTakeMVar && a2.Kind == ActionTakeMVar:
		return a1.MVarID == a2.MVarID
	case a1.Kind == ActionSpawn && a1.Child == t2:
		return true
	case a2.Kind == ActionSpawn && a2.Child == t1:
		return true
	case a1.Kind == ActionStop && a2.Kind == ActionStop:
		return false
	case a1.Kind == ActionStop:
		// A stop is dependent with any later action of the same thread
		// (impossible, program order already fixes it) and with the spawn
		// that created it, handled above; otherwise a stop alone does not
		// force re-ordering.
		return false
	case a2.Kind == ActionStop:
		return false
	case a1.Kind == ActionSTM && a2.Kind == ActionSTM:
		return refSetsIntersect(a1.TxRefs, a2.TxRefs)
	default:
		return false
	}
}

func refSetsIntersect(a, b []int) bool {
	set := make(map[int]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}
