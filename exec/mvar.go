package exec

import "github.com/go-sct/sct"

// mvarCell is the untyped storage behind an MVar[T]: empty or holding
// exactly one value, matching Haskell's MVar semantics.
type mvarCell struct {
	full  bool
	value interface{}
}

// MVar is a synchronising variable: Take blocks while empty, Put blocks
// while full. Take/Put pairs on the same MVar are dependent (§4.4),
// making them the classic rendezvous and producer/consumer primitive.
type MVar[T any] struct {
	id int
	m  mvarOwner
}

type mvarOwner interface {
	propose(tid ThreadID, action sct.Action, reclassify func() sct.Action) bool
	mvarFull(id int) bool
	takeMVar(id int) interface{}
	putMVar(id int, v interface{})
}

// NewMVar allocates a fresh, empty synchronising variable.
func NewMVar[T any](h *Handle) *MVar[T] {
	fm := h.m.(mvarAllocator)
	id := fm.allocMVar()
	return &MVar[T]{id: id, m: h.m.(mvarOwner)}
}

type mvarAllocator interface {
	allocMVar() int
}

// Take removes and returns the value in v, blocking (at the scheduling
// level: reported as Blocking in the lookahead Action, so the replay
// scheduler never selects it while empty) until some thread performs Put.
func (v *MVar[T]) Take(h *Handle) T {
	mo := h.m.(mvarOwner)
	look := sct.Action{Kind: sct.ActionTakeMVar, MVarID: v.id}
	ok := mo.propose(h.tid, look, func() sct.Action {
		look.Blocking = !mo.mvarFull(v.id)
		return look
	})
	if !ok {
		var zero T
		return zero
	}
	val := mo.takeMVar(v.id)
	if val == nil {
		var zero T
		return zero
	}
	return val.(T)
}

// Put stores val in v, blocking while v is already full.
func (v *MVar[T]) Put(h *Handle, val T) {
	mo := h.m.(mvarOwner)
	look := sct.Action{Kind: sct.ActionPutMVar, MVarID: v.id}
	ok := mo.propose(h.tid, look, func() sct.Action {
		look.Blocking = mo.mvarFull(v.id)
		return look
	})
	if !ok {
		return
	}
	mo.putMVar(v.id, val)
}

func (m *Machine[S]) allocMVar() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextMVar
	m.nextMVar++
	m.mvars[id] = &mvarCell{}
	return id
}

func (m *Machine[S]) mvarFull(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mvars[id].full
}

func (m *Machine[S]) takeMVar(id int) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := m.mvars[id]
	v := cell.value
	cell.full = false
	cell.value = nil
	return v
}

func (m *Machine[S]) putMVar(id int, v interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := m.mvars[id]
	cell.full = true
	cell.value = v
}
