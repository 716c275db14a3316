package exec

import "github.com/go-sct/sct"

// refCell is the untyped storage behind a Ref[T]; memory-model buffering
// (TSO/PSO) is implemented here since it is the memory model that decides
// which value a given thread's read observes.
type refCell struct {
	committed interface{}
	buffers   map[ThreadID]interface{} // per-thread pending write, TSO/PSO only
}

// Ref is a plain shared reference: reads and writes to it are classified
// by the dependency relation as ActionReadRef/ActionWriteRef (§4.4), and
// are the source of the classic unsynchronised data race.
type Ref[T any] struct {
	id int
	m  refOwner
}

type refOwner interface {
	propose(tid ThreadID, action sct.Action, reclassify func() sct.Action) bool
	readRef(tid ThreadID, id int) interface{}
	writeRef(tid ThreadID, id int, v interface{})
	flushRef(tid ThreadID, id int)
}

// NewRef allocates a fresh shared reference initialised to v. Allocation
// itself is not a schedulable action (it is pure thread-local bookkeeping
// until the reference is shared, matching dejafu's newCRef).
func NewRef[T any](h *Handle, v T) *Ref[T] {
	fm := h.m.(refAllocator)
	id := fm.allocRef(v)
	return &Ref[T]{id: id, m: h.m.(refOwner)}
}

type refAllocator interface {
	allocRef(v interface{}) int
}

// Read proposes, then commits, a read of r, returning the value the
// configured memory model says h's thread currently observes.
func (r *Ref[T]) Read(h *Handle) T {
	look := sct.Action{Kind: sct.ActionReadRef, RefID: r.id}
	ok := h.m.(refOwner).propose(h.tid, look, func() sct.Action { return look })
	if !ok {
		var zero T
		return zero
	}
	v := r.m.readRef(h.tid, r.id)
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Write proposes, then commits, a write of v to r.
func (r *Ref[T]) Write(h *Handle, v T) {
	look := sct.Action{Kind: sct.ActionWriteRef, RefID: r.id}
	ok := h.m.(refOwner).propose(h.tid, look, func() sct.Action { return look })
	if !ok {
		return
	}
	r.m.writeRef(h.tid, r.id, v)
}

func (m *Machine[S]) allocRef(v interface{}) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextRef
	m.nextRef++
	m.refs[id] = &refCell{committed: v}
	return id
}

// readRef returns the value the memory model says tid observes: its own
// most recent buffered write if one exists (TSO/PSO let a thread see its
// own writes immediately), else the last committed value.
func (m *Machine[S]) readRef(tid ThreadID, id int) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := m.refs[id]
	if m.mem != nil && m.mem.buffersWrites() {
		if v, ok := cell.buffers[tid]; ok {
			return v
		}
	}
	return cell.committed
}

// writeRef commits v for tid, either immediately (sequential consistency)
// or into tid's per-ref write buffer (TSO/PSO), where it stays until
// FlushRef commits it.
func (m *Machine[S]) writeRef(tid ThreadID, id int, v interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := m.refs[id]
	if m.mem != nil && m.mem.buffersWrites() {
		if cell.buffers == nil {
			cell.buffers = map[ThreadID]interface{}{}
		}
		cell.buffers[tid] = v
		if m.mem.flushesEagerly() {
			cell.committed = v
			delete(cell.buffers, tid)
		}
		return
	}
	cell.committed = v
}

// FlushRef forces tid's buffered write to id (if any) to become visible to
// every other thread, modelling an explicit memory fence. Sequential
// consistency makes this a no-op since writes are never buffered.
func FlushRef[T any](h *Handle, r *Ref[T]) {
	h.m.(refOwner).flushRef(h.tid, r.id)
}

func (m *Machine[S]) flushRef(tid ThreadID, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell := m.refs[id]
	if v, ok := cell.buffers[tid]; ok {
		cell.committed = v
		delete(cell.buffers, tid)
	}
}
