package exec

import (
	"sort"

	"github.com/go-sct/sct"
)

// tvarCell is the untyped storage behind a TVar[T].
type tvarCell struct {
	value interface{}
}

// TVar is a transactional variable: reads and writes only happen inside
// Atomically. Two transactions are dependent iff the sets of TVars they
// touch intersect (§4.4).
type TVar[T any] struct {
	id int
}

type tvarAllocator interface {
	allocTVar(v interface{}) int
}

// NewTVar allocates a fresh transactional variable initialised to v.
func NewTVar[T any](h *Handle, v T) *TVar[T] {
	fm := h.m.(tvarAllocator)
	return &TVar[T]{id: fm.allocTVar(v)}
}

type tvarReader interface {
	readTVarCommitted(id int) interface{}
}

// Tx is the transaction handle a function passed to Atomically receives.
// Atomically runs fn twice: once as a dry trial (to classify whether the
// transaction would retry, and which TVars it touches, before the
// scheduler is even asked to consider it) and, only if granted a turn,
// once for real against live TVar state. Both runs see the same committed
// values, since no other thread mutates shared state between them (every
// other thread is blocked on its own resume channel for the duration).
type Tx struct {
	trial   bool
	reads   map[int]interface{}
	writes  map[int]interface{}
	touched map[int]bool
	owner   tvarReader
}

// retrySentinel is panicked by Retry and recovered by the trial runner in
// trialSTM; it never escapes a real (non-trial) Atomically call, since a
// transaction that would retry is never granted a turn (Machine.Run does
// not offer a thread with a blocking action to the scheduler).
var retrySentinel = new(int)

// Retry aborts the current transaction attempt, reporting it as blocked
// until one of the TVars it has read so far changes. Calling it outside
// Atomically's dynamic extent is a programming error.
func Retry(tx *Tx) {
	panic(retrySentinel)
}

// ReadTVar reads v's current value within tx, recording v as touched.
func ReadTVar[T any](tx *Tx, v *TVar[T]) T {
	tx.touched[v.id] = true
	if val, ok := tx.writes[v.id]; ok {
		return val.(T)
	}
	if val, ok := tx.reads[v.id]; ok {
		return val.(T)
	}
	val := tx.owner.readTVarCommitted(v.id)
	tx.reads[v.id] = val
	if val == nil {
		var zero T
		return zero
	}
	return val.(T)
}

// WriteTVar stages val as v's new value within tx, recording v as touched.
// The write only becomes visible to other threads when tx commits, at the
// end of a (non-trial) Atomically call.
func WriteTVar[T any](tx *Tx, v *TVar[T], val T) {
	tx.touched[v.id] = true
	tx.writes[v.id] = val
}

type atomicOwner interface {
	trialSTM(thunk func(tx *Tx)) (blocking bool, touched []int)
	newTx() *Tx
	commitTx(tx *Tx)
}

// Atomically executes fn as a single STM transaction: a schedulable unit
// (§4.4's ActionSTM) atomic with respect to every other thread. R cannot be
// a method type parameter (Go forbids generic methods), so Atomically is a
// free function parameterised over the transaction's result type.
func Atomically[R any](h *Handle, fn func(tx *Tx) R) R {
	ao := h.m.(atomicOwner)
	thunk := func(tx *Tx) { fn(tx) }
	look := sct.Action{Kind: sct.ActionSTM}
	ok := h.m.propose(h.tid, look, func() sct.Action {
		blocking, touched := ao.trialSTM(thunk)
		return sct.Action{Kind: sct.ActionSTM, TxRefs: touched, Blocking: blocking}
	})
	if !ok {
		var zero R
		return zero
	}
	tx := ao.newTx()
	result := fn(tx)
	ao.commitTx(tx)
	return result
}

func (m *Machine[S]) allocTVar(v interface{}) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextTVar
	m.nextTVar++
	m.tvars[id] = &tvarCell{value: v}
	return id
}

func (m *Machine[S]) readTVarCommitted(id int) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tvars[id].value
}

// trialSTM runs thunk as a dry run against committed TVar state, recovering
// a Retry panic to report the transaction as currently blocked rather than
// propagating it. It performs no commit; newTx/commitTx do that for a
// granted attempt.
func (m *Machine[S]) trialSTM(thunk func(tx *Tx)) (blocking bool, touched []int) {
	tx := &Tx{trial: true, reads: map[int]interface{}{}, writes: map[int]interface{}{}, touched: map[int]bool{}, owner: m}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if r == interface{}(retrySentinel) {
					blocking = true
					return
				}
				panic(r)
			}
		}()
		thunk(tx)
	}()
	touched = touchedList(tx.touched)
	return blocking, touched
}

func (m *Machine[S]) newTx() *Tx {
	return &Tx{reads: map[int]interface{}{}, writes: map[int]interface{}{}, touched: map[int]bool{}, owner: m}
}

func (m *Machine[S]) commitTx(tx *Tx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range tx.writes {
		m.tvars[id].value = v
	}
}

func touchedList(touched map[int]bool) []int {
	out := make([]int, 0, len(touched))
	for id := range touched {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
