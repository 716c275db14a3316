package exec

import "github.com/go-sct/sct"

// MemoryModel is exec's internal memory-model contract: it satisfies
// sct.MemoryModel (WillBlockSafely) for the replay scheduler, and exposes
// a couple of extra predicates Ref's read/write path consults to decide
// whether writes are buffered per-thread before becoming globally visible.
//
// Three instances are provided, matching §6: sequential consistency, total
// store order and partial store order. Both buffering models keep one
// pending write per (thread, ref), visible to its writer at once and to
// other threads only after FlushRef; MVar and STM operations do not flush
// it. TSO and PSO therefore behave identically here: neither keeps a FIFO
// order across a thread's buffered writes to different refs.
type MemoryModel interface {
	sct.MemoryModel
	buffersWrites() bool
	flushesEagerly() bool
}

// sequentialConsistency is the default, strongest model: every write is
// immediately visible to every thread.
type sequentialConsistency struct{}

// NewSequentialConsistency returns the SC memory model: reads always see
// the most recently committed write, and nothing ever blocks due to
// reference staleness.
func NewSequentialConsistency() MemoryModel { return sequentialConsistency{} }

func (sequentialConsistency) WillBlockSafely(look sct.Action) bool { return look.Blocking }
func (sequentialConsistency) buffersWrites() bool                  { return false }
func (sequentialConsistency) flushesEagerly() bool                 { return true }

// totalStoreOrder buffers each thread's writes per ref until an explicit
// FlushRef commits them. Its buffering is the same as partialStoreOrder's;
// a thread's buffered writes are not committed in FIFO order.
type totalStoreOrder struct{}

// NewTSO returns the total-store-order memory model.
func NewTSO() MemoryModel { return totalStoreOrder{} }

func (totalStoreOrder) WillBlockSafely(look sct.Action) bool { return look.Blocking }
func (totalStoreOrder) buffersWrites() bool                  { return true }
func (totalStoreOrder) flushesEagerly() bool                 { return false }

// partialStoreOrder buffers per (thread, ref) with no ordering guarantee
// across different refs, the weakest of the three models.
type partialStoreOrder struct{}

// NewPSO returns the partial-store-order memory model.
func NewPSO() MemoryModel { return partialStoreOrder{} }

func (partialStoreOrder) WillBlockSafely(look sct.Action) bool { return look.Blocking }
func (partialStoreOrder) buffersWrites() bool                  { return true }
func (partialStoreOrder) flushesEagerly() bool                 { return false }
