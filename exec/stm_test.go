package exec

import (
	"testing"

	"github.com/go-sct/sct"
)

// TestAtomicallyPreventsLostUpdate runs two threads each incrementing a
// shared counter through a transaction; unlike two unsynchronised
// Read-then-Write Ref ops, no interleaving should ever lose an increment,
// since the whole read-modify-write is one atomic unit (§4.4: any two
// transactions touching the same TVar are dependent).
func TestAtomicallyPreventsLostUpdate(t *testing.T) {
	comp := func(h *Handle) (int, error) {
		counter := NewTVar(h, 0)
		increment := func(ch *Handle) {
			Atomically(ch, func(tx *Tx) struct{} {
				v := ReadTVar(tx, counter)
				WriteTVar(tx, counter, v+1)
				return struct{}{}
			})
		}
		done := NewMVar[struct{}](h)
		h.Fork(func(ch *Handle) {
			increment(ch)
			done.Put(ch, struct{}{})
		})
		increment(h)
		done.Take(h)
		return Atomically(h, func(tx *Tx) int { return ReadTVar(tx, counter) }), nil
	}

	results := runAll(t, 1, comp, NewSequentialConsistency())
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, res := range results {
		if res.Outcome.Failed {
			t.Fatalf("run failed: %s", res.Outcome.Err)
		}
		if res.Outcome.Value != 2 {
			t.Fatalf("counter = %d, want 2 on every interleaving", res.Outcome.Value)
		}
	}
}

// TestAtomicallyRetryBlocksUntilConditionHolds implements a bounded
// rendezvous purely with TVars and Retry: the consumer retries until the
// producer's transaction has written a value.
func TestAtomicallyRetryBlocksUntilConditionHolds(t *testing.T) {
	comp := func(h *Handle) (int, error) {
		ready := NewTVar(h, false)
		slot := NewTVar(h, 0)

		h.Fork(func(ch *Handle) {
			Atomically(ch, func(tx *Tx) struct{} {
				WriteTVar(tx, slot, 9)
				WriteTVar(tx, ready, true)
				return struct{}{}
			})
		})

		return Atomically(h, func(tx *Tx) int {
			if !ReadTVar(tx, ready) {
				Retry(tx)
			}
			return ReadTVar(tx, slot)
		}), nil
	}

	results := runAll(t, 1, comp, NewSequentialConsistency())
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, res := range results {
		if res.Outcome.Failed {
			t.Fatalf("run failed: %s", res.Outcome.Err)
		}
		if res.Outcome.Value != 9 {
			t.Fatalf("value = %d, want 9", res.Outcome.Value)
		}
	}
}

func TestAtomicallyRetryWithNoWriterIsSTMDeadlock(t *testing.T) {
	comp := func(h *Handle) (int, error) {
		v := NewTVar(h, 0)
		return Atomically(h, func(tx *Tx) int {
			_ = ReadTVar(tx, v)
			Retry(tx)
			return 0
		}), nil
	}

	results := runAll(t, 0, comp, NewSequentialConsistency())
	if len(results) != 1 || !results[0].Outcome.Failed || results[0].Outcome.Err != sct.FailureSTMDeadlock {
		t.Fatalf("results = %+v, want a single FailureSTMDeadlock outcome", results)
	}
}
