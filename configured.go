package sct

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sct/sct/emit"
	"github.com/go-sct/sct/store"
)

// RunConfigured drives the same fix-point loop as RunBounded, wired through
// a Config (§7, built via NewConfig/functional options): every iteration
// emits an observability event and updates metrics, MaxTraces is enforced
// (Config.StepBudget is not read here), and — when both Store and SearchID
// are set — the tree's frontier is checkpointed after every iteration and restored
// from any existing checkpoint before the search begins, letting a
// long-running bounded search resume after a crash (§E.3).
func RunConfigured[V any](ctx context.Context, cfg Config, rootTid ThreadID, mem MemoryModel, run RunOnce[V]) ([]Result[V], error) {
	if cfg.Bound == nil {
		return nil, fmt.Errorf("sct: RunConfigured requires a Bound (see WithBound)")
	}
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	tree := NewTree(rootTid)
	resuming := false
	if cfg.Store != nil && cfg.SearchID != "" {
		cp, err := cfg.Store.LoadCheckpoint(ctx, cfg.SearchID)
		switch {
		case err == nil:
			snap, ok := cp.Snapshot.(Snapshot)
			if !ok {
				// A checkpoint written by another process round-trips through
				// JSON, not a live Snapshot value; decode it that way too.
				snap, err = decodeSnapshot(cp.Snapshot)
				if err != nil {
					return nil, fmt.Errorf("sct: decoding checkpoint %q: %w", cfg.SearchID, err)
				}
			}
			tree = RestoreTree(snap)
			resuming = true
		case errors.Is(err, store.ErrNotFound):
			// First run under this SearchID; start from a fresh tree.
		default:
			return nil, fmt.Errorf("sct: loading checkpoint %q: %w", cfg.SearchID, err)
		}
	}

	emitter.Emit(emit.Event{SearchID: cfg.SearchID, Msg: "search_start", Meta: map[string]interface{}{"resumed": resuming}})

	sched := ReplayScheduler{Bound: cfg.Bound}
	var results []Result[V]
	iteration := 0

	for {
		if cfg.MaxTraces > 0 && len(results) >= cfg.MaxTraces {
			emitter.Emit(emit.Event{SearchID: cfg.SearchID, Iteration: iteration, Msg: "max_traces_reached"})
			break
		}

		prefix, conservative, tid, ok := tree.Next()
		if !ok {
			break
		}
		iteration++
		iterStart := time.Now()

		replay := pathTids(prefix)
		if len(prefix) > 0 {
			// Schedule the claimed tid right after the prefix, as RunBounded does.
			replay = append(replay, tid)
		}
		initial := NewSchedState(replay, mem)
		outcome, _, trace := run(sched, initial)

		if len(trace) == 0 || !trace[0].Decision.IsStart() {
			return results, newInvariantErrorf("RunConfigured", "engine returned a trace not beginning with Start (len=%d)", len(trace))
		}

		tids := traceTids(trace)
		if len(prefix) >= len(tids) || tids[len(prefix)] != tid {
			tree.Reinstate(prefix, tid, conservative)
		}

		requests := FindBacktrackPoints(trace)
		requests = cfg.Bound.BacktrackFn(backtrackScratch(trace), requests)

		tree.Graft(conservative, trace)
		sleepPrunes := tree.InsertTodo(cfg.Bound.BoundOK, requests)

		results = append(results, Result[V]{Outcome: outcome, Trace: userTrace(trace)})

		if cfg.Metrics != nil {
			cfg.Metrics.RecordNodeExplored()
			cfg.Metrics.RecordTrace(outcome.Err.String())
			cfg.Metrics.RecordIterationLatency(time.Since(iterStart))
			cfg.Metrics.UpdateFrontierDepth(tree.FrontierDepth())
			for i := 0; i < sleepPrunes; i++ {
				cfg.Metrics.IncrementSleepPrunes()
			}
			for _, req := range requests {
				kind := "precise"
				if req.Conservative {
					kind = "conservative"
				}
				cfg.Metrics.IncrementBacktrackPoints(kind)
			}
		}

		emitter.Emit(emit.Event{
			SearchID:  cfg.SearchID,
			Iteration: iteration,
			Msg:       "trace_result",
			Meta: map[string]interface{}{
				"failure":     outcome.Err.String(),
				"backtracks":  len(requests),
				"duration_ms": time.Since(iterStart).Milliseconds(),
			},
		})

		if cfg.Store != nil && cfg.SearchID != "" {
			if err := checkpointTree(ctx, cfg, tree); err != nil {
				return results, fmt.Errorf("sct: checkpointing search %q: %w", cfg.SearchID, err)
			}
		}
	}

	emitter.Emit(emit.Event{SearchID: cfg.SearchID, Iteration: iteration, Msg: "search_complete", Meta: map[string]interface{}{"traces": len(results)}})
	if err := emitter.Flush(ctx); err != nil {
		return results, fmt.Errorf("sct: flushing emitter: %w", err)
	}
	return results, nil
}

// checkpointTree persists tree's current frontier under cfg.SearchID,
// computing an idempotency key from the snapshot's content so a
// crash-recovery retry of the same save is detectable by CheckIdempotency.
func checkpointTree(ctx context.Context, cfg Config, tree *Tree) error {
	snap := tree.Snapshot()
	encoded, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return cfg.Store.SaveCheckpoint(ctx, store.Checkpoint{
		SearchID:       cfg.SearchID,
		Snapshot:       snap,
		IdempotencyKey: hex.EncodeToString(sum[:]),
		Timestamp:      time.Now(),
	})
}

// decodeSnapshot recovers a Snapshot from whatever shape a Store round-trips
// interface{} values through (JSON-backed stores marshal/unmarshal the
// Checkpoint wholesale, so Snapshot may come back as a generic
// map[string]interface{} tree rather than the concrete type).
func decodeSnapshot(raw interface{}) (Snapshot, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(encoded, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
