package effect

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ReplayingRunner answers every Invoke from a fixed set of prior
// Recordings instead of calling do, so a search can re-run a schedule
// prefix that reaches a lift site without re-invoking the real effect.
// Calls are matched in the same (ThreadID, Name)-scoped sequence order
// they were recorded in, mirroring lookupRecordedIO's (nodeID, attempt)
// lookup.
type ReplayingRunner struct {
	mu         sync.Mutex
	byKey      map[string][]Recording
	seq        map[string]int
	verifyLive bool
}

// NewReplayingRunner returns a Runner that replays recordings instead of
// performing the real call.
func NewReplayingRunner(recordings []Recording) *ReplayingRunner {
	byKey := map[string][]Recording{}
	for _, rec := range recordings {
		key := callKey(rec.ThreadID, rec.Name)
		byKey[key] = append(byKey[key], rec)
	}
	return &ReplayingRunner{byKey: byKey, seq: map[string]int{}}
}

// NewVerifyingReplayingRunner behaves like NewReplayingRunner, but also
// invokes do for real on every call and reports ErrRecordingMismatch if its
// response hash disagrees with the recording, catching an effect that
// turned out not to be deterministic.
func NewVerifyingReplayingRunner(recordings []Recording) *ReplayingRunner {
	r := NewReplayingRunner(recordings)
	r.verifyLive = true
	return r
}

func (r *ReplayingRunner) Invoke(ctx context.Context, call Call, do func(ctx context.Context) ([]byte, error)) (Result, error) {
	key := callKey(call.ThreadID, call.Name)

	r.mu.Lock()
	seq := r.seq[key]
	r.seq[key] = seq + 1
	recs := r.byKey[key]
	r.mu.Unlock()

	if seq >= len(recs) {
		return Result{}, fmt.Errorf("%w: thread %d %q (call #%d)", ErrNoRecording, call.ThreadID, call.Name, seq)
	}
	rec := recs[seq]

	if r.verifyLive {
		resp, err := do(ctx)
		if err == nil {
			if h := hashResponse(resp); h != rec.Hash {
				return Result{}, fmt.Errorf("%w: thread %d %q (call #%d): expected %s, got %s",
					ErrRecordingMismatch, call.ThreadID, call.Name, seq, rec.Hash, h)
			}
		}
	}

	var err error
	if rec.Err != "" {
		err = errors.New(rec.Err)
	}
	return Result{Response: rec.Response, Err: err}, nil
}
