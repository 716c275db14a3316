package effect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Recording is one captured invocation of a lifted effect, the unit
// RecordingRunner produces and ReplayingRunner consumes. It mirrors
// graph.RecordedIO's fields, keyed by (ThreadID, Name, Seq) instead of
// (NodeID, Attempt) since a thread may lift the same named effect more than
// once over its lifetime.
type Recording struct {
	ThreadID  int
	Name      string
	Seq       int
	Request   []byte
	Response  []byte
	Err       string // empty if the call succeeded
	Hash      string
	Timestamp time.Time
	Duration  time.Duration
}

func hashResponse(resp []byte) string {
	sum := sha256.Sum256(resp)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func callKey(threadID int, name string) string {
	return fmt.Sprintf("%d\x00%s", threadID, name)
}

// RecordingRunner always performs the real call, then files away a
// Recording of it. A search typically wraps the very first exploration of
// a computation in a RecordingRunner, then feeds its Recordings() into a
// ReplayingRunner for every subsequent replay of the same prefix.
type RecordingRunner struct {
	mu         sync.Mutex
	seq        map[string]int
	recordings []Recording
	now        func() time.Time
}

// NewRecordingRunner returns a Runner that performs every call for real and
// records the outcome.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{seq: map[string]int{}, now: time.Now}
}

// Invoke performs do for real, then records it under call's (ThreadID,
// Name, sequence-number-within-that-pair) key.
func (r *RecordingRunner) Invoke(ctx context.Context, call Call, do func(ctx context.Context) ([]byte, error)) (Result, error) {
	start := r.now()
	resp, err := do(ctx)
	dur := r.now().Sub(start)

	rec := Recording{
		ThreadID:  call.ThreadID,
		Name:      call.Name,
		Seq:       r.nextSeq(call),
		Request:   call.Request,
		Response:  resp,
		Hash:      hashResponse(resp),
		Timestamp: r.now(),
		Duration:  dur,
	}
	if err != nil {
		rec.Err = err.Error()
	}

	r.mu.Lock()
	r.recordings = append(r.recordings, rec)
	r.mu.Unlock()

	return Result{Response: resp, Err: err}, nil
}

// Recordings returns a copy of every call recorded so far, in the order
// they were made.
func (r *RecordingRunner) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, len(r.recordings))
	copy(out, r.recordings)
	return out
}

func (r *RecordingRunner) nextSeq(call Call) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := callKey(call.ThreadID, call.Name)
	seq := r.seq[key]
	r.seq[key] = seq + 1
	return seq
}
