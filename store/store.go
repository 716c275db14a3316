// Package store provides persistence for a bounded search's progress.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested search ID has no checkpoint.
var ErrNotFound = errors.New("not found")

// Store persists bounded-search checkpoints: a point-in-time snapshot of
// the DPOR tree plus its pending frontier, keyed by a user-supplied search
// identifier. It lets a long-running bounded search resume after a crash,
// or be handed off between worker processes.
//
// Implementations can use in-memory storage (memory.go, for tests and
// short-lived searches), a relational database (sqlite.go, mysql.go), or
// any other backend; a Store is otherwise agnostic about the search.
type Store interface {
	// SaveCheckpoint persists checkpoint, replacing any previous checkpoint
	// saved under the same SearchID.
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error

	// LoadCheckpoint retrieves the most recently saved checkpoint for
	// searchID. Returns ErrNotFound if none exists.
	LoadCheckpoint(ctx context.Context, searchID string) (Checkpoint, error)

	// CheckIdempotency reports whether key has already been committed, to
	// prevent a crash-recovery retry from double-applying a checkpoint.
	CheckIdempotency(ctx context.Context, key string) (bool, error)
}

// Checkpoint is a persisted snapshot of one bounded search's progress.
type Checkpoint struct {
	// SearchID identifies the bounded search this checkpoint belongs to.
	SearchID string `json:"search_id"`

	// Snapshot holds the DPOR tree's serialised form (sct.Snapshot). It is
	// kept as interface{} here — mirroring the pattern the teacher's own
	// CheckpointV2 uses for its Frontier and RecordedIOs fields — so this
	// package never needs to import the core, which would otherwise create
	// an import cycle (the core imports store to offer sct.WithStore).
	// Callers marshal/unmarshal the concrete sct.Snapshot themselves.
	Snapshot interface{} `json:"snapshot"`

	// IdempotencyKey lets CheckIdempotency detect a checkpoint that was
	// already committed. RunConfigured sets it to the SHA-256 of the
	// snapshot's JSON encoding; SearchID is not part of the hash.
	IdempotencyKey string `json:"idempotency_key"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`
}
