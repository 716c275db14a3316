package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemStoreSaveLoadCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.LoadCheckpoint(ctx, "search-001")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	cp := Checkpoint{
		SearchID:       "search-001",
		Snapshot:       map[string]interface{}{"todo": []string{"t1", "t2"}},
		IdempotencyKey: "key-1",
		Timestamp:      time.Now(),
	}
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := s.LoadCheckpoint(ctx, "search-001")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.IdempotencyKey != "key-1" {
		t.Errorf("IdempotencyKey = %q, want %q", loaded.IdempotencyKey, "key-1")
	}

	cp2 := cp
	cp2.IdempotencyKey = "key-2"
	if err := s.SaveCheckpoint(ctx, cp2); err != nil {
		t.Fatalf("SaveCheckpoint (update) failed: %v", err)
	}
	loaded, _ = s.LoadCheckpoint(ctx, "search-001")
	if loaded.IdempotencyKey != "key-2" {
		t.Errorf("expected overwritten checkpoint, got key %q", loaded.IdempotencyKey)
	}
}

func TestMemStoreCheckIdempotency(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	exists, err := s.CheckIdempotency(ctx, "unused")
	if err != nil {
		t.Fatalf("CheckIdempotency failed: %v", err)
	}
	if exists {
		t.Error("expected unused key to be false")
	}

	_ = s.SaveCheckpoint(ctx, Checkpoint{SearchID: "s1", IdempotencyKey: "seen", Timestamp: time.Now()})

	exists, err = s.CheckIdempotency(ctx, "seen")
	if err != nil {
		t.Fatalf("CheckIdempotency failed: %v", err)
	}
	if !exists {
		t.Error("expected seen key to be true")
	}
}

func TestMemStoreConcurrentUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.SaveCheckpoint(ctx, Checkpoint{SearchID: "shared", IdempotencyKey: "k", Timestamp: time.Now()})
			_, _ = s.LoadCheckpoint(ctx, "shared")
			_, _ = s.CheckIdempotency(ctx, "k")
		}(i)
	}
	wg.Wait()

	if _, err := s.LoadCheckpoint(ctx, "shared"); err != nil {
		t.Fatalf("expected checkpoint to exist after concurrent writes, got %v", err)
	}
}

func TestMemStoreInterfaceCompliance(t *testing.T) {
	var _ Store = (*MemStore)(nil)
}
