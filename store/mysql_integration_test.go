package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// TestMySQLIntegration exercises MySQLStore against a real database.
//
// Prerequisites:
//   - MySQL server running (local, Docker, or cloud).
//   - TEST_MYSQL_DSN environment variable set, e.g.:
//     export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/test_db?parseTime=true"
func TestMySQLIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL integration test: set TEST_MYSQL_DSN to run")
	}

	ctx := context.Background()
	s, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore failed: %v", err)
	}
	defer s.Close()

	searchID := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	cp := Checkpoint{
		SearchID:       searchID,
		Snapshot:       map[string]interface{}{"frontier": []interface{}{"node-a"}},
		IdempotencyKey: searchID + "-key",
		Timestamp:      time.Now().UTC(),
	}

	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := s.LoadCheckpoint(ctx, searchID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.IdempotencyKey != cp.IdempotencyKey {
		t.Errorf("IdempotencyKey = %q, want %q", loaded.IdempotencyKey, cp.IdempotencyKey)
	}

	exists, err := s.CheckIdempotency(ctx, cp.IdempotencyKey)
	if err != nil {
		t.Fatalf("CheckIdempotency failed: %v", err)
	}
	if !exists {
		t.Error("expected idempotency key to be recorded")
	}
}
