package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store, good for development,
// single-process searches and checkpoint-resume demos. Uses WAL mode for
// concurrent reads and a single writer connection, matching SQLite's own
// concurrency model.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (and if necessary creates) a SQLite-backed store at
// path. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS search_checkpoints (
			search_id TEXT NOT NULL PRIMARY KEY,
			snapshot TEXT NOT NULL,
			idempotency_key TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create search_checkpoints table: %w", err)
	}

	idempotencyTable := `
		CREATE TABLE IF NOT EXISTS idempotency_keys (
			key_value TEXT NOT NULL PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, idempotencyTable); err != nil {
		return fmt.Errorf("failed to create idempotency_keys table: %w", err)
	}
	return nil
}

// SaveCheckpoint persists checkpoint, replacing any prior checkpoint saved
// for the same SearchID, and records its idempotency key in the same
// transaction.
func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	snapshotJSON, err := json.Marshal(checkpoint.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO search_checkpoints (search_id, snapshot, idempotency_key, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(search_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			idempotency_key = excluded.idempotency_key,
			timestamp = excluded.timestamp
	`
	if _, err = tx.ExecContext(ctx, query, checkpoint.SearchID, string(snapshotJSON), checkpoint.IdempotencyKey, checkpoint.Timestamp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if checkpoint.IdempotencyKey != "" {
		if _, err = tx.ExecContext(ctx, "INSERT OR IGNORE INTO idempotency_keys (key_value) VALUES (?)", checkpoint.IdempotencyKey); err != nil {
			return fmt.Errorf("failed to record idempotency key: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves the most recently saved checkpoint for searchID.
func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, searchID string) (Checkpoint, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return Checkpoint{}, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `
		SELECT search_id, snapshot, idempotency_key, timestamp
		FROM search_checkpoints
		WHERE search_id = ?
	`
	var (
		cp           Checkpoint
		snapshotJSON string
	)
	err := s.db.QueryRowContext(ctx, query, searchID).Scan(&cp.SearchID, &snapshotJSON, &cp.IdempotencyKey, &cp.Timestamp)
	if err == sql.ErrNoRows {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &cp.Snapshot); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return cp, nil
}

// CheckIdempotency reports whether key has already been committed.
func (s *SQLiteStore) CheckIdempotency(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM idempotency_keys WHERE key_value = ?", key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return s.db.PingContext(ctx)
}
