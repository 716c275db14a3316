package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store, for searches that
// need to survive process restarts or be resumed by a different worker.
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// required schema exists.
//
//	store, err := NewMySQLStore(os.Getenv("MYSQL_DSN"))
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m := &MySQLStore{db: db}
	if err := m.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return m, nil
}

func (m *MySQLStore) createTables(ctx context.Context) error {
	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS search_checkpoints (
			search_id VARCHAR(255) NOT NULL PRIMARY KEY,
			snapshot JSON NOT NULL,
			idempotency_key VARCHAR(255) NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			INDEX idx_idempotency_key (idempotency_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create search_checkpoints table: %w", err)
	}

	idempotencyTable := `
		CREATE TABLE IF NOT EXISTS idempotency_keys (
			key_value VARCHAR(255) NOT NULL PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, idempotencyTable); err != nil {
		return fmt.Errorf("failed to create idempotency_keys table: %w", err)
	}
	return nil
}

// SaveCheckpoint persists checkpoint, replacing any prior checkpoint saved
// for the same SearchID, and records its idempotency key in the same
// transaction.
func (m *MySQLStore) SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	snapshotJSON, err := json.Marshal(checkpoint.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
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
		ON DUPLICATE KEY UPDATE
			snapshot = VALUES(snapshot),
			idempotency_key = VALUES(idempotency_key),
			timestamp = VALUES(timestamp)
	`
	if _, err = tx.ExecContext(ctx, query, checkpoint.SearchID, snapshotJSON, checkpoint.IdempotencyKey, checkpoint.Timestamp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if checkpoint.IdempotencyKey != "" {
		if _, err = tx.ExecContext(ctx, "INSERT IGNORE INTO idempotency_keys (key_value) VALUES (?)", checkpoint.IdempotencyKey); err != nil {
			return fmt.Errorf("failed to record idempotency key: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves the most recently saved checkpoint for searchID.
func (m *MySQLStore) LoadCheckpoint(ctx context.Context, searchID string) (Checkpoint, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return Checkpoint{}, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT search_id, snapshot, idempotency_key, timestamp
		FROM search_checkpoints
		WHERE search_id = ?
	`
	var (
		cp           Checkpoint
		snapshotJSON []byte
	)
	err := m.db.QueryRowContext(ctx, query, searchID).Scan(&cp.SearchID, &snapshotJSON, &cp.IdempotencyKey, &cp.Timestamp)
	if err == sql.ErrNoRows {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := json.Unmarshal(snapshotJSON, &cp.Snapshot); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return cp, nil
}

// CheckIdempotency reports whether key has already been committed.
func (m *MySQLStore) CheckIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return false, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM idempotency_keys WHERE key_value = ?", key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	return count > 0, nil
}

// Close closes the connection pool. Safe to call more than once.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return m.db.PingContext(ctx)
}

// Stats returns connection pool statistics, useful for health checks.
func (m *MySQLStore) Stats() sql.DBStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Stats()
}
