package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// It keeps daily quota counters durable across restarts and is suitable for
// single-instance deployments, matching the engine's one-authoritative-process
// model.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent performance.
type SQLiteStore struct {
	db *sql.DB

	getStmt     *sql.Stmt
	setStmt     *sql.Stmt
	cleanupStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite counter store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite counter store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a new SQLite counter store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the counter table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements pre-compiles the hot-path statements.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(
		`SELECT value, expires_at FROM counters WHERE name = ?`)
	if err != nil {
		return fmt.Errorf("prepare get: %w", err)
	}

	s.setStmt, err = s.db.Prepare(
		`INSERT INTO counters (name, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("prepare set: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(
		`DELETE FROM counters WHERE expires_at > 0 AND expires_at <= ?`)
	if err != nil {
		return fmt.Errorf("prepare cleanup: %w", err)
	}

	return nil
}

// Get returns the current value for a counter.
func (s *SQLiteStore) Get(ctx context.Context, name string) (int64, bool, error) {
	var value, expiresAt int64
	err := s.getStmt.QueryRowContext(ctx, name).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load counter %q: %w", name, err)
	}
	if expiresAt > 0 && expiresAt <= time.Now().UnixMilli() {
		return 0, false, nil
	}
	return value, true, nil
}

// Set overwrites a counter with the given value and TTL.
func (s *SQLiteStore) Set(ctx context.Context, name string, value int64, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}
	if _, err := s.setStmt.ExecContext(ctx, name, value, expiresAt); err != nil {
		return fmt.Errorf("failed to save counter %q: %w", name, err)
	}
	return nil
}

// Increment adds delta to a counter and returns the new value.
// The increment runs in a transaction so concurrent callers never lose updates.
func (s *SQLiteStore) Increment(ctx context.Context, name string, delta int64, ttl time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	var value, expiresAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT value, expires_at FROM counters WHERE name = ?`, name).
		Scan(&value, &expiresAt)

	fresh := err == sql.ErrNoRows ||
		(err == nil && expiresAt > 0 && expiresAt <= now.UnixMilli())
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to load counter %q: %w", name, err)
	}

	if fresh {
		value = 0
		expiresAt = 0
		if ttl > 0 {
			expiresAt = now.Add(ttl).UnixMilli()
		}
	}

	value += delta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO counters (name, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		name, value, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("failed to save counter %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return value, nil
}

// Cleanup removes expired counters.
func (s *SQLiteStore) Cleanup(ctx context.Context, now time.Time) (int, error) {
	result, err := s.cleanupStmt.ExecContext(ctx, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	if s.setStmt != nil {
		s.setStmt.Close()
	}
	if s.cleanupStmt != nil {
		s.cleanupStmt.Close()
	}
	return s.db.Close()
}
