package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// KVStore is the durable key/value store the client persists its state in.
// Single-process access is assumed.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is a KVStore the CLI can health-check and release
type Store interface {
	KVStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*UnavailableStore)(nil)
)

// UnavailableStore stands in for a store that could not be opened. Every
// operation fails with a *StoreError wrapping Err, so readers fall back to
// their defaults and writers report the failure.
type UnavailableStore struct {
	Err error
}

func (s *UnavailableStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, &StoreError{Op: "get", Key: key, Err: s.Err}
}

func (s *UnavailableStore) Set(ctx context.Context, key, value string) error {
	return &StoreError{Op: "set", Key: key, Err: s.Err}
}

func (s *UnavailableStore) Delete(ctx context.Context, key string) error {
	return &StoreError{Op: "delete", Key: key, Err: s.Err}
}

func (s *UnavailableStore) Ping(ctx context.Context) error {
	return &StoreError{Op: "ping", Err: s.Err}
}

// Close is a no-op
func (s *UnavailableStore) Close() error {
	return nil
}

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// SQLiteStore implements KVStore on top of a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite store at path
func OpenStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &StoreError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an already opened database and ensures the kv table exists
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(createKVTableSQL); err != nil {
		return nil, &StoreError{Op: "migrate", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key, and whether it exists
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "get", Key: key, Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set stores value under key, replacing any previous value
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return &StoreError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Ping checks the underlying database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
