package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteSchema holds one row per key. updated_at is informational only;
// reads never filter on it.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLite is the durable Store, persisted in a single database file under
// the configured data directory. The pure-Go driver keeps the client free
// of cgo.
type SQLite struct {
	db *sql.DB

	mu     sync.Mutex
	subs   map[string]map[int]func([]byte)
	nextID int
	closed bool
}

// OpenSQLite opens (or creates) the durable store at dir/panacea.db.
func OpenSQLite(dir string) (*SQLite, error) {
	path := filepath.Join(dir, "panacea.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{
		db:   db,
		subs: make(map[string]map[int]func([]byte)),
	}, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key and notifies subscribers.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	for _, fn := range s.snapshot(key) {
		fn(value)
	}
	return nil
}

// Delete removes the key and notifies subscribers with a nil value.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if err := s.check(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	for _, fn := range s.snapshot(key) {
		fn(nil)
	}
	return nil
}

// Subscribe registers fn for changes to key.
func (s *SQLite) Subscribe(key string, fn func([]byte)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func([]byte))
	}
	s.subs[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.subs = nil
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite store: %w", err)
	}
	return nil
}

func (s *SQLite) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *SQLite) snapshot(key string) []func([]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[key]
	if len(set) == 0 {
		return nil
	}
	fns := make([]func([]byte), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	return fns
}

// Compile-time interface verification.
var _ Store = (*SQLite)(nil)
