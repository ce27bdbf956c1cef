// Package kv provides the SQLite-backed key/value store that plays the role
// of device persistent storage: tokens, profile, cart contents, location,
// order type and onboarding flags all live here as JSON blobs.
//
// WAL mode is enabled on Open so that readers never block writers — several
// stores persist concurrently while handlers read.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// keeping cross-compilation and Alpine builds trivial.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Store is a namespaced JSON key/value store on a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("kv: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kv: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error { return s.db.Close() }

// Put serialises v as JSON and upserts it under key.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: marshal %q: %w", key, err)
	}
	const q = `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, q, key, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("kv: put %q: %w", key, err)
	}
	return nil
}

// Get unmarshals the value stored under key into out. The boolean reports
// whether the key existed; a missing key is not an error.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	const q = `SELECT value FROM kv_entries WHERE key = ?`
	var raw string
	err := s.db.QueryRowContext(ctx, q, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv: get %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("kv: unmarshal %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	return nil
}
