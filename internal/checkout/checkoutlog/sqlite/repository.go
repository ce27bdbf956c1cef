// Package sqlite provides a SQLite-backed implementation of
// checkoutlog.Repository.
//
// WAL mode is enabled on Open so that readers never block writers — the
// checkout goroutine writes while the status endpoint reads.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog"

	// Register the pure-Go SQLite driver (no CGO needed in Docker/Alpine).
	_ "modernc.org/sqlite"
)

// The table is append-only: each row is an immutable event in the run's
// lifecycle. The latest row per checkout_id is the current state.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Checkout run id; doubles as the idempotency key sent to the backend.
    checkout_id     TEXT        NOT NULL,

    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',

    -- Order payload JSON, written once on STARTED, NULL after.
    payload         TEXT,

    -- JSON array of error strings accumulated during failure/compensation.
    error_messages  TEXT        NOT NULL DEFAULT '[]',

    -- W3C trace/span ids from the active OTel span.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, the SQLite idiom.
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_checkout_id ON checkout_logs(checkout_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_trace_id ON checkout_logs(trace_id);
`

// Repository is the SQLite implementation of checkoutlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error { return r.db.Close() }

// Save inserts a new log entry. Safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(checkout_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.CheckoutID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.CheckoutID, err)
	}
	return nil
}

// GetLatest returns the most recent entry for a checkout id.
func (r *Repository) GetLatest(ctx context.Context, checkoutID string) (*checkoutlog.Entry, error) {
	const q = `
		SELECT checkout_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   checkout_logs
		WHERE  checkout_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, checkoutID)

	var entry checkoutlog.Entry
	var updatedAt string
	err := row.Scan(
		&entry.CheckoutID,
		&entry.Status,
		&entry.CurrentStep,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: checkout %q not found", checkoutID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", checkoutID, err)
	}

	entry.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// InFlight returns the latest entry of every run whose most recent status is
// non-terminal. The startup recovery scan closes these as FAILED.
func (r *Repository) InFlight(ctx context.Context) ([]*checkoutlog.Entry, error) {
	const q = `
		SELECT checkout_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   checkout_logs
		WHERE  id IN (SELECT MAX(id) FROM checkout_logs GROUP BY checkout_id)
		AND    status NOT IN (?, ?)
		ORDER  BY id`

	rows, err := r.db.QueryContext(ctx, q,
		string(checkoutlog.StatusCompleted), string(checkoutlog.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list in-flight checkouts: %w", err)
	}
	defer rows.Close()

	var entries []*checkoutlog.Entry
	for rows.Next() {
		var entry checkoutlog.Entry
		var updatedAt string
		if err := rows.Scan(
			&entry.CheckoutID,
			&entry.Status,
			&entry.CurrentStep,
			&entry.Payload,
			&entry.ErrorMessages,
			&entry.TraceID,
			&entry.SpanID,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan in-flight checkout: %w", err)
		}
		entry.UpdatedAt, err = parseRFC3339(updatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list in-flight checkouts: %w", err)
	}
	return entries, nil
}

// nullableString stores NULL instead of an empty TEXT so the payload column
// stays clean on non-STARTED rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
