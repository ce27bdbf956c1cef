package checkoutlog

import "context"

// Repository is the port for persisting checkout log entries. The saga
// depends on this abstraction, not on SQLite directly, so tests can use an
// in-memory implementation.
type Repository interface {
	// Save appends a row; the log is append-only, never upserted.
	Save(ctx context.Context, entry *Entry) error

	// GetLatest returns the most recent entry for a checkout id.
	GetLatest(ctx context.Context, checkoutID string) (*Entry, error)

	// InFlight returns the latest entry of every run whose most recent
	// status is non-terminal (neither COMPLETED nor FAILED). Used by the
	// startup recovery scan.
	InFlight(ctx context.Context) ([]*Entry, error)
}
