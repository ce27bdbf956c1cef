// Package checkoutlog defines the durable audit trail of a checkout run.
//
// Every state transition of a checkout saga is appended here. It serves two
// purposes:
//
//  1. Observability: the status endpoint reads the latest row to tell the
//     client exactly where a checkout is (or was), correlated with the
//     distributed trace via the trace_id field.
//
//  2. Recovery: on restart, runs left in a non-terminal state by a crash
//     are found via InFlight and closed as FAILED, so a dead run is never
//     reported as live.
package checkoutlog

import "time"

// Status is the lifecycle state of a checkout run.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is a single row in the checkout_logs table: a point-in-time snapshot
// of one checkout run.
type Entry struct {
	// CheckoutID identifies the run. It doubles as the idempotency key sent
	// to the backend, so a row can be joined with the created order/payment.
	CheckoutID string

	// Status is the lifecycle state at the time of this row.
	Status Status

	// CurrentStep is the step that just executed or failed.
	CurrentStep string

	// Payload is the JSON-serialised order payload that started the run.
	// Stored once on STARTED so the run can be replayed from the log.
	Payload string

	// ErrorMessages accumulates failure details as a JSON array.
	ErrorMessages string

	// TraceID and SpanID tie this row to the active OpenTelemetry span.
	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
