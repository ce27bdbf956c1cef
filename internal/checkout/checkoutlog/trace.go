package checkoutlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NewEntry builds a log entry with the trace and span ids of the active
// OpenTelemetry span in ctx. When no span is active (unit tests), both ids
// are empty strings.
func NewEntry(ctx context.Context, checkoutID string, status Status, currentStep, payload string, errs []string) *Entry {
	traceID, spanID := "", ""
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
		spanID = sc.SpanID().String()
	}

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Entry{
		CheckoutID:    checkoutID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       traceID,
		SpanID:        spanID,
		UpdatedAt:     time.Now().UTC(),
	}
}
