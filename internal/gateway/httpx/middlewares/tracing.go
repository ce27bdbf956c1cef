package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	// HeaderXIdempotencyKey lets a caller replay a checkout safely; the key
	// is forwarded to the backend on order and payment creation.
	HeaderXIdempotencyKey = "X-Idempotency-Key"

	// ContextKeyRequestID carries the chi request id.
	ContextKeyRequestID contextKey = "request_id"
	// ContextKeyIdempotencyKey carries the caller-supplied idempotency key.
	ContextKeyIdempotencyKey contextKey = "idempotency_key"
)

// AttachRequestMetadata copies the request id and any caller-supplied
// idempotency key into typed context values downstream code can read.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, middleware.GetReqID(r.Context()))
		ctx = context.WithValue(ctx, ContextKeyIdempotencyKey, r.Header.Get(HeaderXIdempotencyKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id attached by AttachRequestMetadata.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// IdempotencyKey returns the caller-supplied idempotency key, "" if none.
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return key
}
