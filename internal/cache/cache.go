// Package cache provides the short-TTL cache the order list is served from.
// The in-memory implementation is the default; redis is used when an
// address is configured.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}
