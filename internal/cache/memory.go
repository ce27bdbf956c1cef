package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryCache struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	serviceName string
	now         func() time.Time
}

// NewMemory builds the in-process TTL cache used when no redis address is
// configured. Expired entries read as "" and are pruned lazily.
func NewMemory(serviceName string) Cache {
	return &memoryCache{
		entries:     make(map[string]memoryEntry),
		serviceName: serviceName,
		now:         time.Now,
	}
}

func (m *memoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", nil
	}
	return e.value, nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", m.serviceName, operation, key)
}
