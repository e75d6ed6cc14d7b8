package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sitepulse/analyst/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryAdapter implements CacheProvider in process memory. It is used when
// Redis is disabled.
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates an empty in-memory cache
func NewMemoryAdapter() providers.CacheProvider {
	return newMemoryAdapter(time.Now)
}

func newMemoryAdapter(now func() time.Time) *MemoryAdapter {
	return &MemoryAdapter{entries: make(map[string]memoryEntry), now: now}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()
	if !ok || entry.expired(a.now()) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value; zero expiration keeps it until deleted
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.mu.Lock()
	a.entries[key] = entry
	a.mu.Unlock()
	return nil
}

// Delete removes values from cache
func (a *MemoryAdapter) Delete(ctx context.Context, keys ...string) error {
	a.mu.Lock()
	for _, key := range keys {
		delete(a.entries, key)
	}
	a.mu.Unlock()
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()
	return ok && !entry.expired(a.now()), nil
}
