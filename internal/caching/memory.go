package caching

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how stale a cached collection may be relative to
// external edits of the store. Two minutes keeps the bot responsive without
// hammering the rate-limited API.
const DefaultTTL = 120 * time.Second

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// MemoryCache is the default single-process cache: a mutex-guarded map with
// per-entry timestamps. The warm read path never touches I/O.
type MemoryCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an in-process cache. A non-positive ttl falls back
// to DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value when present and inside the TTL window. An
// expired entry is evicted on the missing read.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

// Set stores the value with the current timestamp, replacing any previous
// entry for the key.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{data: data, storedAt: c.now()}
}

// Invalidate removes every key containing pattern.
func (c *MemoryCache) Invalidate(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
		}
	}
}

// InvalidateAll clears the whole cache.
func (c *MemoryCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

func (c *MemoryCache) Kind() string { return "memory" }
