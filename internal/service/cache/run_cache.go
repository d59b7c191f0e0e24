package cache

import (
	"sync"

	"CoinPulse/internal/domain/models"
)

// RunCache is the cache for a single pipeline run. Entries never expire and are
// never replaced; the map lock is only held for map access.
type RunCache struct {
	mu sync.RWMutex
	m  map[string]models.CacheEntry
}

func NewRunCache() *RunCache {
	return &RunCache{m: make(map[string]models.CacheEntry)}
}

func (c *RunCache) Lookup(key string) (models.CacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	return e, ok
}

// Store keeps the first entry written for a key.
func (c *RunCache) Store(entry models.CacheEntry) {
	c.mu.Lock()
	if _, ok := c.m[entry.Key]; !ok {
		c.m[entry.Key] = entry
	}
	c.mu.Unlock()
}

func (c *RunCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Keys returns the cached URLs in no particular order.
func (c *RunCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.m))
	for k := range c.m {
		out = append(out, k)
	}
	return out
}
