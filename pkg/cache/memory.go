package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryItem struct {
	key      string
	value    interface{}
	expireAt time.Time // zero never expires
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache implements Service in process with LRU eviction. It is the
// single-instance stand-in for RedisCache.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List // front is most recently used
	maxSize int
	now     func() time.Time

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		ticker:  time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var expireAt time.Time
	if expiration > 0 {
		expireAt = mc.now().Add(expiration)
	}
	mc.put(key, value, expireAt)
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	item, ok := mc.lookup(key)
	var v interface{}
	if ok {
		v = item.value
	}
	mc.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}

	switch d := dest.(type) {
	case *string:
		if s, ok := v.(string); ok {
			*d = s
			return nil
		}
	case *int64:
		if n, ok := v.(int64); ok {
			*d = n
			return nil
		}
	case *interface{}:
		*d = v
		return nil
	}

	// JSON round trip, matching what RedisCache stores.
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return json.Unmarshal(b, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if el, ok := mc.items[k]; ok {
			mc.remove(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if _, ok := mc.lookup(k); ok {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.lookup(key)
	if !ok {
		var expireAt time.Time
		if ttl > 0 {
			expireAt = mc.now().Add(ttl)
		}
		mc.put(key, int64(1), expireAt)
		return 1, nil
	}
	n, isInt := item.value.(int64)
	if !isInt {
		return 0, fmt.Errorf("cache: %s does not hold a counter", key)
	}
	item.value = n + 1
	return n + 1, nil
}

func (mc *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.lookup(key)
	switch {
	case !ok:
		return -2, nil
	case item.expireAt.IsZero():
		return -1, nil
	}
	return item.expireAt.Sub(mc.now()), nil
}

// put inserts or replaces key, evicting the least recently used entry when full.
// Caller holds mu.
func (mc *MemoryCache) put(key string, value interface{}, expireAt time.Time) {
	if el, ok := mc.items[key]; ok {
		it := el.Value.(*memoryItem)
		it.value, it.expireAt = value, expireAt
		mc.lru.MoveToFront(el)
		return
	}
	if mc.maxSize > 0 && mc.lru.Len() >= mc.maxSize {
		if oldest := mc.lru.Back(); oldest != nil {
			mc.remove(oldest)
		}
	}
	mc.items[key] = mc.lru.PushFront(&memoryItem{key: key, value: value, expireAt: expireAt})
}

// lookup returns a live item and marks it used. Caller holds mu.
func (mc *MemoryCache) lookup(key string) (*memoryItem, bool) {
	el, ok := mc.items[key]
	if !ok {
		return nil, false
	}
	it := el.Value.(*memoryItem)
	if it.expired(mc.now()) {
		mc.remove(el)
		return nil, false
	}
	mc.lru.MoveToFront(el)
	return it, true
}

func (mc *MemoryCache) remove(el *list.Element) {
	delete(mc.items, el.Value.(*memoryItem).key)
	mc.lru.Remove(el)
}

func (mc *MemoryCache) sweep() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for el := mc.lru.Back(); el != nil; {
				prev := el.Prev()
				if el.Value.(*memoryItem).expired(now) {
					mc.remove(el)
				}
				el = prev
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the sweeper.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.ticker.Stop()
		close(mc.done)
	})
	return nil
}
