package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	if err := mc.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var s string
	if err := mc.Get(ctx, "k", &s); err != nil || s != "v" {
		t.Fatalf("Get: %q %v", s, err)
	}

	type payload struct{ N int }
	_ = mc.Set(ctx, "p", payload{N: 7}, 0)
	var p payload
	if err := mc.Get(ctx, "p", &p); err != nil || p.N != 7 {
		t.Fatalf("Get struct: %+v %v", p, err)
	}

	if err := mc.Get(ctx, "missing", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheIncrWithTTL(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for want := int64(1); want <= 3; want++ {
		n, err := mc.IncrWithTTL(ctx, "ctr", 30*time.Millisecond)
		if err != nil || n != want {
			t.Fatalf("IncrWithTTL=%d,%v want %d", n, err, want)
		}
	}
	if ttl, _ := mc.TTL(ctx, "ctr"); ttl <= 0 || ttl > 30*time.Millisecond {
		t.Fatalf("TTL=%s", ttl)
	}
	time.Sleep(50 * time.Millisecond)
	if ok, _ := mc.Exists(ctx, "ctr"); ok {
		t.Fatalf("counter should have expired")
	}
	if n, _ := mc.IncrWithTTL(ctx, "ctr", time.Minute); n != 1 {
		t.Fatalf("counter after expiry=%d want 1", n)
	}
	if ttl, _ := mc.TTL(ctx, "nope"); ttl != -2 {
		t.Fatalf("TTL missing=%s", ttl)
	}

	_ = mc.Set(ctx, "s", "text", 0)
	if _, err := mc.IncrWithTTL(ctx, "s", 0); err == nil {
		t.Fatalf("expected error incrementing a string")
	}
	if ttl, _ := mc.TTL(ctx, "s"); ttl != -1 {
		t.Fatalf("TTL without expiry=%s", ttl)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", "1", 0)
	_ = mc.Set(ctx, "b", "2", 0)
	var s string
	_ = mc.Get(ctx, "a", &s)
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("a or c missing")
	}
}
