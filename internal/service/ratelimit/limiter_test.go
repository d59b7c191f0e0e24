package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinPulse/pkg/cache"
)

func TestLimiterAllowDrainsBucket(t *testing.T) {
	l := New(2, 0.001, 0)
	if !l.Allow("api") || !l.Allow("api") {
		t.Fatalf("first two calls should pass")
	}
	if l.Allow("api") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("other") {
		t.Fatalf("buckets are per key")
	}
}

func TestLimiterWaitRefills(t *testing.T) {
	l := New(1, 50, time.Second)
	ctx := context.Background()
	if err := l.Wait(ctx, "api"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "api"); err != nil {
		t.Fatalf("Wait after drain: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("second Wait returned without waiting for refill")
	}
}

func TestLimiterWaitGivesUp(t *testing.T) {
	l := New(1, 0.01, 10*time.Millisecond)
	_ = l.Wait(context.Background(), "api")
	if err := l.Wait(context.Background(), "api"); !errors.Is(err, ErrLimited) {
		t.Fatalf("want ErrLimited, got %v", err)
	}
}

func TestWindowLimiter(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	w := NewWindowLimiter(mc, 2, time.Hour, 0)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := w.Wait(ctx, "coingecko"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := w.Wait(ctx, "coingecko"); !errors.Is(err, ErrLimited) {
		t.Fatalf("want ErrLimited, got %v", err)
	}
	if err := w.Wait(ctx, "tavily"); err != nil {
		t.Fatalf("other key: %v", err)
	}
}
