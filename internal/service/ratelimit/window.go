package ratelimit

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/pkg/cache"
)

// WindowLimiter is a fixed-window counter kept in a cache.Service. Backed by
// Redis it shares one provider quota across every process using the same prefix.
type WindowLimiter struct {
	store   cache.Service
	limit   int64
	window  time.Duration
	maxWait time.Duration
	now     func() time.Time
}

func NewWindowLimiter(store cache.Service, limit int64, window, maxWait time.Duration) *WindowLimiter {
	return &WindowLimiter{store: store, limit: limit, window: window, maxWait: maxWait, now: time.Now}
}

func (w *WindowLimiter) Wait(ctx context.Context, key string) error {
	deadline := w.now().Add(w.maxWait)
	for {
		now := w.now()
		slot := now.Truncate(w.window)
		k := cache.GenerateKeyWithParams("ratelimit", key, slot.Unix())

		n, err := w.store.IncrWithTTL(ctx, k, w.window)
		if err != nil {
			return fmt.Errorf("ratelimit incr: %w", err)
		}
		if n <= w.limit {
			return nil
		}

		next := slot.Add(w.window)
		if next.After(deadline) {
			return fmt.Errorf("%w for %s", ErrLimited, key)
		}
		t := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
