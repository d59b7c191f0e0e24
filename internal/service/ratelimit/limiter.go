package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned when no slot frees up before the wait budget runs out.
var ErrLimited = errors.New("rate limit exceeded")

// Waiter blocks until one request for key may proceed.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is an in-process token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	refill   float64
	maxWait  time.Duration
}

func New(capacity, refillPerSec float64, maxWait time.Duration) *Limiter {
	return &Limiter{m: make(map[string]*bucket), capacity: capacity, refill: refillPerSec, maxWait: maxWait}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.reserve(key)
	return ok
}

// Wait consumes a token for key, sleeping until one refills or the wait budget is spent.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	deadline := time.Now().Add(l.maxWait)
	for {
		ok, retryIn := l.reserve(key)
		if ok {
			return nil
		}
		if time.Now().Add(retryIn).After(deadline) {
			return fmt.Errorf("%w for %s", ErrLimited, key)
		}
		t := time.NewTimer(retryIn)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Limiter) reserve(key string) (bool, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, capacity: l.capacity, refillRate: l.refill, last: now}
		l.m[key] = b
	}
	// refill
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true, 0
	}
	missing := 1 - b.tokens
	return false, time.Duration(missing / b.refillRate * float64(time.Second))
}
