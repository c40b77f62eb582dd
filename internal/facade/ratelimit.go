package facade

import (
	"context"
	"sync"
	"time"
)

// tokenBucket is a continuous-refill rate limiter: venue-agnostic
// plumbing shared across all endpoint classes.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(capacity, perSecond float64) *tokenBucket {
	return &tokenBucket{tokens: capacity, capacity: capacity, refillRate: perSecond, lastRefill: time.Now()}
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (b *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
}

// rateLimiter groups the per-endpoint-class buckets a trading REST client
// needs: order placement, cancellation, and read-only book queries.
type rateLimiter struct {
	order  *tokenBucket
	cancel *tokenBucket
	book   *tokenBucket
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		order:  newTokenBucket(50, 5.83),
		cancel: newTokenBucket(30, 10),
		book:   newTokenBucket(15, 10),
	}
}
