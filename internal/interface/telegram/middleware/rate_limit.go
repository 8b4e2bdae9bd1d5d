package middleware

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Per-user token bucket. Protects the bot from spam without punishing
// normal dialog pace: a full bucket covers a burst of quick taps, then
// the refill rate takes over.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// Capacity is the bucket size (burst allowance).
	Capacity int

	// RefillInterval is how often one token is returned.
	RefillInterval time.Duration

	// CleanupInterval is how often idle buckets are evicted.
	CleanupInterval time.Duration

	// IdleTTL is how long an untouched bucket survives.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Capacity:        5,
		RefillInterval:  1 * time.Second,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         30 * time.Minute,
	}
}

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	// Allowed is true when the request may proceed.
	Allowed bool

	// RetryAfter is how long to wait before the next request.
	RetryAfter time.Duration
}

// RateLimiter limits request rate per Telegram user.
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[int64]*tokenBucket
	stopCh  chan struct{}
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[int64]*tokenBucket),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Check consumes one token for the user and reports whether the request
// is allowed.
func (rl *RateLimiter) Check(ctx context.Context, telegramID int64) *RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[telegramID]
	if !ok {
		b = &tokenBucket{
			tokens:     float64(rl.config.Capacity),
			lastRefill: now,
		}
		rl.buckets[telegramID] = b
	}

	// Refill proportionally to elapsed time.
	elapsed := now.Sub(b.lastRefill)
	refill := float64(elapsed) / float64(rl.config.RefillInterval)
	if refill > 0 {
		b.tokens += refill
		if b.tokens > float64(rl.config.Capacity) {
			b.tokens = float64(rl.config.Capacity)
		}
		b.lastRefill = now
	}
	b.lastUsed = now

	if b.tokens >= 1 {
		b.tokens--
		return &RateLimitResult{Allowed: true}
	}

	deficit := 1 - b.tokens
	wait := time.Duration(deficit * float64(rl.config.RefillInterval))
	return &RateLimitResult{Allowed: false, RetryAfter: wait}
}

// Reset clears the bucket for the user.
func (rl *RateLimiter) Reset(telegramID int64) {
	rl.mu.Lock()
	delete(rl.buckets, telegramID)
	rl.mu.Unlock()
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	for id, b := range rl.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(rl.buckets, id)
		}
	}
	rl.mu.Unlock()
}
