package connectors

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits are conservative per-process defaults, well below the
// providers' published per-user limits.
var DefaultRateLimits = map[domain.ServiceID]RateLimitConfig{
	domain.ServiceSlack:   {RequestsPerSecond: 0.5, BurstSize: 5}, // search.messages is Tier 2 (20/min)
	domain.ServiceGmail:   {RequestsPerSecond: 20, BurstSize: 40},
	domain.ServiceDrive:   {RequestsPerSecond: 8, BurstSize: 10},
	domain.ServiceDropbox: {RequestsPerSecond: 5, BurstSize: 10},
}

// defaultCooldown applies when a provider rate-limits without Retry-After
const defaultCooldown = 60 * time.Second

// RateLimiter paces outbound calls with a token bucket and remembers the
// provider's Retry-After so later searches fail fast instead of hammering it.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter for the specified service.
func NewRateLimiter(service domain.ServiceID) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}
	}
	return NewRateLimiterWithConfig(cfg)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Cooldown returns the time left before the provider accepts calls again.
func (r *RateLimiter) Cooldown() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	left := r.retryAt.Sub(r.now())
	if left <= 0 {
		return 0, false
	}
	return left, true
}

// Wait blocks until the token bucket admits a request.
// Callers check Cooldown first; Wait does not sleep through a cooldown.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a rate limit response and starts a cooldown.
func (r *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	d := time.Duration(retryAfterSeconds) * time.Second
	if d <= 0 {
		d = defaultCooldown
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// Admit is the common connector preamble: it short-circuits with a
// rate_limited result during a cooldown, otherwise waits for the bucket.
// A nil result means the call may proceed.
func (r *RateLimiter) Admit(ctx context.Context, service domain.ServiceID) *domain.ServiceResult {
	if r == nil {
		return nil
	}
	if left, cooling := r.Cooldown(); cooling {
		return RateLimited(service, RetrySeconds(left))
	}
	if err := r.Wait(ctx); err != nil {
		return NetworkError(service, err)
	}
	return nil
}
