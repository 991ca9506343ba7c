// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound portal requests.
//
// Every worker shares one limiter, so the configured rate bounds the whole
// crawl rather than each worker.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled before the rate limit allows, an error is returned.
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter applies a token bucket per upstream host
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed according to rate limits
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := extractHost(urlStr)
	if host == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}

	return hl.getLimiter(host).Wait(ctx)
}

// getLimiter returns or creates a rate limiter for the given host
func (hl *HostLimiter) getLimiter(host string) *rate.Limiter {
	hl.mu.RLock()
	limiter, exists := hl.limiters[host]
	hl.mu.RUnlock()

	if exists {
		return limiter
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := hl.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = limiter

	return limiter
}

func extractHost(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
