// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrExhausted is wrapped around the last error once every attempt has failed
var ErrExhausted = errors.New("retries exhausted")

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts          int           // Total attempts including the first one
	InitialBackoff       time.Duration // Delay before the second attempt
	MaxBackoff           time.Duration // Upper bound for any single delay
	Multiplier           float64       // Backoff multiplier
	RetryableStatusCodes []int         // HTTP status codes that should trigger retry
	Sleep                Sleeper       // Defaults to a context-aware timer
}

// DefaultConfig returns the policy used for report extraction: 3 retries at 1s, 2s, 4s
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    4,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
	}
}

// PageConfig returns the policy used for search pagination: 2 retries at 2s, 4s
func PageConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.InitialBackoff = 2 * time.Second
	return cfg
}

// WithRetry executes the given function with retry logic.
// Session expiry (401/403) and other non-retryable errors are returned unchanged
// after the first failure so callers can match them with errors.Is.
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempt+1).
					Msg("Retry succeeded")
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err, cfg) {
			log.Debug().
				Err(err).
				Msg("Error is not retryable")
			return err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			backoff := calculateBackoff(attempt, cfg)

			log.Debug().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return fmt.Errorf("operation failed after %d attempts: %w: %w", cfg.MaxAttempts, ErrExhausted, lastErr)
}

// SleepContext blocks for d, returning early with ctx.Err() on cancellation
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// calculateBackoff calculates the backoff duration for the given attempt
func calculateBackoff(attempt int, cfg Config) time.Duration {
	// Exponential backoff: initialBackoff * (multiplier ^ attempt)
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	return time.Duration(backoff)
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error, cfg Config) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) && sc.GetStatusCode() > 0 {
		statusCode := sc.GetStatusCode()
		if IsSessionExpiredStatus(statusCode) {
			return false
		}
		for _, code := range cfg.RetryableStatusCodes {
			if statusCode == code {
				return true
			}
		}
		// 5xx outside the explicit list are still server-side and transient
		return statusCode >= 500 && statusCode <= 599
	}

	if isTimeoutError(err) {
		return true
	}

	// Network-level failures
	return true
}

// IsSessionExpiredStatus reports whether the status code means the credential was rejected
func IsSessionExpiredStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}

	return false
}

// StatusCoder is an interface for errors that provide an HTTP status code
type StatusCoder interface {
	GetStatusCode() int
}
