package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type statusErr int

func (e statusErr) Error() string      { return fmt.Sprintf("HTTP %d", int(e)) }
func (e statusErr) GetStatusCode() int { return int(e) }

func recordingConfig(delays *[]time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return cfg
}

func TestWithRetry_BackoffStrictlyIncreases(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := WithRetry(context.Background(), recordingConfig(&delays), func() error {
		calls++
		return statusErr(http.StatusInternalServerError)
	})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 4, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	for i := 1; i < len(delays); i++ {
		require.Greater(t, delays[i], delays[i-1])
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := WithRetry(context.Background(), recordingConfig(&delays), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusBadGateway)
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Len(t, delays, 2)
}

func TestWithRetry_SessionExpiryIsNotRetried(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var delays []time.Duration
			calls := 0

			err := WithRetry(context.Background(), recordingConfig(&delays), func() error {
				calls++
				return statusErr(code)
			})

			require.Error(t, err)
			require.NotErrorIs(t, err, ErrExhausted)
			require.Equal(t, 1, calls)
			require.Empty(t, delays)
		})
	}
}

func TestWithRetry_ClientErrorIsPermanent(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := WithRetry(context.Background(), recordingConfig(&delays), func() error {
		calls++
		return statusErr(http.StatusNotFound)
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetry_NetworkErrorIsRetried(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := WithRetry(context.Background(), recordingConfig(&delays), func() error {
		calls++
		return errors.New("connection reset by peer")
	})

	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 4, calls)
}

func TestWithRetry_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	err := WithRetry(ctx, cfg, func() error {
		calls++
		return statusErr(http.StatusServiceUnavailable)
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestPageConfig_UsesDifferentBound(t *testing.T) {
	var delays []time.Duration
	cfg := PageConfig()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_ = WithRetry(context.Background(), cfg, func() error {
		return statusErr(http.StatusInternalServerError)
	})

	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBackoff = 3 * time.Second
	require.Equal(t, 3*time.Second, calculateBackoff(5, cfg))
}
