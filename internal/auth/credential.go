package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyCredential is returned when an acquirer yields a blank cookie value
var ErrEmptyCredential = errors.New("credential is empty")

// Acquirer obtains a fresh session credential out of band (operator, browser, stored session)
type Acquirer interface {
	Acquire(ctx context.Context) (string, error)
}

// AcquirerFunc adapts a function to the Acquirer interface
type AcquirerFunc func(ctx context.Context) (string, error)

// Acquire calls f(ctx)
func (f AcquirerFunc) Acquire(ctx context.Context) (string, error) {
	return f(ctx)
}

type credentialValue struct {
	value   string
	version uint64
}

// Credential is the shared, swappable session cookie slot.
//
// Readers take a snapshot with Current on every request. When a request is
// rejected, the caller passes the version it used to Refresh; only one
// refresh runs per version and every other caller reuses its result.
type Credential struct {
	current  atomic.Pointer[credentialValue]
	acquirer Acquirer
	group    singleflight.Group
}

// NewCredential wraps an initial cookie header value
func NewCredential(initial string, acquirer Acquirer) *Credential {
	c := &Credential{acquirer: acquirer}
	c.current.Store(&credentialValue{value: strings.TrimSpace(initial), version: 1})
	return c
}

// Current returns the cookie value and its version
func (c *Credential) Current() (string, uint64) {
	v := c.current.Load()
	return v.value, v.version
}

// Headers returns the outbound request headers carrying the credential
func (c *Credential) Headers() map[string]string {
	value, _ := c.Current()
	if value == "" {
		return map[string]string{}
	}
	return map[string]string{"Cookie": value}
}

// Refresh replaces the credential if it is still at staleVersion.
// Concurrent callers holding the same stale version share one acquisition.
func (c *Credential) Refresh(ctx context.Context, staleVersion uint64) error {
	if _, version := c.Current(); version != staleVersion {
		return nil
	}
	if c.acquirer == nil {
		return fmt.Errorf("session expired and no credential acquirer is configured")
	}

	ch := c.group.DoChan(fmt.Sprintf("refresh-%d", staleVersion), func() (interface{}, error) {
		if _, version := c.Current(); version != staleVersion {
			return nil, nil
		}

		log.Warn().Uint64("version", staleVersion).Msg("Session expired, waiting for a fresh credential")

		value, err := c.acquirer.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire credential: %w", err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, ErrEmptyCredential
		}

		c.current.Store(&credentialValue{value: value, version: staleVersion + 1})
		log.Info().Uint64("version", staleVersion+1).Msg("Credential refreshed")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
