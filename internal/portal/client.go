// internal/portal/client.go
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/law-makers/evalcrawl/internal/auth"
	"github.com/law-makers/evalcrawl/internal/ratelimit"
	"github.com/law-makers/evalcrawl/internal/retry"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	SearchPath    = "/Search/"
	PagePath      = "/Search/Page"
	ReportPath    = "/Reports/Report"
	KeepAlivePath = "/Home/KeepAlive"
)

// SearchCache stores fully paginated search results by query
type SearchCache interface {
	Get(query string) ([]models.SearchResultRecord, bool)
	Add(query string, records []models.SearchResultRecord)
}

// Options configures a portal Client
type Options struct {
	BaseURL       string
	UserAgent     string
	Proxy         string
	Timeout       time.Duration
	Headers       map[string]string
	ReportRetry   retry.Config
	PageRetry     retry.Config
	PageDelay     time.Duration
	MaxPages      int
	HeartbeatPath string
	Cache         SearchCache
}

// Client talks to the evaluation portal. It is safe for concurrent use;
// the only per-request state is the credential snapshot.
type Client struct {
	http       *resty.Client
	credential *auth.Credential
	opts       Options
	now        func() time.Time
	sleep      retry.Sleeper
}

// NewClient builds a resty client wired to the shared limiter and credential
func NewClient(opts Options, credential *auth.Credential, limiter ratelimit.RateLimiter) *Client {
	if opts.HeartbeatPath == "" {
		opts.HeartbeatPath = KeepAlivePath
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Proxy != "" {
		rc.SetProxy(opts.Proxy)
	}
	if len(opts.Headers) > 0 {
		rc.SetHeaders(opts.Headers)
	}

	if limiter != nil {
		rc.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
			target := r.URL
			if !strings.HasPrefix(target, "http") {
				target = c.BaseURL + target
			}
			return limiter.Wait(r.Context(), target)
		})
	}
	rc.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Debug().
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("elapsed", resp.Time()).
			Int("bytes", len(resp.Body())).
			Msg("Portal response")
		return nil
	})

	return &Client{
		http:       rc,
		credential: credential,
		opts:       opts,
		now:        time.Now,
		sleep:      retry.SleepContext,
	}
}

// Credential returns the shared credential cell
func (c *Client) Credential() *auth.Credential {
	return c.credential
}

// get issues one GET with the current credential and maps failures to *Error
func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	value, version := c.credential.Current()

	req := c.http.R().SetContext(ctx).SetQueryParams(query)
	if value != "" {
		req.SetHeader("Cookie", value)
	}

	resp, err := req.Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{
			Code:              ErrCodeTransient,
			Message:           "request failed",
			URL:               path,
			CredentialVersion: version,
			Underlying:        err,
		}
	}

	if resp.StatusCode() >= 400 {
		return nil, statusError(resp.StatusCode(), path, version)
	}

	return resp.Body(), nil
}

// getWithRetry wraps get in the given retry policy
func (c *Client) getWithRetry(ctx context.Context, cfg retry.Config, path string, query map[string]string) ([]byte, error) {
	var body []byte
	err := retry.WithRetry(ctx, cfg, func() error {
		var err error
		body, err = c.get(ctx, path, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Ping hits the keep-alive endpoint once
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.get(ctx, c.opts.HeartbeatPath, nil); err != nil {
		return fmt.Errorf("failed to ping portal: %w", err)
	}
	return nil
}

// Heartbeat pings the keep-alive endpoint every interval until ctx is done.
// Failures are logged at debug and otherwise ignored.
func (c *Client) Heartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Ping(ctx); err != nil {
				log.Debug().Err(err).Msg("Heartbeat failed")
			}
		}
	}
}
