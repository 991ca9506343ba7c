// internal/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// LoginOptions configures the browser login
type LoginOptions struct {
	// SessionName is the name the captured session is stored under
	SessionName string
	// URL of the portal page that triggers the institution's login flow
	URL string
	// WaitSelector marks a logged-in page (e.g., "#SearchResults"); empty means wait for Enter
	WaitSelector string
	// Timeout for the whole login
	Timeout time.Duration
	// ExecPath overrides the Chrome binary; empty lets chromedp find one
	ExecPath string
	// Confirm blocks until the operator says login is done. Used when WaitSelector is empty.
	Confirm func() error
}

// InteractiveLogin opens a visible browser, lets the operator log in, and captures the cookies
func InteractiveLogin(ctx context.Context, opts LoginOptions) (*SessionData, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, fmt.Errorf("browser login requires a display server; use 'evalcrawl session import' instead")
	}

	log.Info().
		Str("session", opts.SessionName).
		Str("url", opts.URL).
		Msg("Starting browser login")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 720),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))
	defer browserCancel()

	if err := chromedp.Run(browserCtx, network.Enable(), chromedp.Navigate(opts.URL)); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if opts.WaitSelector != "" {
		log.Info().Str("selector", opts.WaitSelector).Msg("Waiting for login completion")
		if err := chromedp.Run(browserCtx, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("login timeout or failed: %w", err)
		}
	} else if opts.Confirm != nil {
		if err := opts.Confirm(); err != nil {
			return nil, fmt.Errorf("login not confirmed: %w", err)
		}
	}

	var cookies []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found - login may have failed")
	}

	log.Info().Int("cookie_count", len(cookies)).Msg("Cookies extracted")

	session := &SessionData{
		Name:      opts.SessionName,
		URL:       opts.URL,
		Cookies:   make([]Cookie, len(cookies)),
		CreatedAt: time.Now(),
	}
	for i, c := range cookies {
		session.Cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
	}
	session.ExpiresAt = EarliestExpiry(session.Cookies)

	return session, nil
}
