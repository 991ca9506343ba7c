// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/law-makers/evalcrawl/internal/auth"
	"github.com/law-makers/evalcrawl/internal/cache"
	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/config"
	"github.com/law-makers/evalcrawl/internal/portal"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/ratelimit"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release the
// progress store and report cache statistics.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	RateLimiter ratelimit.RateLimiter
	Cache       *cache.SearchCache

	sessionsMu sync.Mutex
	sessions   *auth.SessionStore

	storesMu sync.Mutex
	stores   []progress.Store

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It configures the global logger, the per-host rate limiter and the
// search result cache. Stores, sessions and portal clients are created on
// demand by the commands that need them.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg, os.Stderr)

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	searchCache := cache.New(cfg.CacheSize, cfg.CacheTTL)
	logger.Debug().
		Int("size", cfg.CacheSize).
		Dur("ttl", cfg.CacheTTL).
		Msg("Search cache initialized")

	return &Application{
		Config:      cfg,
		Logger:      logger,
		RateLimiter: rateLimiter,
		Cache:       searchCache,
		startTime:   time.Now(),
	}, nil
}

// setupLogger applies the configured level and output to the global logger
func setupLogger(cfg *config.Config, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		// JSON logs to stderr
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		// Human-friendly console output otherwise
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
	}

	logger := log.Logger
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return &logger
}

// Sessions lazily opens the stored-session store (probing the OS keyring once)
func (a *Application) Sessions() (*auth.SessionStore, error) {
	a.sessionsMu.Lock()
	defer a.sessionsMu.Unlock()

	if a.sessions != nil {
		return a.sessions, nil
	}
	store, err := auth.NewSessionStore()
	if err != nil {
		return nil, err
	}
	a.sessions = store
	return store, nil
}

// OpenStore opens the configured progress store. It is closed by Close.
func (a *Application) OpenStore() (progress.Store, error) {
	store, err := progress.Open(progress.Kind(a.Config.Store), a.Config.ProgressPaths())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.Config.Store, err)
	}

	a.storesMu.Lock()
	a.stores = append(a.stores, store)
	a.storesMu.Unlock()

	a.Logger.Debug().Str("kind", a.Config.Store).Msg("Progress store opened")
	return store, nil
}

// NewPortal builds a portal client sharing the application's limiter and cache
func (a *Application) NewPortal(credential *auth.Credential) *portal.Client {
	cfg := a.Config
	return portal.NewClient(portal.Options{
		BaseURL:       cfg.BaseURL,
		UserAgent:     cfg.UserAgent,
		Proxy:         cfg.Proxy,
		Timeout:       cfg.HTTPTimeout,
		Headers:       cfg.Headers,
		ReportRetry:   cfg.ReportRetry(),
		PageRetry:     cfg.PageRetry(),
		PageDelay:     cfg.PageDelay,
		MaxPages:      cfg.MaxPages,
		HeartbeatPath: cfg.HeartbeatPath,
		Cache:         a.Cache,
	}, credential, a.RateLimiter)
}

// LoadCatalog reads the configured catalog files
func (a *Application) LoadCatalog() ([]models.CatalogEntry, catalog.Lookup, error) {
	if len(a.Config.CatalogPaths) == 0 {
		return nil, nil, fmt.Errorf("no catalog files configured (use --catalog)")
	}
	entries, err := catalog.LoadFiles(a.Config.CatalogPaths...)
	if err != nil {
		return nil, nil, err
	}
	lookup := catalog.NewLookup(entries)
	a.Logger.Info().
		Int("entries", len(entries)).
		Int("keys", len(lookup)).
		Msg("Catalog loaded")
	return entries, lookup, nil
}

// Close gracefully shuts down the application and all its resources.
//
// Errors closing stores are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.storesMu.Lock()
	stores := a.stores
	a.stores = nil
	a.storesMu.Unlock()

	for _, s := range stores {
		if err := s.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing progress store")
		}
	}

	a.Logger.Debug().
		Interface("cache", a.Cache.Stats()).
		Dur("uptime", a.Uptime()).
		Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
