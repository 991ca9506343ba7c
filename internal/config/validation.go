package config

import (
	"fmt"

	"github.com/law-makers/evalcrawl/internal/progress"
	urlutil "github.com/law-makers/evalcrawl/internal/utils/url"
)

func validate(c *Config) error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url %q: %w", c.BaseURL, err)
	}
	if c.Proxy != "" {
		if err := urlutil.ValidateProxy(c.Proxy); err != nil {
			return err
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rps must be >= 0")
	}
	if c.Concurrency <= 0 || c.Concurrency > DefaultMaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", DefaultMaxConcurrency)
	}
	if c.Workers <= 0 || c.Workers > DefaultMaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxWorkers)
	}
	if c.ReportRetries < 0 || c.PageRetries < 0 {
		return fmt.Errorf("retry counts must be >= 0")
	}
	if c.PageDelay < 0 || c.BatchDelay < 0 || c.TermDelay < 0 {
		return fmt.Errorf("delays must be >= 0")
	}
	switch progress.Kind(c.Store) {
	case progress.KindFile:
		if c.EvaluationsPath == "" || c.ProgressPath == "" {
			return fmt.Errorf("file store needs evaluations and progress paths")
		}
	case progress.KindSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("sqlite store needs a database path")
		}
	default:
		return fmt.Errorf("unknown store %q (want file or sqlite)", c.Store)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be > 0")
	}
	seen := make(map[string]bool, len(c.Terms))
	for _, t := range c.Terms {
		if seen[t.Code] {
			return fmt.Errorf("duplicate term %s", t.Code)
		}
		seen[t.Code] = true
	}
	return nil
}
