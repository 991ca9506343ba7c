package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/retry"
	"github.com/law-makers/evalcrawl/internal/utils/headers"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Portal
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string
	Proxy       string
	Headers     map[string]string
	ChromePath  string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Politeness delays
	PageDelay  time.Duration
	BatchDelay time.Duration
	TermDelay  time.Duration

	// Heartbeat
	HeartbeatPath     string
	HeartbeatInterval time.Duration

	// Retries
	ReportRetries int
	ReportBackoff time.Duration
	PageRetries   int
	PageBackoff   time.Duration
	MaxBackoff    time.Duration
	MaxPages      int

	// Output
	Store           string
	EvaluationsPath string
	ProgressPath    string
	DatabasePath    string

	// Crawl
	Terms        []models.TermDescriptor
	CatalogPaths []string
	Concurrency  int
	Workers      int

	// Caching
	CacheTTL  time.Duration
	CacheSize int
}

// Defaults returns a Config populated with the built-in defaults
func Defaults() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		BaseURL:           DefaultBaseURL,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
		PageDelay:         DefaultPageDelay,
		BatchDelay:        DefaultBatchDelay,
		TermDelay:         DefaultTermDelay,
		HeartbeatPath:     DefaultHeartbeatPath,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ReportRetries:     DefaultReportRetries,
		ReportBackoff:     DefaultReportBackoff,
		PageRetries:       DefaultPageRetries,
		PageBackoff:       DefaultPageBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		MaxPages:          DefaultMaxPages,
		Store:             DefaultStore,
		EvaluationsPath:   DefaultEvaluationsPath,
		ProgressPath:      DefaultProgressPath,
		DatabasePath:      DefaultDatabasePath,
		Concurrency:       DefaultConcurrency,
		Workers:           DefaultWorkers,
		CacheTTL:          DefaultCacheTTL,
		CacheSize:         DefaultCacheSize,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	path := os.Getenv("EVALCRAWL_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		fc, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		partial, err := fc.toConfig()
		if err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, partial, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("EVALCRAWL_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("EVALCRAWL_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("EVALCRAWL_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("EVALCRAWL_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("EVALCRAWL_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("EVALCRAWL_TERMS"); v != "" {
		terms, err := ParseTerms(v)
		if err != nil {
			return fmt.Errorf("invalid EVALCRAWL_TERMS: %w", err)
		}
		cfg.Terms = terms
	}
	if v := os.Getenv("EVALCRAWL_CATALOG"); v != "" {
		cfg.CatalogPaths = splitList(v)
	}
	if v := os.Getenv("EVALCRAWL_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EVALCRAWL_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv("EVALCRAWL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EVALCRAWL_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	return nil
}

// applyFlags copies every flag the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.LogLevel = "debug"
		}
	}
	if changed("quiet") {
		if v, _ := flags.GetBool("quiet"); v {
			cfg.LogLevel = "error"
		}
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if changed("rps") {
		cfg.RateLimitRPS, _ = flags.GetFloat64("rps")
	}
	if changed("header") {
		h, _ := flags.GetStringArray("header")
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range headers.ParseHeaders(h) {
			cfg.Headers[k] = v
		}
	}
	if changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if changed("output") {
		cfg.EvaluationsPath, _ = flags.GetString("output")
	}
	if changed("progress") {
		cfg.ProgressPath, _ = flags.GetString("progress")
	}
	if changed("database") {
		cfg.DatabasePath, _ = flags.GetString("database")
	}
	if changed("terms") {
		s, _ := flags.GetString("terms")
		terms, err := ParseTerms(s)
		if err != nil {
			return fmt.Errorf("invalid --terms: %w", err)
		}
		cfg.Terms = terms
	}
	if changed("catalog") {
		cfg.CatalogPaths, _ = flags.GetStringSlice("catalog")
	}
	if changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	return nil
}

// ParseTerms parses "F25=Fall 2025,W26=Winter 2026". The label is optional.
func ParseTerms(s string) ([]models.TermDescriptor, error) {
	var terms []models.TermDescriptor
	for _, part := range splitList(s) {
		code, label, _ := strings.Cut(part, "=")
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("empty term code in %q", part)
		}
		terms = append(terms, models.TermDescriptor{Code: code, Label: strings.TrimSpace(label)})
	}
	return terms, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReportRetry returns the retry policy for report fetches
func (c *Config) ReportRetry() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = c.ReportRetries + 1
	rc.InitialBackoff = c.ReportBackoff
	rc.MaxBackoff = c.MaxBackoff
	return rc
}

// PageRetry returns the retry policy for pagination fetches
func (c *Config) PageRetry() retry.Config {
	rc := retry.PageConfig()
	rc.MaxAttempts = c.PageRetries + 1
	rc.InitialBackoff = c.PageBackoff
	rc.MaxBackoff = c.MaxBackoff
	return rc
}

// ProgressPaths locates the persisted checkpoint
func (c *Config) ProgressPaths() progress.Paths {
	return progress.Paths{
		Evaluations: c.EvaluationsPath,
		Progress:    c.ProgressPath,
		Database:    c.DatabasePath,
	}
}
