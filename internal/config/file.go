package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"
)

// FileConfig is the JSON5 config file layout. Durations are Go duration strings.
type FileConfig struct {
	LogLevel          string                  `json:"logLevel"`
	BaseURL           string                  `json:"baseUrl"`
	Timeout           string                  `json:"timeout"`
	UserAgent         string                  `json:"userAgent"`
	Proxy             string                  `json:"proxy"`
	Headers           map[string]string       `json:"headers"`
	ChromePath        string                  `json:"chromePath"`
	RPS               float64                 `json:"rps"`
	Burst             int                     `json:"burst"`
	PageDelay         string                  `json:"pageDelay"`
	BatchDelay        string                  `json:"batchDelay"`
	TermDelay         string                  `json:"termDelay"`
	HeartbeatPath     string                  `json:"heartbeatPath"`
	HeartbeatInterval string                  `json:"heartbeatInterval"`
	ReportRetries     int                     `json:"reportRetries"`
	PageRetries       int                     `json:"pageRetries"`
	MaxPages          int                     `json:"maxPages"`
	Store             string                  `json:"store"`
	EvaluationsPath   string                  `json:"evaluationsPath"`
	ProgressPath      string                  `json:"progressPath"`
	DatabasePath      string                  `json:"databasePath"`
	Terms             []models.TermDescriptor `json:"terms"`
	Catalog           []string                `json:"catalog"`
	Concurrency       int                     `json:"concurrency"`
	Workers           int                     `json:"workers"`
	CacheTTL          string                  `json:"cacheTtl"`
	CacheSize         int                     `json:"cacheSize"`
}

// ReadFile reads a JSON5 config file and merges <name>.local.<ext> over it when present
func ReadFile(path string) (FileConfig, error) {
	var out FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	local := localPath(path)
	data, err = os.ReadFile(local)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, err
	}

	var override FileConfig
	if err := json5.Unmarshal(data, &override); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", local, err)
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return out, err
	}
	log.Debug().Str("local", local).Msg("Merged config with local overrides")
	return out, nil
}

// localPath maps "evalcrawl.json5" to "evalcrawl.local.json5"
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// toConfig converts the file layout into a sparse Config; unset fields stay zero
func (f FileConfig) toConfig() (Config, error) {
	cfg := Config{
		LogLevel:        f.LogLevel,
		BaseURL:         f.BaseURL,
		UserAgent:       f.UserAgent,
		Proxy:           f.Proxy,
		Headers:         f.Headers,
		ChromePath:      f.ChromePath,
		RateLimitRPS:    f.RPS,
		RateLimitBurst:  f.Burst,
		HeartbeatPath:   f.HeartbeatPath,
		ReportRetries:   f.ReportRetries,
		PageRetries:     f.PageRetries,
		MaxPages:        f.MaxPages,
		Store:           f.Store,
		EvaluationsPath: f.EvaluationsPath,
		ProgressPath:    f.ProgressPath,
		DatabasePath:    f.DatabasePath,
		Terms:           f.Terms,
		CatalogPaths:    f.Catalog,
		Concurrency:     f.Concurrency,
		Workers:         f.Workers,
		CacheSize:       f.CacheSize,
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", f.Timeout, &cfg.HTTPTimeout},
		{"pageDelay", f.PageDelay, &cfg.PageDelay},
		{"batchDelay", f.BatchDelay, &cfg.BatchDelay},
		{"termDelay", f.TermDelay, &cfg.TermDelay},
		{"heartbeatInterval", f.HeartbeatInterval, &cfg.HeartbeatInterval},
		{"cacheTtl", f.CacheTTL, &cfg.CacheTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	for i := range cfg.Terms {
		cfg.Terms[i].Code = strings.ToUpper(strings.TrimSpace(cfg.Terms[i].Code))
	}
	return cfg, nil
}
