package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	RegisterStoreFlags(cmd)
	RegisterCrawlFlags(cmd)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultConcurrency, cfg.Concurrency)
	require.Equal(t, "file", cfg.Store)

	rc := cfg.ReportRetry()
	require.Equal(t, 4, rc.MaxAttempts)
	require.Equal(t, time.Second, rc.InitialBackoff)

	pc := cfg.PageRetry()
	require.Equal(t, 3, pc.MaxAttempts)
	require.Equal(t, 2*time.Second, pc.InitialBackoff)
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evalcrawl.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments and trailing commas are fine
		baseUrl: "https://portal.example.edu",
		concurrency: 8,
		workers: 3,
		batchDelay: "250ms",
		terms: [{code: "f25", label: "Fall 2025"}],
		catalog: ["courses.json"],
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evalcrawl.local.json5"), []byte(`{workers: 4}`), 0644))

	t.Setenv("EVALCRAWL_CONCURRENCY", "6")

	cfg, err := Load(newCommand(t, "--config", path, "--store", "sqlite", "-v", "-H", "X-Test: 1"))
	require.NoError(t, err)

	require.Equal(t, "https://portal.example.edu", cfg.BaseURL)
	require.Equal(t, 6, cfg.Concurrency)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 250*time.Millisecond, cfg.BatchDelay)
	require.Equal(t, DefaultPageDelay, cfg.PageDelay)
	require.Equal(t, []models.TermDescriptor{{Code: "F25", Label: "Fall 2025"}}, cfg.Terms)
	require.Equal(t, []string{"courses.json"}, cfg.CatalogPaths)
	require.Equal(t, "sqlite", cfg.Store)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, map[string]string{"X-Test": "1"}, cfg.Headers)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("EVALCRAWL_WORKERS", "5")
	t.Setenv("EVALCRAWL_TERMS", "F25")

	cfg, err := Load(newCommand(t, "--workers", "2", "--terms", "W26=Winter 2026, S26"))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, []models.TermDescriptor{{Code: "W26", Label: "Winter 2026"}, {Code: "S26"}}, cfg.Terms)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero concurrency", []string{"--concurrency", "0"}},
		{"too many workers", []string{"--workers", "100"}},
		{"unknown store", []string{"--store", "redis"}},
		{"relative base url", []string{"--base-url", "portal"}},
		{"proxy without scheme", []string{"--proxy", "127.0.0.1:8080"}},
		{"bad timeout", []string{"--timeout", "soon"}},
		{"duplicate term", []string{"--terms", "F25,F25"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newCommand(t, tt.args...))
			require.Error(t, err)
		})
	}
}

func TestReadFile_MissingConfig(t *testing.T) {
	_, err := Load(newCommand(t, "--config", filepath.Join(t.TempDir(), "nope.json5")))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseTerms(t *testing.T) {
	terms, err := ParseTerms(" f25 = Fall 2025 ,,W26")
	require.NoError(t, err)
	require.Equal(t, []models.TermDescriptor{{Code: "F25", Label: "Fall 2025"}, {Code: "W26"}}, terms)

	_, err = ParseTerms("=Fall")
	require.Error(t, err)
}
