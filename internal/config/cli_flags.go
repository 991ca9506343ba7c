package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to a JSON5 configuration file (optional)")
	cmd.PersistentFlags().String("base-url", "", "Evaluation portal base URL")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Set hard timeout for requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Float64("rps", DefaultRateLimitRPS, "Maximum requests per second to the portal")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")
}

// RegisterStoreFlags registers the flags that locate the progress store
func RegisterStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", DefaultStore, "Progress store: file or sqlite")
	cmd.Flags().StringP("output", "o", DefaultEvaluationsPath, "Evaluations document path (file store)")
	cmd.Flags().String("progress", DefaultProgressPath, "Progress checkpoint path (file store)")
	cmd.Flags().String("database", DefaultDatabasePath, "SQLite database path (sqlite store)")
}

// RegisterCrawlFlags registers the scheduler and catalog flags
func RegisterCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().String("terms", "", "Terms to crawl, e.g. \"F25=Fall 2025,W26=Winter 2026\"")
	cmd.Flags().StringSlice("catalog", nil, "Catalog JSON/JSON5 files (repeatable or comma separated)")
	cmd.Flags().IntP("concurrency", "c", DefaultConcurrency, "Reports fetched concurrently per batch")
	cmd.Flags().IntP("workers", "w", DefaultWorkers, "Work items processed in parallel")
}
