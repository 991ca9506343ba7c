// internal/cli/root.go
package cli

import (
	"context"
	"time"

	"github.com/law-makers/evalcrawl/internal/app"
	"github.com/law-makers/evalcrawl/internal/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evalcrawl",
	Short: "Resumable crawler for course evaluation reports",
	Long: `evalcrawl searches a course evaluation portal term by term (or course by
course), matches the results against a local course catalog and extracts the
published rating data of every matching report.

Progress is checkpointed after every batch, so an interrupted crawl can be
continued with --resume without fetching anything twice.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute runs the command tree under ctx and releases the application afterwards.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	if a := takeApp(); a != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}
	return err
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		setApp(a)

		a.Logger.Debug().
			Str("command", cmd.CommandPath()).
			Str("base_url", cfg.BaseURL).
			Str("store", cfg.Store).
			Msg("Configuration loaded")
		return nil
	}
}
