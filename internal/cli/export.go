package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/law-makers/evalcrawl/internal/config"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/internal/utils/output"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportFile   string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export collected evaluations as CSV or JSON",
	Long: `Reads the evaluations from the progress store and writes them as CSV (one
row per question) or as the compact evaluations-by-course JSON document.

JSON export is how a SQLite store is turned back into the document format.`,
	Example: `  # One row per question
  evalcrawl export --format csv -f evaluations.csv

  # Re-materialize the JSON document from a SQLite store
  evalcrawl export --store sqlite --format json > evaluations.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	config.RegisterStoreFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format: csv or json")
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	store, err := a.OpenStore()
	if err != nil {
		return err
	}
	state, err := store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportFile != "" {
		f, err := os.Create(exportFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportFile, err)
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "csv":
		err = output.WriteCSV(w, state.Evaluations)
	case "json":
		err = output.WriteJSON(w, state.Evaluations)
	default:
		return fmt.Errorf("unsupported format: %s (use: csv, json)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	reqctx.Logger(cmd.Context()).Info().
		Str("format", exportFormat).
		Int("courses", len(state.Evaluations)).
		Int("evaluations", state.EvaluationCount()).
		Msg("Export complete")
	return nil
}
