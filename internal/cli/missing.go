package cli

import (
	"github.com/law-makers/evalcrawl/internal/config"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/spf13/cobra"
)

// missingCmd is the standalone form of crawl --find-missing
var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List catalog courses that have no evaluations yet",
	Long: `Compares the catalog with the collected evaluations and prints every course
without any. The closest present course is shown as a hint for renumbered
courses. Nothing is fetched from the portal.`,
	Example: `  evalcrawl missing --catalog courses.json
  evalcrawl missing --catalog courses.json --store sqlite --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		entries, _, err := a.LoadCatalog()
		if err != nil {
			return err
		}
		return runFindMissing(reqctx.WithRunContext(cmd.Context()), a, entries, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(missingCmd)

	config.RegisterStoreFlags(missingCmd)
	missingCmd.Flags().StringSlice("catalog", nil, "Catalog JSON/JSON5 files (repeatable or comma separated)")
}
