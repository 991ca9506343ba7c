package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/law-makers/evalcrawl/internal/app"
	"github.com/law-makers/evalcrawl/internal/auth"
	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/config"
	"github.com/law-makers/evalcrawl/internal/crawler"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/internal/ui"
	"github.com/law-makers/evalcrawl/internal/utils/headers"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/spf13/cobra"
)

// Refresh modes for --refresh
const (
	refreshPrompt  = "prompt"
	refreshStored  = "stored"
	refreshBrowser = "browser"
)

var (
	resume       bool
	limit        int
	courses      []string
	findMissing  bool
	retryMissing bool
	sessionName  string
	cookie       string
	refreshMode  string
	noHeartbeat  bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl evaluation reports for the configured terms",
	Long: `Searches the portal for every configured term, keeps the rows that resolve
to a catalog course and extracts their reports in batches of --concurrency.

Modes:
- default: one search per term
- --course: search the given courses across every term
- --retry-missing: search only catalog courses without evaluations yet
- --find-missing: print the missing-course report and exit

When the portal rejects the session, the crawl pauses once for a fresh
credential (see --refresh) and every worker continues with it.`,
	Example: `  # Full crawl of two terms
  evalcrawl crawl --terms "F25=Fall 2025,W26=Winter 2026" --catalog courses.json --session stanford

  # Continue after an interruption, at most 200 new reports
  evalcrawl crawl --resume --limit 200 --terms F25 --catalog courses.json

  # Only two courses
  evalcrawl crawl --course "CS 106A" --course "MATH 51" --terms F25 --catalog courses.json

  # Fill the gaps left by earlier runs
  evalcrawl crawl --retry-missing --terms F25,W26 --catalog courses.json`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	config.RegisterStoreFlags(crawlCmd)
	config.RegisterCrawlFlags(crawlCmd)

	crawlCmd.Flags().BoolVar(&resume, "resume", false, "Load existing progress before crawling")
	crawlCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of reports to extract this run (0 = no limit)")
	crawlCmd.Flags().StringArrayVar(&courses, "course", nil, "Crawl a single course (\"SUBJECT NUMBER\"), repeatable")
	crawlCmd.Flags().BoolVar(&findMissing, "find-missing", false, "List catalog courses without evaluations and exit")
	crawlCmd.Flags().BoolVar(&retryMissing, "retry-missing", false, "Crawl only catalog courses without evaluations")
	crawlCmd.Flags().StringVarP(&sessionName, "session", "s", "", "Use a stored session for the initial credential")
	crawlCmd.Flags().StringVar(&cookie, "cookie", "", "Initial Cookie header value (or EVALCRAWL_COOKIE)")
	crawlCmd.Flags().StringVar(&refreshMode, "refresh", refreshPrompt, "How to replace an expired credential: prompt, stored, browser")
	crawlCmd.Flags().BoolVar(&noHeartbeat, "no-heartbeat", false, "Disable the keep-alive heartbeat")

	crawlCmd.MarkFlagsMutuallyExclusive("find-missing", "retry-missing", "course")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	cfg := a.Config

	ctx := reqctx.WithRunContext(cmd.Context())
	logger := reqctx.Logger(ctx)

	entries, lookup, err := a.LoadCatalog()
	if err != nil {
		return err
	}

	if findMissing {
		return runFindMissing(ctx, a, entries, cmd.OutOrStdout())
	}

	if len(cfg.Terms) == 0 {
		return fmt.Errorf("no terms configured (use --terms or EVALCRAWL_TERMS)")
	}
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}

	store, err := a.OpenStore()
	if err != nil {
		return err
	}
	state, err := loadState(ctx, store, resume || retryMissing)
	if err != nil {
		return err
	}
	logger.Info().
		Int("completed", len(state.Completed)).
		Int("evaluations", state.EvaluationCount()).
		Bool("resume", resume || retryMissing).
		Msg("Progress loaded")

	recorder := progress.NewRecorder(store, state)
	defer recorder.Close()

	prompt := auth.NewPromptAcquirer(cmd.InOrStdin(), cmd.ErrOrStderr())
	acquirer, err := newAcquirer(a, prompt)
	if err != nil {
		return err
	}
	initial, err := initialCredential(ctx, a, prompt)
	if err != nil {
		return err
	}
	credential := auth.NewCredential(initial, acquirer)
	client := a.NewPortal(credential)

	quiet := cfg.JSONLog || cfg.LogLevel == "error"
	counter := ui.NewExtractionCounter(cmd.ErrOrStderr(), limit, quiet)

	opts := crawler.Options{
		Concurrency:       cfg.Concurrency,
		Workers:           cfg.Workers,
		Limit:             limit,
		BatchDelay:        cfg.BatchDelay,
		ItemDelay:         cfg.TermDelay,
		HeartbeatInterval: cfg.HeartbeatInterval,
		OnExtracted:       func(n int) { _ = counter.Add(n) },
	}
	if noHeartbeat {
		opts.HeartbeatInterval = 0
	}
	c := crawler.New(client, credential, recorder, lookup, opts)

	var summary crawler.Summary
	switch {
	case retryMissing:
		summary, err = c.RetryMissing(ctx, entries, cfg.Terms)
	case len(courses) > 0:
		summary, err = c.RunCourses(ctx, courses, cfg.Terms)
	default:
		summary, err = c.RunTerms(ctx, cfg.Terms)
	}
	_ = counter.Finish()

	if printErr := printSummary(cmd.OutOrStdout(), summary, cfg.JSONLog); printErr != nil {
		return printErr
	}

	if errors.Is(err, context.Canceled) {
		logger.Warn().Msg("Crawl interrupted; completed batches are saved, continue with --resume")
		return nil
	}
	if err != nil {
		return reqctx.NewRunError(ctx, err)
	}
	return nil
}

// loadState returns the persisted checkpoint, or clears it for a fresh crawl
func loadState(ctx context.Context, store progress.Store, keep bool) (*progress.State, error) {
	if keep {
		state, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load progress: %w", err)
		}
		return state, nil
	}
	if err := store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset progress: %w", err)
	}
	return progress.NewState(), nil
}

// runFindMissing prints catalog entries that have no evaluations yet
func runFindMissing(ctx context.Context, a *app.Application, entries []models.CatalogEntry, w io.Writer) error {
	store, err := a.OpenStore()
	if err != nil {
		return err
	}
	state, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	missing := catalog.FindMissing(entries, state.Keys())
	if a.Config.JSONLog {
		return json.NewEncoder(w).Encode(missing)
	}
	ui.RenderMissing(w, missing)
	return nil
}

// initialCredential picks the starting cookie: flag, environment, stored session, then prompt
func initialCredential(ctx context.Context, a *app.Application, prompt *auth.PromptAcquirer) (string, error) {
	if cookie != "" {
		return headers.NormalizeCookieHeader(cookie), nil
	}
	if v := os.Getenv("EVALCRAWL_COOKIE"); v != "" {
		return headers.NormalizeCookieHeader(v), nil
	}
	if sessionName != "" {
		store, err := a.Sessions()
		if err != nil {
			return "", err
		}
		session, err := store.Load(sessionName)
		if err != nil {
			return "", fmt.Errorf("failed to load session '%s': %w", sessionName, err)
		}
		return session.CookieHeader(), nil
	}

	return prompt.Ask(ctx, "Paste the portal Cookie header and press Enter: ")
}

// newAcquirer builds the credential source used after a 401/403. prompt is
// the run's only reader of stdin.
func newAcquirer(a *app.Application, prompt *auth.PromptAcquirer) (auth.Acquirer, error) {
	switch refreshMode {
	case refreshPrompt, "":
		return prompt, nil
	case refreshStored:
		if sessionName == "" {
			return nil, fmt.Errorf("--refresh=stored requires --session")
		}
		store, err := a.Sessions()
		if err != nil {
			return nil, err
		}
		return &auth.StoredAcquirer{Store: store, Name: sessionName}, nil
	case refreshBrowser:
		store, err := a.Sessions()
		if err != nil {
			return nil, err
		}
		confirm := func() error {
			_, err := prompt.ReadLine(context.Background(), "\nPress Enter once you are logged in... ")
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		return &auth.BrowserAcquirer{
			Options: auth.LoginOptions{
				SessionName: sessionName,
				URL:         a.Config.BaseURL,
				ExecPath:    a.Config.ChromePath,
				Confirm:     confirm,
			},
			Store: store,
		}, nil
	default:
		return nil, fmt.Errorf("unknown --refresh mode %q (use: prompt, stored, browser)", refreshMode)
	}
}

func printSummary(w io.Writer, summary crawler.Summary, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(summary)
	}
	ui.RenderSummary(w, summary)
	return nil
}
