// internal/crawler/crawler.go
package crawler

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/internal/retry"
	"github.com/law-makers/evalcrawl/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Portal is the upstream the crawler reads from
type Portal interface {
	Search(ctx context.Context, query string) iter.Seq2[models.SearchResultRecord, error]
	FetchReport(ctx context.Context, rec models.SearchResultRecord) (*models.EvaluationRecord, error)
	Heartbeat(ctx context.Context, interval time.Duration)
}

// Refresher replaces an expired credential
type Refresher interface {
	Refresh(ctx context.Context, staleVersion uint64) error
}

// Options tunes the scheduler
type Options struct {
	// Concurrency is the number of reports fetched at once within a batch
	Concurrency int
	// Workers is the number of work items processed in parallel
	Workers int
	// Limit caps the number of report extractions this run; 0 means no cap
	Limit int
	// BatchDelay is the pause between batches of one work item
	BatchDelay time.Duration
	// ItemDelay is the pause a worker takes before its next work item
	ItemDelay time.Duration
	// HeartbeatInterval is how often the keep-alive endpoint is pinged; 0 disables it
	HeartbeatInterval time.Duration
	// OnExtracted is called with the number of newly recorded evaluations after each batch
	OnExtracted func(n int)
}

// WorkItem is one search to run and the term codes its rows must carry
type WorkItem struct {
	Query string
	Terms []string
}

// Crawler drives searches and report extraction over a shared work queue
type Crawler struct {
	portal    Portal
	refresher Refresher
	recorder  *progress.Recorder
	lookup    catalog.Lookup
	opts      Options
	stats     *Stats
	budget    *budget
	sleep     retry.Sleeper
}

// New creates a crawler. The recorder must already hold the loaded checkpoint.
func New(portal Portal, refresher Refresher, recorder *progress.Recorder, lookup catalog.Lookup, opts Options) *Crawler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Crawler{
		portal:    portal,
		refresher: refresher,
		recorder:  recorder,
		lookup:    lookup,
		opts:      opts,
		stats:     &Stats{},
		budget:    newBudget(opts.Limit),
		sleep:     retry.SleepContext,
	}
}

// Stats returns the live counters
func (c *Crawler) Stats() *Stats {
	return c.stats
}

// Run processes every item with the configured number of workers and
// returns once the queue is drained, the limit is reached, or ctx is done.
func (c *Crawler) Run(ctx context.Context, items []WorkItem) (Summary, error) {
	start := time.Now()
	logger := reqctx.Logger(ctx)

	queue := make(chan WorkItem, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	if c.opts.HeartbeatInterval > 0 {
		go c.portal.Heartbeat(hbCtx, c.opts.HeartbeatInterval)
	}

	workers := min(c.opts.Workers, max(len(items), 1))
	logger.Info().
		Int("items", len(items)).
		Int("workers", workers).
		Int("concurrency", c.opts.Concurrency).
		Int("limit", c.opts.Limit).
		Msg("Crawl started")

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			return c.worker(gctx, id, queue)
		})
	}
	err := g.Wait()

	summary := c.stats.Summary(time.Since(start))
	switch {
	case err == nil:
		logger.Info().Interface("summary", summary).Msg("Crawl finished")
	case errors.Is(err, context.Canceled):
		logger.Warn().Interface("summary", summary).Msg("Crawl interrupted")
	default:
		logger.Error().Err(err).Interface("summary", summary).Msg("Crawl aborted")
	}
	return summary, err
}

// worker pulls items until the queue is empty, the budget is spent, or ctx is done
func (c *Crawler) worker(ctx context.Context, id int, queue <-chan WorkItem) error {
	logger := reqctx.Logger(ctx).With().Int("worker", id).Logger()
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.budget.exhausted() {
			logger.Debug().Msg("Extraction limit reached, worker stopping")
			return nil
		}

		item, ok := <-queue
		if !ok {
			return nil
		}

		if !first {
			if err := c.sleep(ctx, c.opts.ItemDelay); err != nil {
				return err
			}
		}
		first = false

		logger.Info().Str("query", item.Query).Msg("Processing")
		if err := c.processItem(ctx, item); err != nil {
			if errors.Is(err, errLimitReached) {
				return nil
			}
			return err
		}
		c.stats.items.Add(1)
	}
}
