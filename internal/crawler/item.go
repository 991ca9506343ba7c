package crawler

import (
	"context"
	"errors"
	"sync"

	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/portal"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/pkg/models"
)

var (
	errLimitReached = errors.New("extraction limit reached")
	// ErrStillExpired is returned when fresh credentials keep being rejected
	ErrStillExpired = errors.New("session still rejected after refreshing credentials")
)

// maxRefreshes bounds consecutive refreshes for one search or batch
const maxRefreshes = 3

// processItem searches, matches and extracts one work item
func (c *Crawler) processItem(ctx context.Context, item WorkItem) error {
	logger := reqctx.Logger(ctx).With().Str("query", item.Query).Logger()

	records, err := c.search(ctx, item.Query)
	if err != nil {
		return err
	}
	c.stats.searched.Add(int64(len(records)))

	codes := make([]string, len(records))
	for i, r := range records {
		codes[i] = r.CourseCodeRaw
	}
	completed, err := c.recorder.Completed(ctx, codes)
	if err != nil {
		return err
	}

	matches := catalog.Filter(records, c.lookup, func(code string) bool { return completed[code] }, item.Terms...)
	c.stats.matched.Add(int64(len(matches)))
	c.stats.skipped.Add(int64(len(completed)))

	logger.Info().
		Int("results", len(records)).
		Int("matched", len(matches)).
		Int("already_done", len(completed)).
		Msg("Search complete")

	for start := 0; start < len(matches); start += c.opts.Concurrency {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := matches[start:min(start+c.opts.Concurrency, len(matches))]
		granted := c.budget.take(len(batch))
		if granted == 0 {
			return errLimitReached
		}
		batch = batch[:granted]

		if err := c.runBatch(ctx, batch); err != nil {
			return err
		}

		if c.budget.exhausted() {
			return errLimitReached
		}
		if start+c.opts.Concurrency < len(matches) {
			if err := c.sleep(ctx, c.opts.BatchDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// search collects every row for query, restarting from page 1 after a
// credential refresh
func (c *Crawler) search(ctx context.Context, query string) ([]models.SearchResultRecord, error) {
	for attempt := 0; ; attempt++ {
		var records []models.SearchResultRecord
		var searchErr error

		for rec, err := range c.portal.Search(ctx, query) {
			if err != nil {
				searchErr = err
				break
			}
			records = append(records, rec)
		}

		if searchErr == nil {
			return records, nil
		}
		if !portal.IsSessionExpired(searchErr) {
			return nil, searchErr
		}

		if attempt >= maxRefreshes {
			return nil, ErrStillExpired
		}
		version, _ := portal.ExpiredVersion(searchErr)
		if err := c.refresh(ctx, version); err != nil {
			return nil, err
		}
		reqctx.Logger(ctx).Info().Str("query", query).Msg("Restarting search with refreshed credential")
	}
}

type outcome struct {
	match  catalog.Match
	record *models.EvaluationRecord
	err    error
}

// runBatch fetches every report of the batch at once, then records the
// successes as one unit. Reports rejected for session expiry are retried
// after a refresh; everything else that failed is left for a later resume.
func (c *Crawler) runBatch(ctx context.Context, batch []catalog.Match) error {
	logger := reqctx.Logger(ctx)
	pending := batch

	for attempt := 0; len(pending) > 0; attempt++ {
		outcomes := make([]outcome, len(pending))
		var wg sync.WaitGroup
		for i, m := range pending {
			wg.Add(1)
			go func(i int, m catalog.Match) {
				defer wg.Done()
				rec, err := c.portal.FetchReport(ctx, m.Record)
				outcomes[i] = outcome{match: m, record: rec, err: err}
			}(i, m)
		}
		wg.Wait()

		// a cancelled batch is dropped whole
		if err := ctx.Err(); err != nil {
			return err
		}

		var results []progress.Result
		var expired []catalog.Match
		var staleVersion uint64

		for _, o := range outcomes {
			switch {
			case o.err == nil && o.record != nil:
				results = append(results, progress.Result{
					Key:           o.match.Key,
					CourseCodeRaw: o.match.Record.CourseCodeRaw,
					Record:        *o.record,
				})
			case o.err == nil:
				c.stats.empty.Add(1)
				logger.Debug().Str("course_code", o.match.Record.CourseCodeRaw).Msg("Report has no data")
			case portal.IsSessionExpired(o.err):
				expired = append(expired, o.match)
				if v, ok := portal.ExpiredVersion(o.err); ok && v > staleVersion {
					staleVersion = v
				}
			default:
				c.stats.errors.Add(1)
				logger.Warn().
					Err(o.err).
					Str("course_code", o.match.Record.CourseCodeRaw).
					Str("report", o.match.Record.ReportIdentifier).
					Msg("Report extraction failed, leaving for resume")
			}
		}

		if len(results) > 0 {
			n, err := c.recorder.Record(ctx, results)
			if err != nil {
				return err
			}
			c.stats.extracted.Add(int64(n))
			if c.opts.OnExtracted != nil && n > 0 {
				c.opts.OnExtracted(n)
			}
		}

		if len(expired) == 0 {
			return nil
		}
		logger.Warn().Int("reports", len(expired)).Msg("Session expired during batch")
		if attempt >= maxRefreshes {
			return ErrStillExpired
		}
		if err := c.refresh(ctx, staleVersion); err != nil {
			return err
		}
		pending = expired
	}
	return nil
}

func (c *Crawler) refresh(ctx context.Context, staleVersion uint64) error {
	c.stats.refreshes.Add(1)
	if c.refresher == nil {
		return portal.ErrSessionExpired
	}
	return c.refresher.Refresh(ctx, staleVersion)
}
