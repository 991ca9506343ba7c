// internal/portal/search.go
package portal

import (
	"context"
	"errors"
	"iter"
	"strconv"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// emptyPageLimit is the number of consecutive empty pages that ends a search
const emptyPageLimit = 2

// Search lazily yields every result row for query, starting from page 1.
//
// The sequence ends when page 1 is empty, when a JSON page says hasMore=false,
// after two consecutive empty pages, after MaxPages, or when a page fails
// permanently. Session expiry and cancellation are yielded as errors and end
// the sequence; the caller may refresh and search again.
func (c *Client) Search(ctx context.Context, query string) iter.Seq2[models.SearchResultRecord, error] {
	return func(yield func(models.SearchResultRecord, error) bool) {
		if c.opts.Cache != nil {
			if cached, ok := c.opts.Cache.Get(query); ok {
				log.Debug().Str("query", query).Int("records", len(cached)).Msg("Search cache hit")
				for _, rec := range cached {
					if !yield(rec, nil) {
						return
					}
				}
				return
			}
		}

		var collected []models.SearchResultRecord
		emit := func(recs []models.SearchResultRecord) bool {
			for _, rec := range recs {
				collected = append(collected, rec)
				if !yield(rec, nil) {
					return false
				}
			}
			return true
		}

		complete, err := c.paginate(ctx, query, emit)
		if err != nil {
			yield(models.SearchResultRecord{}, err)
			return
		}
		if complete && c.opts.Cache != nil {
			c.opts.Cache.Add(query, collected)
		}
	}
}

// paginate walks pages until a termination rule fires. It returns complete=true
// only when the walk ended on a natural termination rule.
func (c *Client) paginate(ctx context.Context, query string, emit func([]models.SearchResultRecord) bool) (bool, error) {
	logger := log.With().Str("query", query).Logger()

	body, err := c.getWithRetry(ctx, c.opts.PageRetry, SearchPath, map[string]string{"search": query})
	if err != nil {
		if fatalForSearch(ctx, err) {
			return false, err
		}
		logger.Warn().Err(err).Msg("Search failed, skipping query")
		return false, nil
	}

	first := ParseRowsHTML(string(body))
	logger.Debug().Int("page", 1).Int("records", len(first)).Msg("Search page parsed")
	if len(first) == 0 {
		return true, nil
	}
	if !emit(first) {
		return false, nil
	}

	empty := 0
	for page := 2; ; page++ {
		if c.opts.MaxPages > 0 && page > c.opts.MaxPages {
			logger.Warn().Int("max_pages", c.opts.MaxPages).Msg("Page limit reached, stopping search")
			return true, nil
		}

		if err := c.sleep(ctx, c.opts.PageDelay); err != nil {
			return false, err
		}

		body, err := c.getWithRetry(ctx, c.opts.PageRetry, PagePath, map[string]string{
			"search": query,
			"page":   strconv.Itoa(page),
			"_":      strconv.FormatInt(c.now().UnixMilli(), 10),
		})
		if err != nil {
			if fatalForSearch(ctx, err) {
				return false, err
			}
			logger.Warn().Err(err).Int("page", page).Msg("Page failed permanently, stopping search")
			return false, nil
		}

		parsed := ClassifyPage(body)
		records := parsed.Records()
		logger.Debug().
			Int("page", page).
			Str("shape", parsed.Kind.String()).
			Int("records", len(records)).
			Msg("Search page parsed")

		if !emit(records) {
			return false, nil
		}
		if parsed.Done() {
			return true, nil
		}

		if len(records) == 0 {
			empty++
			if empty >= emptyPageLimit {
				return true, nil
			}
		} else {
			empty = 0
		}
	}
}

func fatalForSearch(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}
	return IsSessionExpired(err)
}
