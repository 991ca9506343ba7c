package crawler

import (
	"context"

	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/progress"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/pkg/models"
)

// TermItems makes one work item per term: search by term code, accept only that term
func TermItems(terms []models.TermDescriptor) []WorkItem {
	items := make([]WorkItem, 0, len(terms))
	for _, t := range terms {
		items = append(items, WorkItem{Query: t.Code, Terms: []string{t.Code}})
	}
	return items
}

// CourseItems makes one work item per "SUBJECT NUMBER" query, accepting any configured term
func CourseItems(queries []string, terms []models.TermDescriptor) []WorkItem {
	codes := make([]string, len(terms))
	for i, t := range terms {
		codes[i] = t.Code
	}
	items := make([]WorkItem, 0, len(queries))
	for _, q := range queries {
		items = append(items, WorkItem{Query: q, Terms: codes})
	}
	return items
}

// RunTerms crawls every term
func (c *Crawler) RunTerms(ctx context.Context, terms []models.TermDescriptor) (Summary, error) {
	return c.Run(ctx, TermItems(terms))
}

// RunCourses crawls the given course queries across every term
func (c *Crawler) RunCourses(ctx context.Context, queries []string, terms []models.TermDescriptor) (Summary, error) {
	return c.Run(ctx, CourseItems(queries, terms))
}

// RetryMissing crawls only catalog entries that have no evaluations yet
func (c *Crawler) RetryMissing(ctx context.Context, entries []models.CatalogEntry, terms []models.TermDescriptor) (Summary, error) {
	var present []models.CourseKey
	if err := c.recorder.View(ctx, func(s *progress.State) { present = s.Keys() }); err != nil {
		return Summary{}, err
	}

	missing := catalog.FindMissing(entries, present)
	reqctx.Logger(ctx).Info().Int("missing", len(missing)).Msg("Retrying missing courses")
	return c.Run(ctx, CourseItems(catalog.Queries(missing), terms))
}
