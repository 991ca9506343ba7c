package ui

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/crawler"
)

// RenderSummary writes the crawl counters as a table
func RenderSummary(w io.Writer, s crawler.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Crawl summary")
	t.AppendHeader(table.Row{"Counter", "Value"})
	t.AppendRows([]table.Row{
		{"Work items", s.Items},
		{"Rows searched", s.Searched},
		{"Matched", s.Matched},
		{"Already done", s.Skipped},
		{"Extracted", s.Extracted},
		{"No data", s.Empty},
		{"Errors", s.Errors},
		{"Credential refreshes", s.Refreshes},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderMissing writes the missing-course report. Closest is the most similar
// key already present, a hint that the course may have been renumbered.
func RenderMissing(w io.Writer, missing []catalog.Missing) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Course", "Catalog ID", "Closest present", "Similarity"})

	for i, m := range missing {
		closest, similarity := "", ""
		if m.Closest != "" {
			closest = string(m.Closest)
			similarity = Similarity(m.Similarity)
		}
		t.AppendRow(table.Row{i + 1, string(m.Key), m.Entry.ID, closest, similarity})
	}

	t.AppendFooter(table.Row{"", "Missing", len(missing), "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
