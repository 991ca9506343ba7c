package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/law-makers/evalcrawl/internal/catalog"
	"github.com/law-makers/evalcrawl/internal/crawler"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, crawler.Summary{Searched: 120, Matched: 9, Extracted: 7, Errors: 2, Duration: 1500 * time.Millisecond})

	out := buf.String()
	require.Contains(t, out, "Extracted")
	require.Contains(t, out, "120")
	require.Contains(t, out, "1.5s")
}

func TestRenderMissing(t *testing.T) {
	var buf bytes.Buffer
	RenderMissing(&buf, []catalog.Missing{
		{Entry: models.CatalogEntry{Subject: "CS", Code: "106X", ID: "1234"}, Key: "CS 106X", Closest: "CS 106A", Similarity: 0.95},
		{Entry: models.CatalogEntry{Subject: "ART", Code: "1"}, Key: "ART 1"},
	})

	out := buf.String()
	require.Contains(t, out, "CS 106X")
	require.Contains(t, out, "CS 106A")
	require.Contains(t, out, "0.95")
	require.Contains(t, out, "ART 1")
}

func TestStyledStrings(t *testing.T) {
	require.Equal(t, ColorGreen+"ok"+ColorReset, Success("ok"))
	require.Equal(t, ColorRed+"bad"+ColorReset, Error("bad"))
	require.Equal(t, "  "+Bold("Session:")+" stanford", Field("Session", "stanford"))
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, Success("0.95"), Similarity(0.95))
	require.Equal(t, Warn("0.80"), Similarity(0.8))
	require.Equal(t, ColorDim+"0.50"+ColorReset, Similarity(0.5))
}

func TestNewExtractionCounter_Quiet(t *testing.T) {
	c := NewExtractionCounter(&bytes.Buffer{}, 0, true)
	require.NoError(t, c.Add(3))
	require.NoError(t, c.Finish())
}
