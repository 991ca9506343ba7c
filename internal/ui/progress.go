package ui

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Counter tracks extracted evaluations while a crawl runs
type Counter interface {
	Add(n int) error
	Finish() error
}

type nopCounter struct{}

func (nopCounter) Add(int) error  { return nil }
func (nopCounter) Finish() error { return nil }

// NewExtractionCounter returns a spinner counting extractions, or a no-op
// counter when output is quiet or machine readable. limit > 0 shows a bar.
func NewExtractionCounter(w io.Writer, limit int, quiet bool) Counter {
	if quiet {
		return nopCounter{}
	}
	total := -1
	if limit > 0 {
		total = limit
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("reports"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
