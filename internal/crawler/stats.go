package crawler

import (
	"sync/atomic"
	"time"
)

// Stats are the live crawl counters, safe for concurrent use
type Stats struct {
	items     atomic.Int64
	searched  atomic.Int64
	matched   atomic.Int64
	skipped   atomic.Int64
	extracted atomic.Int64
	empty     atomic.Int64
	errors    atomic.Int64
	refreshes atomic.Int64
}

// Summary is a point-in-time copy of Stats
type Summary struct {
	Items     int64         `json:"items"`
	Searched  int64         `json:"searched"`
	Matched   int64         `json:"matched"`
	Skipped   int64         `json:"skipped"`
	Extracted int64         `json:"extracted"`
	Empty     int64         `json:"empty"`
	Errors    int64         `json:"errors"`
	Refreshes int64         `json:"refreshes"`
	Duration  time.Duration `json:"duration"`
}

// Summary snapshots the counters
func (s *Stats) Summary(elapsed time.Duration) Summary {
	return Summary{
		Items:     s.items.Load(),
		Searched:  s.searched.Load(),
		Matched:   s.matched.Load(),
		Skipped:   s.skipped.Load(),
		Extracted: s.extracted.Load(),
		Empty:     s.empty.Load(),
		Errors:    s.errors.Load(),
		Refreshes: s.refreshes.Load(),
		Duration:  elapsed,
	}
}
