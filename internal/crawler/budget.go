package crawler

import "sync/atomic"

// budget is the shared extraction allowance for one run
type budget struct {
	limited   bool
	remaining atomic.Int64
}

func newBudget(limit int) *budget {
	b := &budget{limited: limit > 0}
	b.remaining.Store(int64(limit))
	return b
}

// take reserves up to n extractions and returns how many were granted
func (b *budget) take(n int) int {
	if !b.limited {
		return n
	}
	for {
		left := b.remaining.Load()
		if left <= 0 {
			return 0
		}
		grant := min(int64(n), left)
		if b.remaining.CompareAndSwap(left, left-grant) {
			return int(grant)
		}
	}
}

func (b *budget) exhausted() bool {
	return b.limited && b.remaining.Load() <= 0
}
