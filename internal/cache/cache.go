// internal/cache/cache.go
package cache

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// SearchCache keeps fully paginated search results for the length of a crawl.
//
// Retry-missing mode searches by course, and cross-listed catalog entries
// often produce the same query more than once.
type SearchCache struct {
	lru    *expirable.LRU[string, []models.SearchResultRecord]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding up to size queries for ttl each
func New(size int, ttl time.Duration) *SearchCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SearchCache{
		lru: expirable.NewLRU[string, []models.SearchResultRecord](size, nil, ttl),
	}
}

// Key normalises a query so "cs  106a" and "CS 106A" share an entry
func Key(query string) string {
	return strings.ToUpper(strings.Join(strings.Fields(query), " "))
}

// Get returns a copy of the cached records for query
func (c *SearchCache) Get(query string) ([]models.SearchResultRecord, bool) {
	records, ok := c.lru.Get(Key(query))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return append([]models.SearchResultRecord(nil), records...), true
}

// Add stores the records for query
func (c *SearchCache) Add(query string, records []models.SearchResultRecord) {
	stored := append([]models.SearchResultRecord(nil), records...)
	c.lru.Add(Key(query), stored)
	log.Debug().Str("query", query).Int("records", len(stored)).Msg("Cached search results")
}

// Stats returns cache statistics including hit rate
func (c *SearchCache) Stats() map[string]interface{} {
	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return map[string]interface{}{
		"entries":  c.lru.Len(),
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	}
}
