package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/evalcrawl/internal/auth"
	"github.com/law-makers/evalcrawl/internal/ratelimit"
	"github.com/law-makers/evalcrawl/internal/retry"
	"github.com/law-makers/evalcrawl/pkg/models"
)

// recordedSleeps collects every delay a client asked for instead of sleeping
type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestClient(t *testing.T, baseURL string, cache SearchCache) (*Client, *recordedSleeps) {
	t.Helper()

	sleeps := &recordedSleeps{}
	reportRetry := retry.DefaultConfig()
	reportRetry.Sleep = sleeps.sleep
	pageRetry := retry.PageConfig()
	pageRetry.Sleep = sleeps.sleep

	c := NewClient(Options{
		BaseURL:     baseURL,
		UserAgent:   "evalcrawl-test",
		Timeout:     5 * time.Second,
		ReportRetry: reportRetry,
		PageRetry:   pageRetry,
		PageDelay:   250 * time.Millisecond,
		Cache:       cache,
	}, auth.NewCredential("sid=test", nil), ratelimit.NewHostLimiter(0, 0))
	c.sleep = sleeps.sleep
	return c, sleeps
}

// rowHTML renders one search result row the way the portal does
func rowHTML(code string) string {
	return fmt.Sprintf(`<div class="sr-dataitem">
  <a class="sr-view-report" data-id0="%[1]s" data-id1="10" data-id2="20" data-id3="30" href="#">View</a>
  <span class="sr-dataitem-info-code">%[1]s</span>
  <span class="sr-dataitem-info-title">Programming
     Methodology</span>
  <span class="sr-dataitem-info-instr">Smith, Jane</span>
  <span class="sr-dataitem-info-term">Fall 2025</span>
  <span class="sr-dataitem-info-resp">42 of 80</span>
</div>`, code)
}

func pageHTML(codes ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"results\">")
	for _, c := range codes {
		b.WriteString(rowHTML(c))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func codesOf(records []models.SearchResultRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.CourseCodeRaw
	}
	return out
}

// fakePortal serves a scripted search. pages[0] is page 1; later entries are
// raw bodies for /Search/Page. Pages past the end are empty.
type fakePortal struct {
	mu       sync.Mutex
	pages    []string
	statuses map[int]int
	requests []string
}

func (f *fakePortal) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		page := 1
		switch r.URL.Path {
		case SearchPath:
		case PagePath:
			fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
			if r.URL.Query().Get("_") == "" {
				t.Errorf("page %d requested without cache buster", page)
			}
		default:
			http.NotFound(w, r)
			return
		}
		f.requests = append(f.requests, fmt.Sprintf("%d", page))

		if status, ok := f.statuses[page]; ok {
			w.WriteHeader(status)
			return
		}
		if page-1 < len(f.pages) {
			w.Write([]byte(f.pages[page-1]))
		}
	})
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]models.SearchResultRecord
}

func (c *mapCache) Get(q string) ([]models.SearchResultRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[q]
	return r, ok
}

func (c *mapCache) Add(q string, recs []models.SearchResultRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]models.SearchResultRecord{}
	}
	c.m[q] = recs
}

func startPortal(t *testing.T, f *fakePortal) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)
	return server
}
