package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/stretchr/testify/require"
)

func wrapped(t *testing.T, hasMore *bool, codes ...string) string {
	t.Helper()
	results := make([]string, len(codes))
	for i, c := range codes {
		results[i] = rowHTML(c)
	}
	payload := map[string]interface{}{"results": results}
	if hasMore != nil {
		payload["hasMore"] = *hasMore
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func bareString(t *testing.T, codes ...string) string {
	t.Helper()
	data, err := json.Marshal(pageHTML(codes...))
	require.NoError(t, err)
	return string(data)
}

func collect(t *testing.T, c *Client, query string) ([]models.SearchResultRecord, error) {
	t.Helper()
	var records []models.SearchResultRecord
	for rec, err := range c.Search(context.Background(), query) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func boolPtr(b bool) *bool { return &b }

func TestSearch_EmptyFirstPage(t *testing.T) {
	f := &fakePortal{pages: []string{pageHTML()}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, []string{"1"}, f.requests)
}

func TestSearch_MixedShapesUntilTwoEmptyPages(t *testing.T) {
	f := &fakePortal{pages: []string{
		pageHTML("F25-CS-106A-01", "F25-CS-106B-01"),
		wrapped(t, boolPtr(true), "F25-CS-107-01"),
		bareString(t, "F25-CS-109-01"),
		pageHTML("F25-CS-110-01"),
		"",
		wrapped(t, nil),
		pageHTML("F25-CS-999-01"), // never reached
	}}
	server := startPortal(t, f)
	c, sleeps := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Equal(t, []string{
		"F25-CS-106A-01", "F25-CS-106B-01", "F25-CS-107-01", "F25-CS-109-01", "F25-CS-110-01",
	}, codesOf(records))
	require.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, f.requests)

	// one fixed delay before every page after the first
	require.Len(t, sleeps.delays, 5)
	for _, d := range sleeps.delays {
		require.Equal(t, 250*time.Millisecond, d)
	}
}

func TestSearch_EmptyPageStreakResets(t *testing.T) {
	f := &fakePortal{pages: []string{
		pageHTML("F25-A-1-01"),
		"",
		pageHTML("F25-A-2-01"),
		"",
		"",
	}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Equal(t, []string{"F25-A-1-01", "F25-A-2-01"}, codesOf(records))
	require.Len(t, f.requests, 5)
}

func TestSearch_HasMoreFalseStops(t *testing.T) {
	f := &fakePortal{pages: []string{
		pageHTML("F25-CS-106A-01"),
		wrapped(t, boolPtr(false), "F25-CS-107-01"),
		pageHTML("F25-CS-999-01"),
	}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Equal(t, []string{"F25-CS-106A-01", "F25-CS-107-01"}, codesOf(records))
	require.Equal(t, []string{"1", "2"}, f.requests)
}

func TestSearch_PageFailureStopsWithoutError(t *testing.T) {
	f := &fakePortal{
		pages:    []string{pageHTML("F25-CS-106A-01")},
		statuses: map[int]int{2: http.StatusBadGateway},
	}
	server := startPortal(t, f)
	c, sleeps := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Equal(t, []string{"F25-CS-106A-01"}, codesOf(records))
	// page 2 tried three times
	require.Equal(t, []string{"1", "2", "2", "2"}, f.requests)
	// page delay, then the two page retry backoffs
	require.Equal(t, []time.Duration{250 * time.Millisecond, 2 * time.Second, 4 * time.Second}, sleeps.delays)
}

func TestSearch_SessionExpiryIsYielded(t *testing.T) {
	f := &fakePortal{
		pages:    []string{pageHTML("F25-CS-106A-01")},
		statuses: map[int]int{2: http.StatusUnauthorized},
	}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	records, err := collect(t, c, "F25")
	require.Error(t, err)
	require.True(t, IsSessionExpired(err))
	version, ok := ExpiredVersion(err)
	require.True(t, ok)
	require.Equal(t, uint64(1), version)
	require.Len(t, records, 1)
	// not retried locally
	require.Equal(t, []string{"1", "2"}, f.requests)
}

func TestSearch_MaxPages(t *testing.T) {
	f := &fakePortal{pages: []string{
		pageHTML("F25-A-1-01"),
		pageHTML("F25-A-2-01"),
		pageHTML("F25-A-3-01"),
	}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)
	c.opts.MaxPages = 2

	records, err := collect(t, c, "F25")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestSearch_EarlyBreak(t *testing.T) {
	f := &fakePortal{pages: []string{pageHTML("F25-A-1-01", "F25-A-2-01"), pageHTML("F25-A-3-01")}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	for range c.Search(context.Background(), "F25") {
		break
	}
	require.Equal(t, []string{"1"}, f.requests)
}

func TestSearch_CachesCompleteResults(t *testing.T) {
	f := &fakePortal{pages: []string{pageHTML("CS-106A-01"), wrapped(t, boolPtr(false))}}
	server := startPortal(t, f)
	cache := &mapCache{}
	c, _ := newTestClient(t, server.URL, cache)

	first, err := collect(t, c, "CS 106A")
	require.NoError(t, err)
	second, err := collect(t, c, "CS 106A")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, []string{"1", "2"}, f.requests)
}

func TestSearch_Cancelled(t *testing.T) {
	f := &fakePortal{pages: []string{pageHTML("F25-A-1-01"), pageHTML("F25-A-2-01")}}
	server := startPortal(t, f)
	c, _ := newTestClient(t, server.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var gotErr error
	for _, err := range c.Search(ctx, "F25") {
		if err != nil {
			gotErr = err
			break
		}
		cancel()
	}
	require.ErrorIs(t, gotErr, context.Canceled)
}
