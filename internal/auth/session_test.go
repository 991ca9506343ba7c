package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileSessionStore_SaveLoadListDelete(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())

	session := &SessionData{
		Name:      "stanford",
		URL:       "https://portal.example.edu/",
		Cookies:   ParseCookieHeader("ASP.NET_SessionId=abc; .AspNet.Cookies=xyz", "portal.example.edu"),
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Save(session))
	require.NoError(t, store.Save(&SessionData{Name: "backup"}))

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"backup", "stanford"}, names)

	loaded, err := store.Load("stanford")
	require.NoError(t, err)
	require.Equal(t, "ASP.NET_SessionId=abc; .AspNet.Cookies=xyz", loaded.CookieHeader())

	require.NoError(t, store.Delete("stanford"))
	_, err = store.Load("stanford")
	require.Error(t, err)

	// Deleting twice is not an error
	require.NoError(t, store.Delete("stanford"))
}

func TestFileSessionStore_ExpiredSession(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	require.NoError(t, store.Save(&SessionData{
		Name:      "old",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := store.Load("old")
	require.ErrorContains(t, err, "expired")
}

func TestSessionStore_EmptyName(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	require.Error(t, store.Save(&SessionData{}))
	_, err := store.Load("")
	require.Error(t, err)
	require.Error(t, store.Delete(""))
}

func TestParseCookieHeader(t *testing.T) {
	cookies := ParseCookieHeader(" a=1 ;b = 2; junk ; =x; c=", "example.edu")
	require.Len(t, cookies, 3)
	require.Equal(t, "a", cookies[0].Name)
	require.Equal(t, "2", cookies[1].Value)
	require.Equal(t, "c", cookies[2].Name)
	require.Equal(t, "", cookies[2].Value)
}

func TestEarliestExpiry(t *testing.T) {
	require.True(t, EarliestExpiry([]Cookie{{Expires: -1}, {Expires: 0}}).IsZero())

	got := EarliestExpiry([]Cookie{{Expires: 2000}, {Expires: 1000}, {Expires: -1}})
	require.Equal(t, int64(1000), got.Unix())
}

func TestStoredAcquirer(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	require.NoError(t, store.Save(&SessionData{
		Name:    "main",
		Cookies: []Cookie{{Name: "sid", Value: "v2"}},
	}))

	acq := &StoredAcquirer{Store: store, Name: "main"}
	value, err := acq.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sid=v2", value)

	missing := &StoredAcquirer{Store: store, Name: "nope"}
	_, err = missing.Acquire(context.Background())
	require.Error(t, err)
}
