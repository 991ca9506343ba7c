package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCredential_Headers(t *testing.T) {
	c := NewCredential("  ASP.NET_SessionId=abc  ", nil)
	require.Equal(t, map[string]string{"Cookie": "ASP.NET_SessionId=abc"}, c.Headers())

	value, version := c.Current()
	require.Equal(t, "ASP.NET_SessionId=abc", value)
	require.Equal(t, uint64(1), version)

	require.Empty(t, NewCredential("", nil).Headers())
}

func TestCredential_RefreshSharedAcrossWaiters(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	c := NewCredential("old", AcquirerFunc(func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "fresh", nil
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Refresh(context.Background(), 1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())

	value, version := c.Current()
	require.Equal(t, "fresh", value)
	require.Equal(t, uint64(2), version)
}

func TestCredential_RefreshStaleVersionIsNoop(t *testing.T) {
	var calls atomic.Int32
	c := NewCredential("old", AcquirerFunc(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "new", nil
	}))

	require.NoError(t, c.Refresh(context.Background(), 1))
	// A worker that read version 1 before the swap must not trigger a second prompt
	require.NoError(t, c.Refresh(context.Background(), 1))
	require.Equal(t, int32(1), calls.Load())
}

func TestCredential_RefreshErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewCredential("old", AcquirerFunc(func(ctx context.Context) (string, error) {
		return "", boom
	}))
	require.ErrorIs(t, c.Refresh(context.Background(), 1), boom)

	empty := NewCredential("old", AcquirerFunc(func(ctx context.Context) (string, error) {
		return "   ", nil
	}))
	require.ErrorIs(t, empty.Refresh(context.Background(), 1), ErrEmptyCredential)

	value, version := empty.Current()
	require.Equal(t, "old", value)
	require.Equal(t, uint64(1), version)

	require.Error(t, NewCredential("old", nil).Refresh(context.Background(), 1))
}

func TestCredential_RefreshCancelled(t *testing.T) {
	c := NewCredential("old", AcquirerFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Refresh(ctx, 1), context.DeadlineExceeded)
}

func TestPromptAcquirer_SkipsBlankLines(t *testing.T) {
	var out strings.Builder
	p := NewPromptAcquirer(strings.NewReader("\n   \nsid=42\n"), &out)

	value, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sid=42", value)
	require.Contains(t, out.String(), "Paste a fresh Cookie header")
}

func TestPromptAcquirer_EOF(t *testing.T) {
	var out strings.Builder
	p := NewPromptAcquirer(strings.NewReader(""), &out)

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
}

func TestPromptAcquirer_SharedAcrossPrompts(t *testing.T) {
	var out strings.Builder
	p := NewPromptAcquirer(strings.NewReader("Cookie: sid=1\nsid=2\n"), &out)

	first, err := p.Ask(context.Background(), "Paste the portal Cookie header: ")
	require.NoError(t, err)
	require.Equal(t, "sid=1", first)

	second, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sid=2", second)

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestPromptAcquirer_CancelledPromptKeepsLine(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()
	p := NewPromptAcquirer(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)

	go func() {
		_, _ = io.WriteString(w, "sid=3\n")
	}()
	value, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sid=3", value)
}
