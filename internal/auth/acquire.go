package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/law-makers/evalcrawl/internal/utils/headers"
)

// PromptAcquirer asks the operator to paste a fresh cookie header. One
// PromptAcquirer should own its reader: every prompt of a run goes through it
// so no answer is buffered away by a second reader.
type PromptAcquirer struct {
	In  io.Reader
	Out io.Writer
	// Prompt replaces the default "session expired" message
	Prompt string

	start sync.Once
	lines chan promptLine
}

type promptLine struct {
	text string
	err  error
}

// NewPromptAcquirer reads answers from in and writes prompts to out
func NewPromptAcquirer(in io.Reader, out io.Writer) *PromptAcquirer {
	return &PromptAcquirer{In: in, Out: out}
}

// readLines is the only reader of In. It hands out one line per request and
// stops at the first read error.
func (p *PromptAcquirer) readLines() {
	reader := bufio.NewReader(p.In)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			p.lines <- promptLine{text: text}
		}
		if err != nil {
			p.lines <- promptLine{err: err}
			close(p.lines)
			return
		}
	}
}

// ReadLine prints prompt and returns the next input line, trimmed. A prompt
// abandoned through ctx leaves its line for the next call.
func (p *PromptAcquirer) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.start.Do(func() {
		p.lines = make(chan promptLine)
		go p.readLines()
	})

	fmt.Fprint(p.Out, prompt)
	select {
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(l.text), l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Ask repeats prompt until a non-empty cookie header is entered
func (p *PromptAcquirer) Ask(ctx context.Context, prompt string) (string, error) {
	for {
		text, err := p.ReadLine(ctx, "\n"+prompt)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			return "", fmt.Errorf("failed to read credential: %w", err)
		}
		if cookie := headers.NormalizeCookieHeader(text); cookie != "" {
			return cookie, nil
		}
	}
}

// Acquire blocks until a non-empty line is read or ctx is done
func (p *PromptAcquirer) Acquire(ctx context.Context) (string, error) {
	prompt := p.Prompt
	if prompt == "" {
		prompt = "Session expired. Paste a fresh Cookie header and press Enter: "
	}
	return p.Ask(ctx, prompt)
}

// StoredAcquirer re-reads a named stored session, so a session refreshed by
// 'evalcrawl session login' in another terminal is picked up
type StoredAcquirer struct {
	Store *SessionStore
	Name  string
}

// Acquire loads the session and renders its cookie header
func (s *StoredAcquirer) Acquire(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	session, err := s.Store.Load(s.Name)
	if err != nil {
		return "", err
	}
	return session.CookieHeader(), nil
}

// BrowserAcquirer runs the browser login and saves the result under opts.SessionName
type BrowserAcquirer struct {
	Options LoginOptions
	Store   *SessionStore
}

// Acquire opens the browser and returns the captured cookie header
func (b *BrowserAcquirer) Acquire(ctx context.Context) (string, error) {
	session, err := InteractiveLogin(ctx, b.Options)
	if err != nil {
		return "", err
	}
	if b.Store != nil && session.Name != "" {
		if err := b.Store.Save(session); err != nil {
			return "", fmt.Errorf("failed to save session: %w", err)
		}
	}
	return session.CookieHeader(), nil
}
