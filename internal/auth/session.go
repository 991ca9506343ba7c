// internal/auth/session.go
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/law-makers/evalcrawl/internal/utils/headers"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "evalcrawl"
	// FallbackDir is the directory for file-based session storage (when keyring fails)
	FallbackDir = ".evalcrawl/sessions"

	manifestKey = "_manifest"
)

// SessionData is a stored portal login
type SessionData struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// CookieHeader renders the cookies as a single Cookie header value
func (s *SessionData) CookieHeader() string {
	pairs := make([]headers.CookiePair, len(s.Cookies))
	for i, c := range s.Cookies {
		pairs[i] = headers.CookiePair{Name: c.Name, Value: c.Value}
	}
	return headers.JoinCookies(pairs)
}

// ParseCookieHeader splits a "a=1; b=2" header value into cookies for domain
func ParseCookieHeader(header, domain string) []Cookie {
	var cookies []Cookie
	for _, p := range headers.ParseCookies(header) {
		cookies = append(cookies, Cookie{
			Name:   p.Name,
			Value:  p.Value,
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}

// SessionStore saves sessions in the OS keyring, or as files when no keyring is reachable
type SessionStore struct {
	dir        string
	useKeyring bool
}

// NewSessionStore probes the keyring once and falls back to ~/.evalcrawl/sessions
func NewSessionStore() (*SessionStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return &SessionStore{
		dir:        filepath.Join(home, FallbackDir),
		useKeyring: keyringAvailable(),
	}, nil
}

// NewFileSessionStore stores sessions as files under dir only
func NewFileSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

// keyringAvailable checks whether the keyring can be written in this environment.
// Codespaces and CI never have one.
func keyringAvailable() bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}

	testKey := "_test_keyring_access_"
	if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(KeyringService, testKey)
	return true
}

func (s *SessionStore) path(name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save stores a session and records it in the keyring manifest
func (s *SessionStore) Save(session *SessionData) error {
	if session.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if !s.useKeyring {
		path, err := s.path(session.Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return s.updateManifest(session.Name, true)
}

// Load reads a session by name and rejects it once its cookies have expired
func (s *SessionStore) Load(name string) (*SessionData, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	var data string
	if !s.useKeyring {
		path, err := s.path(name)
		if err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
		data = string(raw)
	} else {
		v, err := keyring.Get(KeyringService, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = v
	}

	var session SessionData
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("session %q expired at %s", name, session.ExpiresAt.Format(time.RFC3339))
	}

	return &session, nil
}

// Delete removes a stored session
func (s *SessionStore) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if !s.useKeyring {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return s.updateManifest(name, false)
}

// List returns the names of all stored sessions, sorted
func (s *SessionStore) List() ([]string, error) {
	if !s.useKeyring {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}

		var names []string
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		sort.Strings(names)
		return names, nil
	}

	manifest, err := keyring.Get(KeyringService, manifestKey)
	if err != nil {
		// No manifest exists yet
		return []string{}, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(manifest), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// updateManifest adds or removes a session from the keyring manifest
func (s *SessionStore) updateManifest(name string, add bool) error {
	names, _ := s.List()

	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	if add {
		kept = append(kept, name)
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}

// EarliestExpiry returns the soonest cookie expiry, or the zero time if none expire
func EarliestExpiry(cookies []Cookie) time.Time {
	var earliest time.Time
	for _, c := range cookies {
		if c.Expires <= 0 {
			continue
		}
		expiry := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || expiry.Before(earliest) {
			earliest = expiry
		}
	}
	return earliest
}
