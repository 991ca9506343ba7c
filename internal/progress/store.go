package progress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the checkpoint
type Store interface {
	// Load returns the persisted state, or an empty one if nothing was saved yet
	Load(ctx context.Context) (*State, error)
	// Commit durably records a batch that has already been applied to state.
	// A failed commit must leave the previously persisted checkpoint intact.
	Commit(ctx context.Context, state *State, applied []Result) error
	// Reset discards the persisted checkpoint before a fresh crawl
	Reset(ctx context.Context) error
	Close() error
}

// Kind selects a Store implementation
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
)

// Paths locates the persisted documents
type Paths struct {
	Evaluations string
	Progress    string
	Database    string
}

// Open creates the store of the given kind
func Open(kind Kind, paths Paths) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(paths.Evaluations, paths.Progress), nil
	case KindSQLite:
		return NewSQLiteStore(paths.Database)
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

// AtomicWriteFile writes data to a temp file beside path, fsyncs it and renames
// it over path, so readers see either the old or the new document
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup temp file on error
	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	tmpFile = nil

	return nil
}
