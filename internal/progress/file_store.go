// internal/progress/file_store.go
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// progressDocument is the on-disk checkpoint
type progressDocument struct {
	Completed   []string `json:"completed"`
	LastUpdated string   `json:"lastUpdated"`
}

// FileStore keeps the checkpoint as two JSON documents that are rewritten
// whole after every batch
type FileStore struct {
	evaluationsPath string
	progressPath    string
}

// NewFileStore stores evaluations and progress at the given paths
func NewFileStore(evaluationsPath, progressPath string) *FileStore {
	return &FileStore{evaluationsPath: evaluationsPath, progressPath: progressPath}
}

// Load reads both documents. Missing files mean an empty checkpoint.
// Every raw course code found in the evaluations document also counts as
// completed, so a crash between the two writes never duplicates records.
func (s *FileStore) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := NewState()

	evaluations, err := ReadEvaluations(s.evaluationsPath)
	if err != nil {
		return nil, err
	}
	if evaluations != nil {
		state.Evaluations = evaluations
	}

	data, err := os.ReadFile(s.progressPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read progress: %w", err)
	default:
		var doc progressDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse progress %s: %w", s.progressPath, err)
		}
		for _, code := range doc.Completed {
			state.Completed[code] = struct{}{}
		}
		if t, err := time.Parse(time.RFC3339, doc.LastUpdated); err == nil {
			state.LastUpdated = t
		}
	}

	recovered := 0
	for _, records := range state.Evaluations {
		for _, r := range records {
			if r.CourseCode == "" || state.IsCompleted(r.CourseCode) {
				continue
			}
			state.Completed[r.CourseCode] = struct{}{}
			recovered++
		}
	}
	if recovered > 0 {
		log.Warn().Int("codes", recovered).Msg("Recovered completed codes missing from progress file")
	}

	return state, nil
}

// Commit overwrites both documents: evaluations first, then progress
func (s *FileStore) Commit(ctx context.Context, state *State, _ []Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := WriteEvaluations(s.evaluationsPath, state.Evaluations); err != nil {
		return err
	}

	doc := progressDocument{
		Completed:   state.CompletedList(),
		LastUpdated: state.LastUpdated.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := AtomicWriteFile(s.progressPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

// Reset overwrites both documents with an empty checkpoint
func (s *FileStore) Reset(ctx context.Context) error {
	empty := NewState()
	empty.LastUpdated = time.Now()
	return s.Commit(ctx, empty, nil)
}

// Close is a no-op; every commit is already durable
func (s *FileStore) Close() error {
	return nil
}

// ReadEvaluations reads an evaluations-by-course document. A missing file returns nil, nil.
func ReadEvaluations(path string) (map[models.CourseKey][]models.EvaluationRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluations: %w", err)
	}

	evaluations := make(map[models.CourseKey][]models.EvaluationRecord)
	if err := json.Unmarshal(data, &evaluations); err != nil {
		return nil, fmt.Errorf("failed to parse evaluations %s: %w", path, err)
	}
	return evaluations, nil
}

// WriteEvaluations writes the compact evaluations-by-course document atomically
func WriteEvaluations(path string, evaluations map[models.CourseKey][]models.EvaluationRecord) error {
	if evaluations == nil {
		evaluations = map[models.CourseKey][]models.EvaluationRecord{}
	}
	data, err := json.Marshal(evaluations)
	if err != nil {
		return fmt.Errorf("failed to encode evaluations: %w", err)
	}
	if err := AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write evaluations: %w", err)
	}
	return nil
}
