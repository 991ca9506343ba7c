// internal/progress/state.go
package progress

import (
	"sort"
	"time"

	"github.com/law-makers/evalcrawl/pkg/models"
)

// Result is one successful extraction waiting to be recorded
type Result struct {
	Key models.CourseKey
	// CourseCodeRaw is the search row's raw course code, the completion identity
	CourseCodeRaw string
	Record        models.EvaluationRecord
}

// State is the resumable crawl checkpoint: accumulated evaluations grouped by
// course plus the set of raw course codes already extracted
type State struct {
	Evaluations map[models.CourseKey][]models.EvaluationRecord
	Completed   map[string]struct{}
	LastUpdated time.Time
}

// NewState returns an empty checkpoint
func NewState() *State {
	return &State{
		Evaluations: make(map[models.CourseKey][]models.EvaluationRecord),
		Completed:   make(map[string]struct{}),
	}
}

// IsCompleted reports whether a raw course code was already extracted
func (s *State) IsCompleted(courseCodeRaw string) bool {
	_, ok := s.Completed[courseCodeRaw]
	return ok
}

// Apply records a batch of results and returns the ones actually added.
// Results whose raw course code is already completed are skipped, so applying
// the same batch twice changes nothing.
func (s *State) Apply(batch []Result, now time.Time) []Result {
	var applied []Result
	for _, r := range batch {
		if r.CourseCodeRaw == "" || s.IsCompleted(r.CourseCodeRaw) {
			continue
		}
		s.Evaluations[r.Key] = append(s.Evaluations[r.Key], r.Record)
		s.Completed[r.CourseCodeRaw] = struct{}{}
		applied = append(applied, r)
	}
	s.LastUpdated = now
	return applied
}

// CompletedList returns the completed set sorted
func (s *State) CompletedList() []string {
	out := make([]string, 0, len(s.Completed))
	for code := range s.Completed {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Keys returns the CourseKeys that have at least one evaluation, sorted
func (s *State) Keys() []models.CourseKey {
	keys := make([]models.CourseKey, 0, len(s.Evaluations))
	for k, v := range s.Evaluations {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// EvaluationCount is the total number of stored evaluation records
func (s *State) EvaluationCount() int {
	n := 0
	for _, v := range s.Evaluations {
		n += len(v)
	}
	return n
}

// Clone returns a deep enough copy for read-only use outside the recorder
func (s *State) Clone() *State {
	c := &State{
		Evaluations: make(map[models.CourseKey][]models.EvaluationRecord, len(s.Evaluations)),
		Completed:   make(map[string]struct{}, len(s.Completed)),
		LastUpdated: s.LastUpdated,
	}
	for k, v := range s.Evaluations {
		c.Evaluations[k] = append([]models.EvaluationRecord(nil), v...)
	}
	for code := range s.Completed {
		c.Completed[code] = struct{}{}
	}
	return c
}
