// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"
)

// Lookup maps "SUBJECT-NUMBER" to the CourseKey it belongs to
type Lookup map[string]models.CourseKey

// LookupKey builds the lookup key for a subject and course number
func LookupKey(subject, number string) string {
	s := strings.Join(strings.Fields(strings.ToUpper(subject)), "")
	n := strings.Join(strings.Fields(strings.ToUpper(number)), "")
	return s + "-" + n
}

// catalogFile is either a bare list of entries or an object wrapping one
type catalogFile struct {
	Courses []models.CatalogEntry `json:"courses"`
}

// LoadFiles reads one or more catalog files. Files may be plain JSON or JSON5.
func LoadFiles(paths ...string) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}

		var list []models.CatalogEntry
		if err := json5.Unmarshal(data, &list); err != nil {
			var wrapped catalogFile
			if werr := json5.Unmarshal(data, &wrapped); werr != nil {
				return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
			}
			list = wrapped.Courses
		}

		log.Debug().Str("path", path).Int("entries", len(list)).Msg("Catalog loaded")
		entries = append(entries, list...)
	}

	return entries, nil
}

// NewLookup indexes entries by "SUBJECT-NUMBER". Entries without a subject or code are skipped.
func NewLookup(entries []models.CatalogEntry) Lookup {
	lookup := make(Lookup, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Subject) == "" || strings.TrimSpace(e.Code) == "" {
			continue
		}
		key := LookupKey(e.Subject, e.Code)
		if _, exists := lookup[key]; !exists {
			lookup[key] = e.Key()
		}
	}
	return lookup
}

// Keys returns the distinct CourseKeys in the lookup, sorted
func (l Lookup) Keys() []models.CourseKey {
	seen := make(map[models.CourseKey]struct{}, len(l))
	keys := make([]models.CourseKey, 0, len(l))
	for _, k := range l {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
