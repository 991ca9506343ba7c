package catalog

import (
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/law-makers/evalcrawl/pkg/models"
)

// Missing is a catalog course with no evaluations yet
type Missing struct {
	Entry models.CatalogEntry
	Key   models.CourseKey
	// Closest is the most similar CourseKey that does have evaluations, often a renumbered course
	Closest    models.CourseKey
	Similarity float64
}

// FindMissing lists catalog entries whose CourseKey is absent from present,
// one per key, sorted by key
func FindMissing(entries []models.CatalogEntry, present []models.CourseKey) []Missing {
	have := make(map[models.CourseKey]struct{}, len(present))
	for _, k := range present {
		have[k] = struct{}{}
	}

	seen := make(map[models.CourseKey]struct{})
	var missing []Missing

	for _, e := range entries {
		if e.Subject == "" || e.Code == "" {
			continue
		}
		key := e.Key()
		if _, ok := have[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		m := Missing{Entry: e, Key: key}
		for _, p := range present {
			similarity := matchr.JaroWinkler(string(key), string(p), false)
			if similarity > m.Similarity {
				m.Similarity = similarity
				m.Closest = p
			}
		}
		missing = append(missing, m)
	}

	sort.Slice(missing, func(i, j int) bool { return missing[i].Key < missing[j].Key })
	return missing
}

// Queries turns missing entries into course search queries ("SUBJECT NUMBER")
func Queries(missing []Missing) []string {
	queries := make([]string, len(missing))
	for i, m := range missing {
		queries[i] = string(m.Key)
	}
	return queries
}
