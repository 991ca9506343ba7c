package catalog

import (
	"strings"

	"github.com/law-makers/evalcrawl/pkg/models"
)

// Match is a search result resolved to a catalog course
type Match struct {
	Record models.SearchResultRecord
	Key    models.CourseKey
}

// Resolve maps a raw, possibly cross-listed, course code to a CourseKey.
//
// courseCodeRaw is split on "/" and each segment on "-". A segment counts only
// if it has at least three parts and its term code is one of termCodes. The
// first segment found in the lookup wins.
func Resolve(rec models.SearchResultRecord, lookup Lookup, termCodes ...string) (models.CourseKey, bool) {
	for _, segment := range strings.Split(rec.CourseCodeRaw, "/") {
		parts := strings.Split(strings.TrimSpace(segment), "-")
		if len(parts) < 3 {
			continue
		}
		if !termMatches(parts[0], termCodes) {
			continue
		}
		if key, ok := lookup[LookupKey(parts[1], parts[2])]; ok {
			return key, true
		}
	}
	return "", false
}

func termMatches(term string, termCodes []string) bool {
	term = strings.TrimSpace(term)
	for _, code := range termCodes {
		if strings.EqualFold(term, strings.TrimSpace(code)) {
			return true
		}
	}
	return false
}

// Filter resolves records and drops those already completed, unresolvable, or
// repeated within the same result set. Order is preserved.
func Filter(records []models.SearchResultRecord, lookup Lookup, completed func(string) bool, termCodes ...string) []Match {
	seen := make(map[string]struct{})
	var matches []Match

	for _, rec := range records {
		if _, dup := seen[rec.CourseCodeRaw]; dup {
			continue
		}
		if completed != nil && completed(rec.CourseCodeRaw) {
			continue
		}
		key, ok := Resolve(rec, lookup, termCodes...)
		if !ok {
			continue
		}
		seen[rec.CourseCodeRaw] = struct{}{}
		matches = append(matches, Match{Record: rec, Key: key})
	}

	return matches
}
