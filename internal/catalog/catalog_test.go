package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/stretchr/testify/require"
)

func testLookup() Lookup {
	return NewLookup([]models.CatalogEntry{
		{Subject: "CS", Code: "106A", ID: "1"},
		{Subject: "cs", Code: "107 ", ID: "2"},
		{Subject: "MATH", Code: "51", ID: "3"},
	})
}

func TestResolve_CrossListing(t *testing.T) {
	lookup := testLookup()

	for _, raw := range []string{
		"F25-CS-106A-01/F25-SYMSYS-106A-01",
		"F25-SYMSYS-106A-01/F25-CS-106A-01",
	} {
		key, ok := Resolve(models.SearchResultRecord{CourseCodeRaw: raw}, lookup, "F25")
		require.True(t, ok, raw)
		require.Equal(t, models.CourseKey("CS 106A"), key, raw)
	}
}

func TestResolve_TermGuard(t *testing.T) {
	lookup := testLookup()
	rec := models.SearchResultRecord{CourseCodeRaw: "F25-CS-106A-01/F25-SYMSYS-106A-01"}

	_, ok := Resolve(rec, lookup, "W26")
	require.False(t, ok)

	// any configured term passes in course mode
	key, ok := Resolve(rec, lookup, "W26", "F25")
	require.True(t, ok)
	require.Equal(t, models.CourseKey("CS 106A"), key)

	_, ok = Resolve(rec, lookup)
	require.False(t, ok)
}

func TestResolve_Malformed(t *testing.T) {
	lookup := testLookup()
	for _, raw := range []string{"", "F25", "F25-CS", "F25-XYZ-999-01", "//"} {
		_, ok := Resolve(models.SearchResultRecord{CourseCodeRaw: raw}, lookup, "F25")
		require.False(t, ok, raw)
	}

	// section part is optional
	key, ok := Resolve(models.SearchResultRecord{CourseCodeRaw: "F25-MATH-51"}, lookup, "F25")
	require.True(t, ok)
	require.Equal(t, models.CourseKey("MATH 51"), key)
}

func TestFilter(t *testing.T) {
	lookup := testLookup()
	records := []models.SearchResultRecord{
		{CourseCodeRaw: "F25-CS-106A-01"},
		{CourseCodeRaw: "F25-XYZ-999-01"},
		{CourseCodeRaw: "F25-CS-107-01"},
		{CourseCodeRaw: "F25-CS-106A-01"},
		{CourseCodeRaw: "F25-MATH-51-01"},
	}
	completed := map[string]bool{"F25-CS-107-01": true}

	matches := Filter(records, lookup, func(code string) bool { return completed[code] }, "F25")
	require.Len(t, matches, 2)
	require.Equal(t, models.CourseKey("CS 106A"), matches[0].Key)
	require.Equal(t, "F25-CS-106A-01", matches[0].Record.CourseCodeRaw)
	require.Equal(t, models.CourseKey("MATH 51"), matches[1].Key)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "courses.json5")
	require.NoError(t, os.WriteFile(list, []byte(`[
  // comments are allowed
  {subject: "CS", code: "106A", id: "1", instructorLastNames: ["Smith"]},
  {subject: "MATH", code: "51", id: "2",},
]`), 0o644))

	wrapped := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"courses": [{"subject": "PHYSICS", "code": "41", "id": "3"}]}`), 0o644))

	entries, err := LoadFiles(list, wrapped)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []string{"Smith"}, entries[0].InstructorLastNames)
	require.Equal(t, models.CourseKey("PHYSICS 41"), entries[2].Key())

	_, err = LoadFiles(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestLookupKeys(t *testing.T) {
	require.Equal(t, []models.CourseKey{"CS 106A", "CS 107", "MATH 51"}, testLookup().Keys())
}

func TestFindMissing(t *testing.T) {
	entries := []models.CatalogEntry{
		{Subject: "CS", Code: "106A"},
		{Subject: "CS", Code: "106B"},
		{Subject: "CS", Code: "106B"},
		{Subject: "MATH", Code: "51"},
		{Subject: "", Code: "1"},
	}
	present := []models.CourseKey{"CS 106A", "MATH 51", "PHYSICS 41"}

	missing := FindMissing(entries, present)
	require.Len(t, missing, 1)
	require.Equal(t, models.CourseKey("CS 106B"), missing[0].Key)
	require.Equal(t, models.CourseKey("CS 106A"), missing[0].Closest)
	require.Greater(t, missing[0].Similarity, 0.9)
	require.Equal(t, []string{"CS 106B"}, Queries(missing))
}
