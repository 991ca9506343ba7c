package portal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    PageKind
		hasMore *bool
		rows    int
	}{
		{"wrapped", `{"hasMore": false, "results": ["<div class=\"sr-dataitem\"><a class=\"sr-view-report\" data-id0=\"a\" data-id1=\"b\" data-id2=\"c\" data-id3=\"d\"></a></div>"]}`, PageJSONWrapped, boolPtr(false), 1},
		{"wrapped without flag", `{"results": []}`, PageJSONWrapped, nil, 0},
		{"bare string", `"<div class=\"sr-dataitem\"><a class=\"sr-view-report\" data-id0=\"a\" data-id1=\"b\" data-id2=\"c\" data-id3=\"d\"></a></div>"`, PageBareString, nil, 1},
		{"raw html", `<div class="sr-dataitem"><a class="sr-view-report" data-id0="a" data-id1="b" data-id2="c" data-id3="d"></a></div>`, PageRawHTML, nil, 1},
		{"broken json", `{"hasMore": tru`, PageRawHTML, nil, 0},
		{"json array", `[1, 2]`, PageRawHTML, nil, 0},
		{"empty", ``, PageRawHTML, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ClassifyPage([]byte(tt.body))
			require.Equal(t, tt.kind, p.Kind)
			require.Equal(t, tt.hasMore, p.HasMore)
			require.Len(t, p.Records(), tt.rows)
		})
	}
}

func TestParseRows(t *testing.T) {
	doc := `<div>
  ` + rowHTML("F25-CS-106A-01") + `
  <div class="sr-dataitem">
    <a class="sr-view-report" data-id0="x" data-id1="y" data-id2="" data-id3="z"></a>
    <span class="sr-dataitem-info-code">F25-CS-999-01</span>
  </div>
  <div class="sr-dataitem"><span class="sr-dataitem-info-code">no link</span></div>
</div>`

	got := ParseRowsHTML(doc)
	want := []models.SearchResultRecord{{
		ReportIdentifier: "F25-CS-106A-01,10,20,30",
		CourseCodeRaw:    "F25-CS-106A-01",
		Title:            "Programming Methodology",
		Instructor:       "Smith, Jane",
		Term:             "Fall 2025",
		Respondents:      "42 of 80",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRowsHTML() mismatch (-want +got):\n%s", diff)
	}
}
