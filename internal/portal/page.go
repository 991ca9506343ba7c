package portal

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/evalcrawl/pkg/models"
)

// PageKind tells which of the three pagination payload shapes a body was
type PageKind int

const (
	// PageJSONWrapped is {"hasMore": bool, "results": ["<row html>", ...]}
	PageJSONWrapped PageKind = iota
	// PageBareString is a JSON string whose value is HTML
	PageBareString
	// PageRawHTML is anything that did not decode as one of the JSON shapes
	PageRawHTML
)

func (k PageKind) String() string {
	switch k {
	case PageJSONWrapped:
		return "json"
	case PageBareString:
		return "string"
	default:
		return "html"
	}
}

// ParsedPage is one classified pagination response
type ParsedPage struct {
	Kind PageKind
	// HasMore is set only when a JSON wrapper carried the flag
	HasMore *bool
	HTML    string
}

type wrappedPage struct {
	HasMore *bool    `json:"hasMore"`
	Results []string `json:"results"`
}

// ClassifyPage decodes a pagination body. JSON is tried first; anything that
// fails to decode is treated as HTML, so classification never fails.
func ClassifyPage(body []byte) ParsedPage {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '{':
			var w wrappedPage
			if err := json.Unmarshal(trimmed, &w); err == nil {
				return ParsedPage{
					Kind:    PageJSONWrapped,
					HasMore: w.HasMore,
					HTML:    strings.Join(w.Results, ""),
				}
			}
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				return ParsedPage{Kind: PageBareString, HTML: s}
			}
		}
	}

	return ParsedPage{Kind: PageRawHTML, HTML: string(body)}
}

// Records parses the page's HTML into result rows
func (p ParsedPage) Records() []models.SearchResultRecord {
	return ParseRowsHTML(p.HTML)
}

// Done reports whether the JSON wrapper said there are no more pages
func (p ParsedPage) Done() bool {
	return p.HasMore != nil && !*p.HasMore
}

// ParseRowsHTML parses result rows out of an HTML document or fragment
func ParseRowsHTML(html string) []models.SearchResultRecord {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return ParseRows(doc.Selection)
}

// ParseRows extracts every complete result row under sel.
// Rows without all four report sub-identifiers are dropped.
func ParseRows(sel *goquery.Selection) []models.SearchResultRecord {
	var records []models.SearchResultRecord

	sel.Find(".sr-dataitem").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.sr-view-report").First()
		if link.Length() == 0 {
			return
		}

		ids := make([]string, 4)
		for i := range ids {
			v, ok := link.Attr("data-id" + string(rune('0'+i)))
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				return
			}
			ids[i] = v
		}

		records = append(records, models.SearchResultRecord{
			ReportIdentifier: strings.Join(ids, ","),
			CourseCodeRaw:    cellText(row, ".sr-dataitem-info-code"),
			Title:            cellText(row, ".sr-dataitem-info-title"),
			Instructor:       cellText(row, ".sr-dataitem-info-instr"),
			Term:             cellText(row, ".sr-dataitem-info-term"),
			Respondents:      cellText(row, ".sr-dataitem-info-resp"),
		})
	})

	return records
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(row.Find(selector).First().Text()), " ")
}
