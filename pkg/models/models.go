package models

import "strings"

// TermDescriptor identifies one academic term to crawl, e.g. {Code: "F25", Label: "Fall 2025"}
type TermDescriptor struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// CourseKey is the normalized catalog identity used to group evaluations, e.g. "CS 106A"
type CourseKey string

// NewCourseKey builds a CourseKey from a subject and course number, collapsing whitespace
func NewCourseKey(subject, code string) CourseKey {
	s := strings.Join(strings.Fields(strings.ToUpper(subject)), "")
	c := strings.Join(strings.Fields(strings.ToUpper(code)), "")
	return CourseKey(s + " " + c)
}

// SearchResultRecord is one row of a paginated search response
type SearchResultRecord struct {
	ReportIdentifier string `json:"reportIdentifier"`
	CourseCodeRaw    string `json:"courseCode"`
	Title            string `json:"title"`
	Instructor       string `json:"instructor"`
	Term             string `json:"term"`
	Respondents      string `json:"respondents"`
}

// QuestionType classifies a non open-ended question
type QuestionType string

const (
	QuestionRating  QuestionType = "rating"
	QuestionNumeric QuestionType = "numeric"
)

// Option is one weighted answer choice of a question
type Option struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// Question is one normalized question of an evaluation report
type Question struct {
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Mean         float64      `json:"mean"`
	Median       float64      `json:"median"`
	Std          float64      `json:"std"`
	ResponseRate string       `json:"responseRate"`
	Options      []Option     `json:"options"`
}

// EvaluationRecord is the normalized extraction result for one report
type EvaluationRecord struct {
	Term        string     `json:"term"`
	Instructor  string     `json:"instructor"`
	CourseCode  string     `json:"courseCode"`
	Respondents string     `json:"respondents"`
	Questions   []Question `json:"questions"`
	Comments    []string   `json:"comments"`
}

// CatalogEntry is one known course read from an external catalog file
type CatalogEntry struct {
	Subject             string   `json:"subject"`
	Code                string   `json:"code"`
	ID                  string   `json:"id"`
	InstructorLastNames []string `json:"instructorLastNames"`
}

// Key returns the normalized CourseKey of the entry
func (e CatalogEntry) Key() CourseKey {
	return NewCourseKey(e.Subject, e.Code)
}
