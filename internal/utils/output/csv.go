package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/law-makers/evalcrawl/pkg/models"
)

// CSVHeader is the column layout written by WriteCSV
var CSVHeader = []string{
	"course", "course_code", "term", "instructor", "respondents",
	"question", "type", "mean", "median", "std", "response_rate", "options", "comments",
}

// WriteCSV flattens evaluations into one row per question, ordered by course
// key. Evaluations without rating questions still get one row so their
// comment count is visible.
func WriteCSV(w io.Writer, evaluations map[models.CourseKey][]models.EvaluationRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	keys := make([]models.CourseKey, 0, len(evaluations))
	for k := range evaluations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		for _, rec := range evaluations[key] {
			base := []string{string(key), rec.CourseCode, rec.Term, rec.Instructor, rec.Respondents}
			comments := strconv.Itoa(len(rec.Comments))

			if len(rec.Questions) == 0 {
				row := append(append([]string{}, base...), "", "", "", "", "", "", "", comments)
				if err := writer.Write(row); err != nil {
					return err
				}
				continue
			}

			for _, q := range rec.Questions {
				row := append(append([]string{}, base...),
					q.Text,
					string(q.Type),
					formatFloat(q.Mean),
					formatFloat(q.Median),
					formatFloat(q.Std),
					q.ResponseRate,
					formatOptions(q.Options),
					comments,
				)
				if err := writer.Write(row); err != nil {
					return err
				}
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the CSV export to filepath. Returns an error on failure.
func SaveCSV(evaluations map[models.CourseKey][]models.EvaluationRecord, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, evaluations); err != nil {
		file.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptions renders "Excellent=20 (47.6%); Good=15 (35.7%)"
func formatOptions(options []models.Option) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = fmt.Sprintf("%s=%d (%s%%)", o.Text, o.Count, formatFloat(o.Pct))
	}
	return strings.Join(parts, "; ")
}
