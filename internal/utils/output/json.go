package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/law-makers/evalcrawl/pkg/models"
)

// WriteJSON writes the compact evaluations-by-course document
func WriteJSON(w io.Writer, evaluations map[models.CourseKey][]models.EvaluationRecord) error {
	if evaluations == nil {
		evaluations = map[models.CourseKey][]models.EvaluationRecord{}
	}
	content, err := json.Marshal(evaluations)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

// SaveJSON writes the compact evaluations document to filepath.
func SaveJSON(evaluations map[models.CourseKey][]models.EvaluationRecord, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, evaluations); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
