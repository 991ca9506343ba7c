package portal

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rawQuestion is one entry of the embedded report payload
type rawQuestion struct {
	Text         flexString  `json:"QuestionText"`
	Type         flexString  `json:"QuestionType"`
	Mean         flexNumber  `json:"Mean"`
	Median       *flexNumber `json:"Median"`
	Medain       *flexNumber `json:"Medain"`
	Meadian      *flexNumber `json:"Meadian"`
	StdDev       flexNumber  `json:"StdDev"`
	ResponseRate flexString  `json:"ResponseRate"`
	Options      []rawOption `json:"Options"`
	Answers      flexString  `json:"Answers"`
}

// median reads the median under its correct or misspelled field names
func (q rawQuestion) median() flexNumber {
	for _, m := range []*flexNumber{q.Median, q.Medain, q.Meadian} {
		if m != nil {
			return *m
		}
	}
	return 0
}

type rawOption struct {
	Text       flexString `json:"OptionText"`
	Weight     flexNumber `json:"Weight"`
	Frequency  flexNumber `json:"Frequency"`
	Percentage flexNumber `json:"Percentage"`
}

// flexNumber accepts a JSON number or a numeric string. Anything else,
// including NaN and infinities, is 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && finite(f) {
			*n = flexNumber(f)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil && finite(f) {
		*n = flexNumber(f)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// count converts a frequency to an int, 0 when negative or out of range
func (n flexNumber) count() int {
	f := math.Round(float64(n))
	if !finite(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// flexString accepts a string, number, bool or list of strings (joined with the comment delimiter)
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n':
		return nil
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err == nil {
			*s = flexString(v)
		}
	case '[':
		var parts []string
		if err := json.Unmarshal(data, &parts); err == nil {
			*s = flexString(strings.Join(parts, commentDelimiter))
		}
	case '{':
		// objects carry nothing usable
	default:
		*s = flexString(string(data))
	}
	return nil
}
