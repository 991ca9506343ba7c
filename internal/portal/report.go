// internal/portal/report.go
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	payloadFieldID    = "ReportData"
	payloadScriptVar  = "reportData"
	minPayloadLength  = 16
	commentDelimiter  = "||"
	boilerplateSuffix = "Please select one response."
	scriptTimeout     = time.Second
)

var markdown = md.NewConverter("", true, nil)

// FetchReport downloads one report and extracts its evaluation.
// A nil record with a nil error means the report has no published data.
func (c *Client) FetchReport(ctx context.Context, rec models.SearchResultRecord) (*models.EvaluationRecord, error) {
	body, err := c.getWithRetry(ctx, c.opts.ReportRetry, ReportPath, map[string]string{"id": rec.ReportIdentifier})
	if err != nil {
		return nil, err
	}
	return ExtractReport(body, rec), nil
}

// ExtractReport builds an EvaluationRecord from a report document.
// Missing, short or undecodable payloads yield nil.
func ExtractReport(body []byte, rec models.SearchResultRecord) *models.EvaluationRecord {
	payload := strings.TrimSpace(hiddenPayload(body))
	if payload == "" {
		payload = strings.TrimSpace(scriptPayload(body))
	}
	if len(payload) < minPayloadLength {
		return nil
	}

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		log.Debug().Err(err).Str("report", rec.ReportIdentifier).Msg("Report payload is not a question list")
		return nil
	}

	eval := &models.EvaluationRecord{
		Term:        rec.Term,
		Instructor:  rec.Instructor,
		CourseCode:  rec.CourseCodeRaw,
		Respondents: rec.Respondents,
		Questions:   []models.Question{},
		Comments:    []string{},
	}

	for _, q := range raw {
		kind, openEnded := classifyQuestion(string(q.Type))
		if openEnded {
			eval.Comments = append(eval.Comments, splitComments(string(q.Answers))...)
			continue
		}

		question := models.Question{
			Text:         cleanQuestionText(string(q.Text)),
			Type:         kind,
			Mean:         float64(q.Mean),
			Median:       float64(q.median()),
			Std:          float64(q.StdDev),
			ResponseRate: strings.TrimSpace(string(q.ResponseRate)),
			Options:      []models.Option{},
		}
		for _, o := range q.Options {
			text := toText(string(o.Text))
			if text == "" {
				continue
			}
			question.Options = append(question.Options, models.Option{
				Text:   text,
				Weight: float64(o.Weight),
				Count:  o.Frequency.count(),
				Pct:    float64(o.Percentage),
			})
		}
		eval.Questions = append(eval.Questions, question)
	}

	return eval
}

// classifyQuestion maps an upstream type code. Unknown codes are numeric.
func classifyQuestion(code string) (models.QuestionType, bool) {
	code = strings.TrimSpace(code)
	if f, err := strconv.ParseFloat(code, 64); err == nil {
		code = strconv.Itoa(int(f))
	}
	switch code {
	case "1":
		return "", true
	case "3", "4":
		return models.QuestionRating, false
	default:
		return models.QuestionNumeric, false
	}
}

func splitComments(answers string) []string {
	var comments []string
	for _, part := range strings.Split(answers, commentDelimiter) {
		if text := toText(part); text != "" {
			comments = append(comments, text)
		}
	}
	return comments
}

func cleanQuestionText(text string) string {
	text = toText(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, boilerplateSuffix))
	return text
}

// toText converts markup to Markdown and trims. Plain text passes through.
func toText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	out, err := markdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

// hiddenPayload scans the document for the hidden report data field
func hiddenPayload(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "input" || !hasAttr {
				continue
			}
			var id, value string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "id", "name":
					if string(val) == payloadFieldID {
						id = payloadFieldID
					}
				case "value":
					value = string(val)
				}
				if !more {
					break
				}
			}
			if id != "" {
				return value
			}
		}
	}
}

// scriptPayload evaluates inline scripts that assign the report data variable
// and returns its JSON encoding
func scriptPayload(body []byte) string {
	if !bytes.Contains(body, []byte(payloadScriptVar)) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if _, external := sel.Attr("src"); external {
			return true
		}
		src := sel.Text()
		if !strings.Contains(src, payloadScriptVar) {
			return true
		}
		payload = evalScript(src)
		return payload == ""
	})
	return payload
}

func evalScript(src string) string {
	vm := goja.New()
	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("document", map[string]interface{}{})
	vm.Set("console", map[string]interface{}{
		"log": func(goja.FunctionCall) goja.Value { return goja.Undefined() },
	})

	timer := time.AfterFunc(scriptTimeout, func() { vm.Interrupt("script timeout") })
	defer timer.Stop()

	if _, err := vm.RunString(src); err != nil {
		log.Debug().Err(err).Msg("Inline report script failed")
		// the assignment may have run before the failure
	}

	v, err := vm.RunString("typeof " + payloadScriptVar + " === 'undefined' ? '' : JSON.stringify(" + payloadScriptVar + ")")
	if err != nil {
		return ""
	}
	return v.String()
}
