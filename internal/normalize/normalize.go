package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/accessdoc/internal/model"
)

const fence = "```"

// defaultUpstreamMessage is used when the sentinel entry carries no feedback.
const defaultUpstreamMessage = "the analysis service reported an error without details"

// StripFences removes a leading code fence (with an optional info string
// such as "json") and a trailing code fence. The two markers are handled
// independently, so output with only one of them is also cleaned.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		s = s[infoStringLen(s):]
	}
	if strings.HasSuffix(s, fence) {
		s = s[:len(s)-len(fence)]
	}
	return strings.TrimSpace(s)
}

// infoStringLen returns the length of the fence info string at the start of s.
func infoStringLen(s string) int {
	for i, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return i
		}
	}
	return len(s)
}

// Normalize parses raw model output into a report.
//
// It fails with *model.MalformedReportError when the cleaned text is not
// JSON, *model.UpstreamAnalysisError when the first score uses the sentinel
// category, and *model.ReportSchemaError when the JSON does not describe a
// report with exactly one entry per category and a non-empty plan.
func Normalize(raw string) (*model.AnalysisReport, error) {
	clean := StripFences(raw)

	doc, err := decode(clean)
	if err != nil {
		return nil, &model.MalformedReportError{Raw: clean, Err: err}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &model.ReportSchemaError{Reason: fmt.Sprintf("expected a JSON object, got %s", typeName(doc))}
	}

	if msg, ok := sentinelMessage(obj); ok {
		return nil, &model.UpstreamAnalysisError{Message: msg}
	}

	scores, err := readScores(obj)
	if err != nil {
		return nil, err
	}

	plan, err := readPlan(obj)
	if err != nil {
		return nil, err
	}

	return &model.AnalysisReport{
		Scores:             scores,
		ImplementationPlan: plan,
	}, nil
}

func decode(s string) (any, error) {
	if s == "" {
		return nil, errors.New("empty output")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// sentinelMessage reports whether the first score carries the "Error"
// category and returns its feedback.
func sentinelMessage(obj map[string]any) (string, bool) {
	list, ok := obj["scores"].([]any)
	if !ok || len(list) == 0 {
		return "", false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return "", false
	}
	category, _ := first["category"].(string)
	if !model.IsSentinelCategory(category) {
		return "", false
	}
	feedback, _ := first["feedback"].(string)
	if strings.TrimSpace(feedback) == "" {
		feedback = defaultUpstreamMessage
	}
	return feedback, true
}

func readScores(obj map[string]any) ([]model.CategoryScore, error) {
	rawScores, ok := obj["scores"]
	if !ok || rawScores == nil {
		return nil, &model.ReportSchemaError{Reason: "missing field scores"}
	}
	list, ok := rawScores.([]any)
	if !ok {
		return nil, &model.ReportSchemaError{Reason: fmt.Sprintf("scores: expected an array, got %s", typeName(rawScores))}
	}

	byCategory := make(map[model.Category]model.CategoryScore, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: expected an object, got %s", i, typeName(item))}
		}
		score, category, err := readScore(i, entry)
		if err != nil {
			return nil, err
		}
		if _, dup := byCategory[category]; dup {
			return nil, &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: duplicate category %q", i, category)}
		}
		byCategory[category] = score
	}

	out := make([]model.CategoryScore, 0, len(byCategory))
	for _, c := range model.Categories() {
		score, ok := byCategory[c]
		if !ok {
			return nil, &model.ReportSchemaError{Reason: fmt.Sprintf("scores: missing category %q", c)}
		}
		out = append(out, score)
	}
	return out, nil
}

func readScore(i int, entry map[string]any) (model.CategoryScore, model.Category, error) {
	label, ok := entry["category"].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return model.CategoryScore{}, "", &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: missing category", i)}
	}
	category, ok := model.ParseCategory(label)
	if !ok {
		return model.CategoryScore{}, "", &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: unknown category %q", i, label)}
	}

	value, ok := entry["score"]
	if !ok {
		return model.CategoryScore{}, "", &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: missing score", i)}
	}
	score, err := coerceScore(value)
	if err != nil {
		return model.CategoryScore{}, "", &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: invalid score", i), Err: err}
	}

	feedback := model.DefaultFeedback
	switch fb := entry["feedback"].(type) {
	case nil:
	case string:
		if strings.TrimSpace(fb) != "" {
			feedback = fb
		}
	default:
		return model.CategoryScore{}, "", &model.ReportSchemaError{Reason: fmt.Sprintf("scores[%d]: feedback must be a string, got %s", i, typeName(fb))}
	}

	return model.CategoryScore{
		Category: category.String(),
		Score:    score,
		Feedback: feedback,
	}, category, nil
}

// coerceScore accepts JSON numbers and numeric strings, rounds fractions and
// clamps the result into [0,100].
func coerceScore(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected a number, got %s", typeName(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score %v is not finite", f)
	}
	return clamp(int(math.Round(f))), nil
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// readPlan accepts a string or an array of strings, which is joined by lines.
func readPlan(obj map[string]any) (string, error) {
	var plan string
	switch v := obj["implementation_plan"].(type) {
	case nil:
		return "", &model.ReportSchemaError{Reason: "missing field implementation_plan"}
	case string:
		plan = v
	case []any:
		lines := make([]string, 0, len(v))
		for i, item := range v {
			line, ok := item.(string)
			if !ok {
				return "", &model.ReportSchemaError{Reason: fmt.Sprintf("implementation_plan[%d]: expected a string, got %s", i, typeName(item))}
			}
			lines = append(lines, line)
		}
		plan = strings.Join(lines, "\n")
	default:
		return "", &model.ReportSchemaError{Reason: fmt.Sprintf("implementation_plan: expected a string, got %s", typeName(v))}
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return "", &model.ReportSchemaError{Reason: "implementation_plan is empty"}
	}
	return plan, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
