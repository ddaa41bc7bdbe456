package normalize

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/accessdoc/internal/model"
)

const validReport = `{
  "scores": [
    {"category": "Structure & Semantics", "score": 72, "feedback": "Landmarks are missing."},
    {"category": "Readability & Visual Clarity", "score": 88, "feedback": "Good contrast."},
    {"category": "Navigability & Interactivity", "score": 61, "feedback": "Vague link text."},
    {"category": "Forms & Inputs", "score": 45, "feedback": "Inputs lack labels."},
    {"category": "Media Accessibility", "score": 30, "feedback": "Images lack alt text."}
  ],
  "implementation_plan": "1. Add alt text. 2. Label inputs."
}`

func TestStripFences(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"unfenced", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"uppercase info string", "```JSON\n{\"a\":1}```", `{"a":1}`},
		{"leading only", "```json\n{\"a\":1}", `{"a":1}`},
		{"trailing only", "{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json {\"a\":1} ```\n\t", `{"a":1}`},
		{"empty", "   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := StripFences(tc.input); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeFenceStyleInvariant(t *testing.T) {
	t.Parallel()

	want, err := Normalize(validReport)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	variants := []string{
		"```json\n" + validReport + "\n```",
		"```\n" + validReport + "\n```",
		"\n\n" + validReport + "\n",
	}
	for i, v := range variants {
		got, err := Normalize(v)
		if err != nil {
			t.Fatalf("variant %d: unexpected error: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("variant %d: expected %+v, got %+v", i, want, got)
		}
	}

	// Stripping is idempotent.
	once := StripFences("```json\n" + validReport + "\n```")
	if StripFences(once) != once {
		t.Error("expected StripFences to be idempotent")
	}
}

func TestNormalizeValidReport(t *testing.T) {
	t.Parallel()

	report, err := Normalize("```json\n" + validReport + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Scores) != 5 {
		t.Fatalf("expected 5 scores, got %d", len(report.Scores))
	}
	for i, c := range model.Categories() {
		if report.Scores[i].Category != c.String() {
			t.Errorf("index %d: expected %q, got %q", i, c, report.Scores[i].Category)
		}
	}
	if report.ImplementationPlan == "" {
		t.Error("expected implementation plan")
	}
}

func TestNormalizeInjectsDefaultFeedback(t *testing.T) {
	t.Parallel()

	raw := `{"scores": [
		{"category": "Structure & Semantics", "score": 70},
		{"category": "Readability & Visual Clarity", "score": 70, "feedback": null},
		{"category": "Navigability & Interactivity", "score": 70, "feedback": ""},
		{"category": "Forms & Inputs", "score": 70, "feedback": "present"},
		{"category": "Media Accessibility", "score": 70}
	], "implementation_plan": "plan"}`

	report, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range report.Scores {
		if s.Feedback == "" {
			t.Errorf("category %q has empty feedback", s.Category)
		}
		if s.Category != string(model.CategoryForms) && s.Feedback != model.DefaultFeedback {
			t.Errorf("category %q: expected default feedback, got %q", s.Category, s.Feedback)
		}
	}
	if fb := report.Scores[3].Feedback; fb != "present" {
		t.Errorf("expected existing feedback to be kept, got %q", fb)
	}
}

func TestNormalizeSentinel(t *testing.T) {
	t.Parallel()

	t.Run("carries feedback", func(t *testing.T) {
		t.Parallel()
		raw := `{"scores": [{"category": "Error", "score": 0, "feedback": "boom"}], "implementation_plan": "..."}`
		report, err := Normalize(raw)
		if report != nil {
			t.Error("expected no report")
		}
		var upstream *model.UpstreamAnalysisError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected UpstreamAnalysisError, got %v", err)
		}
		if upstream.Message != "boom" {
			t.Errorf("expected message %q, got %q", "boom", upstream.Message)
		}
	})

	t.Run("missing feedback still upstream", func(t *testing.T) {
		t.Parallel()
		_, err := Normalize("```json\n{\"scores\": [{\"category\": \"Error\"}]}\n```")
		var upstream *model.UpstreamAnalysisError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected UpstreamAnalysisError, got %v", err)
		}
		if upstream.Message == "" {
			t.Error("expected a non-empty message")
		}
	})

	t.Run("sentinel only checked on first entry", func(t *testing.T) {
		t.Parallel()
		raw := strings.Replace(validReport, `"Media Accessibility"`, `"Error"`, 1)
		_, err := Normalize(raw)
		var schema *model.ReportSchemaError
		if !errors.As(err, &schema) {
			t.Fatalf("expected ReportSchemaError, got %v", err)
		}
	})
}

func TestNormalizeMalformed(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"I'm sorry, I cannot help with that.",
		"```json\n{\"scores\": [\n```",
		`{"scores": []} trailing`,
		"",
	}
	for _, in := range inputs {
		_, err := Normalize(in)
		var malformed *model.MalformedReportError
		if !errors.As(err, &malformed) {
			t.Errorf("input %q: expected MalformedReportError, got %v", in, err)
			continue
		}
		if malformed.Raw != StripFences(in) {
			t.Errorf("input %q: expected raw %q, got %q", in, StripFences(in), malformed.Raw)
		}
	}
}

func TestNormalizeSchemaErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		raw  string
	}{
		{"array document", `[1,2,3]`},
		{"missing scores", `{"implementation_plan": "plan"}`},
		{"scores not array", `{"scores": "none", "implementation_plan": "plan"}`},
		{"score item not object", `{"scores": [1], "implementation_plan": "plan"}`},
		{"unknown category", strings.Replace(validReport, "Media Accessibility", "Performance", 1)},
		{"duplicate category", strings.Replace(validReport, "Media Accessibility", "Forms & Inputs", 1)},
		{"missing category", `{"scores": [{"category": "Forms & Inputs", "score": 1}], "implementation_plan": "plan"}`},
		{"score not numeric", strings.Replace(validReport, `"score": 30`, `"score": "high"`, 1)},
		{"score missing", strings.Replace(validReport, `"score": 30,`, ``, 1)},
		{"feedback wrong type", strings.Replace(validReport, `"Good contrast."`, `42`, 1)},
		{"missing plan", strings.Replace(validReport, `"implementation_plan": "1. Add alt text. 2. Label inputs."`, `"other": 1`, 1)},
		{"empty plan", strings.Replace(validReport, `"1. Add alt text. 2. Label inputs."`, `"  "`, 1)},
		{"plan wrong type", strings.Replace(validReport, `"1. Add alt text. 2. Label inputs."`, `7`, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			report, err := Normalize(tc.raw)
			if report != nil {
				t.Error("expected no report")
			}
			var schema *model.ReportSchemaError
			if !errors.As(err, &schema) {
				t.Fatalf("expected ReportSchemaError, got %v", err)
			}
		})
	}
}

func TestNormalizeCoercion(t *testing.T) {
	t.Parallel()

	raw := `{"scores": [
		{"category": "structure and semantics", "score": 120, "feedback": "a"},
		{"category": "Readability & Visual Clarity", "score": -5, "feedback": "b"},
		{"category": "Navigability & Interactivity", "score": 66.6, "feedback": "c"},
		{"category": "Forms & Inputs", "score": "75", "feedback": "d"},
		{"category": "MEDIA ACCESSIBILITY", "score": "40%", "feedback": "e"}
	], "implementation_plan": ["Step one", "Step two"]}`

	report, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{100, 0, 67, 75, 40}
	for i, s := range report.Scores {
		if s.Score != want[i] {
			t.Errorf("%s: expected %d, got %d", s.Category, want[i], s.Score)
		}
	}
	if report.Scores[0].Category != "Structure & Semantics" {
		t.Errorf("expected canonical label, got %q", report.Scores[0].Category)
	}
	if report.ImplementationPlan != "Step one\nStep two" {
		t.Errorf("unexpected plan %q", report.ImplementationPlan)
	}
}

func TestNormalizeReordersToCanonicalOrder(t *testing.T) {
	t.Parallel()

	raw := `{"scores": [
		{"category": "Media Accessibility", "score": 1, "feedback": "e"},
		{"category": "Forms & Inputs", "score": 2, "feedback": "d"},
		{"category": "Navigability & Interactivity", "score": 3, "feedback": "c"},
		{"category": "Readability & Visual Clarity", "score": 4, "feedback": "b"},
		{"category": "Structure & Semantics", "score": 5, "feedback": "a"}
	], "implementation_plan": "plan"}`

	report, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{5, 4, 3, 2, 1} {
		if report.Scores[i].Score != want {
			t.Errorf("index %d: expected %d, got %d", i, want, report.Scores[i].Score)
		}
	}
}

func TestNormalizeShortCategoryLabels(t *testing.T) {
	t.Parallel()

	raw := `{"scores": [
		{"category": "Structure", "score": 80, "feedback": "a"},
		{"category": "Readability", "score": 65, "feedback": "b"},
		{"category": "navigability", "score": 70, "feedback": "c"},
		{"category": "Forms", "score": 40, "feedback": "d"},
		{"category": "Media", "score": 90, "feedback": "e"}
	], "implementation_plan": "plan"}`

	report, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range model.Categories() {
		if report.Scores[i].Category != c.String() {
			t.Errorf("index %d: expected %q, got %q", i, c, report.Scores[i].Category)
		}
	}

	t.Run("short label colliding with a full label is a duplicate", func(t *testing.T) {
		t.Parallel()
		dup := strings.Replace(validReport, `"Structure & Semantics"`, `"Media"`, 1)
		var schemaErr *model.ReportSchemaError
		if _, err := Normalize(dup); !errors.As(err, &schemaErr) {
			t.Fatalf("expected ReportSchemaError, got %v", err)
		}
	})
}
