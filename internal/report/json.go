package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/accessdoc/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps the report with fields derived from it.
type JSONReport struct {
	URL                string                `json:"url,omitempty"`
	GeneratedAt        string                `json:"generated_at"`
	OverallScore       int                   `json:"overall_score"`
	OverallGrade       string                `json:"overall_grade"`
	Scores             []model.CategoryScore `json:"scores"`
	ImplementationPlan string                `json:"implementation_plan"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(pageURL string, report *model.AnalysisReport) (int, error) {
	if report == nil {
		return 0, errNilReport
	}
	overall := report.OverallScore()
	return w.writeJSON(JSONReport{
		URL:                pageURL,
		GeneratedAt:        w.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		OverallScore:       overall,
		OverallGrade:       model.GradeOf(overall).String(),
		Scores:             report.Scores,
		ImplementationPlan: report.ImplementationPlan,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
