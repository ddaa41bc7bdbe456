package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/accessdoc/internal/model"
)

// SimpleWriter outputs plain text reports.
type SimpleWriter struct {
	baseWriter

	// compact selects the short single-line-per-category layout.
	compact bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithCompact selects the short layout: one line per category and no
// timestamp.
func WithCompact(compact bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.compact = compact
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as text.
func (w *SimpleWriter) Write(pageURL string, report *model.AnalysisReport) (int, error) {
	if report == nil {
		return 0, errNilReport
	}

	var sb strings.Builder
	if w.compact {
		w.writeCompact(&sb, pageURL, report)
	} else {
		w.writeFull(&sb, pageURL, report)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeFull(sb *strings.Builder, pageURL string, report *model.AnalysisReport) {
	sb.WriteString("Accessibility Analysis Report\n")
	sb.WriteString(strings.Repeat("=", 29))
	sb.WriteString("\n\n")
	if pageURL != "" {
		fmt.Fprintf(sb, "URL: %s\n", pageURL)
	}
	fmt.Fprintf(sb, "Overall Score: %d/100 %s\n\n", report.OverallScore(), model.GradeOf(report.OverallScore()).Emoji())

	sb.WriteString("Overall Scores:\n")
	for _, s := range report.Scores {
		fmt.Fprintf(sb, "\n%s: %d/100 %s\n", s.Category, s.Score, s.Grade().Emoji())
		fmt.Fprintf(sb, "Feedback: %s\n", s.Feedback)
	}

	sb.WriteString("\nImplementation Plan:\n")
	sb.WriteString(strings.Repeat("-", 20))
	sb.WriteString("\n")
	sb.WriteString(report.ImplementationPlan)
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "Generated on: %s\n", w.generatedAt())
}

func (w *SimpleWriter) writeCompact(sb *strings.Builder, pageURL string, report *model.AnalysisReport) {
	sb.WriteString("Accessibility Analysis Report\n")
	if pageURL != "" {
		fmt.Fprintf(sb, "URL: %s\n", pageURL)
	}
	sb.WriteString("\nOverall Scores:\n")
	for _, s := range report.Scores {
		fmt.Fprintf(sb, "%s: %d/100 - %s\n", s.Category, s.Score, s.Feedback)
	}
	sb.WriteString("\nImplementation Plan:\n")
	sb.WriteString(report.ImplementationPlan)
	sb.WriteString("\n")
}
