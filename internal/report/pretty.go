package report

import (
	"bytes"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/nao1215/accessdoc/internal/model"
)

// DefaultStyle is the glamour style used by PrettyWriter.
const DefaultStyle = "dark"

// PrettyWriter renders the Markdown report for a terminal.
type PrettyWriter struct {
	baseWriter
	style string
}

// PrettyWriterOption configures a PrettyWriter.
type PrettyWriterOption func(*PrettyWriter)

// WithStyle selects a glamour style by name, such as "light" or "notty".
func WithStyle(style string) PrettyWriterOption {
	return func(w *PrettyWriter) {
		w.style = style
	}
}

// NewPrettyWriter creates a PrettyWriter using DefaultStyle.
func NewPrettyWriter(output io.Writer, opts ...PrettyWriterOption) *PrettyWriter {
	w := &PrettyWriter{baseWriter: newBaseWriter(output), style: DefaultStyle}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the report.
func (w *PrettyWriter) Write(pageURL string, report *model.AnalysisReport) (int, error) {
	var buf bytes.Buffer
	md := &MarkdownWriter{baseWriter: baseWriter{output: &buf, now: w.now}}
	if _, err := md.Write(pageURL, report); err != nil {
		return 0, err
	}

	out, err := glamour.Render(buf.String(), w.style)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, out)
}
