package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/accessdoc/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(pageURL string, report *model.AnalysisReport) (int, error) {
	if report == nil {
		return 0, errNilReport
	}

	md := markdown.NewMarkdown(w.output)
	w.writeHeader(md, pageURL, report)
	w.writeScores(md, report)
	w.writePlan(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, pageURL string, report *model.AnalysisReport) {
	md.H1("Accessibility Report")
	md.PlainText("")

	rows := [][]string{}
	if pageURL != "" {
		rows = append(rows, []string{"URL", pageURL})
	}
	overall := model.GradeOf(report.OverallScore())
	rows = append(rows,
		[]string{"Generated", w.generatedAt()},
		[]string{"Overall Score", fmt.Sprintf("%d/100 %s %s", report.OverallScore(), overall.Emoji(), overall.Label())},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an alert for the weakest category.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AnalysisReport) {
	lowest, ok := report.Lowest()
	if !ok {
		return
	}
	switch lowest.Grade() {
	case model.GradePoor:
		md.Cautionf("%s scored %d/100 and needs urgent work.", lowest.Category, lowest.Score)
	case model.GradeNeedsImprovement:
		md.Warningf("%s scored %d/100 and needs improvement.", lowest.Category, lowest.Score)
	case model.GradeGood:
		md.Note("Every category scored at least good.")
	default:
		md.Tip("Every category scored excellent.")
	}
	md.PlainText("")
}

// writeScores writes the per-category table, the grade chart and the
// feedback details.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Scores")
	md.PlainText("")

	rows := make([][]string, len(report.Scores))
	for i, s := range report.Scores {
		g := s.Grade()
		rows[i] = []string{s.Category, strconv.Itoa(s.Score), g.Emoji() + " " + g.Label()}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Grade"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Scores) > 0 {
		w.writePieChart(md, report)
	}

	md.H2("Feedback")
	md.PlainText("")
	for _, s := range report.Scores {
		md.Details(fmt.Sprintf("%s (%d/100)", s.Category, s.Score), s.Feedback)
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the grade distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.AnalysisReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Category Grades"),
		piechart.WithShowData(true),
	)

	counts := report.GradeCounts()
	for _, g := range []model.Grade{model.GradeExcellent, model.GradeGood, model.GradeNeedsImprovement, model.GradePoor} {
		if counts[g] > 0 {
			chart.LabelAndIntValue(g.Label(), uint64(counts[g]))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePlan writes the implementation plan. The plan is already Markdown.
func (w *MarkdownWriter) writePlan(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Implementation Plan")
	md.PlainText("")
	md.PlainText(report.ImplementationPlan)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by accessdoc on %s*", w.generatedAt())
}
