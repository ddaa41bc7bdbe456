package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/accessdoc/internal/model"
)

// Terminal palette.
var (
	colorAccent  = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	badgeStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true)
)

// gradeColor maps a grade band to the palette.
func gradeColor(g model.Grade) lipgloss.Color {
	switch g {
	case model.GradeExcellent, model.GradeGood:
		return colorSuccess
	case model.GradeNeedsImprovement:
		return colorWarning
	default:
		return colorError
	}
}

// gradeBadge renders a score with the colour of its grade band.
func gradeBadge(score int) string {
	g := model.GradeOf(score)
	return badgeStyle.Foreground(gradeColor(g)).Render(fmt.Sprintf("%3d %s", score, g.Label()))
}

// progressBar renders a fixed-width bar for a percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(colorAccent).Render(bar)
}

// renderProgressLine formats one streamed progress event.
func renderProgressLine(e model.ProgressEvent) string {
	pct := fmt.Sprintf("%3d%%", e.Progress)
	switch {
	case e.Error:
		return fmt.Sprintf("%s %s %s", progressBar(e.Progress, 20), errorStyle.Render(pct), errorStyle.Render(e.Message))
	case e.Type == model.EventReport:
		return fmt.Sprintf("%s %s %s", progressBar(e.Progress, 20), successStyle.Render(pct), successStyle.Render(e.Message))
	default:
		return fmt.Sprintf("%s %s %s %s", progressBar(e.Progress, 20), pct, e.Message, mutedStyle.Render("["+e.StepName+"]"))
	}
}

// renderScoreSummary renders the per-category badges shown after a live run.
func renderScoreSummary(pageURL string, report *model.AnalysisReport) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Accessibility scores for "+pageURL) + "\n")
	for _, s := range report.Scores {
		fmt.Fprintf(&sb, "  %-22s %s\n", s.Category, gradeBadge(s.Score))
	}
	fmt.Fprintf(&sb, "  %-22s %s\n", "Overall", gradeBadge(report.OverallScore()))
	return sb.String()
}
