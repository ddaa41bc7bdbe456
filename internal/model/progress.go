package model

import "math"

// EventType distinguishes intermediate progress events from the final report.
type EventType string

const (
	// EventProgress is a status update.
	EventProgress EventType = "progress"
	// EventReport is the final event carrying the report.
	EventReport EventType = "report"
)

// Step names carried in ProgressEvent.StepName, in emission order.
const (
	StepInit             = "init"
	StepScrapeStart      = "scrape_start"
	StepScrapeComplete   = "scrape_complete"
	StepScreenshotStatus = "screenshot_status"
	StepAIAnalysis       = "ai_analysis"
	StepReportProcessing = "report_processing"
	StepComplete         = "complete"
)

// TotalSteps is the number of milestones after init that advance progress.
const TotalSteps = 6

// ProgressEvent is one incremental status update of a streamed analysis.
type ProgressEvent struct {
	Type     EventType       `json:"type"`
	Message  string          `json:"message"`
	StepName string          `json:"step_name"`
	Progress int             `json:"progress"`
	Error    bool            `json:"error"`
	Data     *AnalysisReport `json:"data,omitempty"`
}

// ProgressPercent converts a completed milestone count into a percentage
// clamped to [0,100].
func ProgressPercent(completed int) int {
	p := int(math.Round(float64(completed) / float64(TotalSteps) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// NewProgressEvent returns an informational event.
func NewProgressEvent(step, message string, completed int) ProgressEvent {
	return ProgressEvent{
		Type:     EventProgress,
		Message:  message,
		StepName: step,
		Progress: ProgressPercent(completed),
	}
}

// NewErrorEvent returns a terminal error event. The completed count is not
// advanced by the caller for error events.
func NewErrorEvent(step, message string, completed int) ProgressEvent {
	return ProgressEvent{
		Type:     EventProgress,
		Message:  message,
		StepName: step,
		Progress: ProgressPercent(completed),
		Error:    true,
	}
}

// NewReportEvent returns the final success event.
func NewReportEvent(report *AnalysisReport) ProgressEvent {
	return ProgressEvent{
		Type:     EventReport,
		Message:  "Analysis complete.",
		StepName: StepComplete,
		Progress: 100,
		Data:     report,
	}
}

// Terminal reports whether no event may follow this one.
func (e ProgressEvent) Terminal() bool {
	return e.Error || e.Type == EventReport
}
