package model

import (
	"time"

	"github.com/google/uuid"
)

// ScrapeResult is what a content fetcher returns for one URL.
// It is produced once per analysis and never modified afterwards.
type ScrapeResult struct {
	// URL is the address that was fetched.
	URL string `json:"url"`

	// HTML is the rendered page markup. Non-empty on success.
	HTML string `json:"html"`

	// Screenshot is the base64-encoded page image without a data URI prefix.
	// Empty when capture failed or the fetcher does not take screenshots.
	Screenshot string `json:"screenshot,omitempty"`

	// FetchedAt is when the page was retrieved from the origin.
	FetchedAt time.Time `json:"fetched_at"`

	// Cached is true when the result was served from the scrape cache.
	Cached bool `json:"cached,omitempty"`
}

// HasHTML reports whether the result carries usable markup.
func (s *ScrapeResult) HasHTML() bool {
	return s != nil && s.HTML != ""
}

// HasScreenshot reports whether a screenshot was captured.
func (s *ScrapeResult) HasScreenshot() bool {
	return s != nil && s.Screenshot != ""
}

// Analysis is the working state of one pipeline run. Each request owns its
// own Analysis and nothing in it is shared across requests.
type Analysis struct {
	// ID identifies the run in logs.
	ID string

	// URL is the normalized address under analysis.
	URL string

	// StartedAt is when the run was created.
	StartedAt time.Time

	// Scrape is the fetched page.
	Scrape *ScrapeResult

	// Audit holds static facts extracted from the HTML before any model call.
	Audit *AuditFacts

	// HTMLCritique is the verbatim output of the HTML audit prompt.
	HTMLCritique string

	// VisualCritique is the verbatim output of the visual audit prompt, or
	// the placeholder text when no screenshot was captured.
	VisualCritique string

	// RawReport is the unprocessed output of the synthesis prompt.
	RawReport string

	// Report is the normalized result. Nil until the run succeeds.
	Report *AnalysisReport

	// PerformedSteps lists the names of completed pipeline steps in order.
	PerformedSteps []string
}

// NewAnalysis creates the working state for a run against url.
func NewAnalysis(url string) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		URL:       url,
		StartedAt: time.Now(),
	}
}

// HasScreenshot reports whether the scrape produced a screenshot.
func (a *Analysis) HasScreenshot() bool {
	return a.Scrape.HasScreenshot()
}

// MarkStep records a completed step.
func (a *Analysis) MarkStep(name string) {
	a.PerformedSteps = append(a.PerformedSteps, name)
}

// Elapsed returns the time since the run started.
func (a *Analysis) Elapsed() time.Duration {
	return time.Since(a.StartedAt)
}
