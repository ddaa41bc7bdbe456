package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/htmlaudit"
	"github.com/nao1215/accessdoc/internal/llm"
	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/normalize"
	"github.com/nao1215/accessdoc/internal/prompt"
)

// Step names used in logs and Analysis.PerformedSteps.
const (
	StepNameScrape         = "scrape"
	StepNameHTMLCritique   = "html_critique"
	StepNameVisualCritique = "visual_critique"
	StepNameCritique       = "critique"
	StepNameSynthesis      = "synthesis"
	StepNameNormalize      = "normalize"
)

// ScrapeStep fetches the page and extracts static audit facts.
// Any fetcher failure, including a panic, becomes a *model.ScrapeError.
type ScrapeStep struct {
	fetcher fetch.Fetcher
	logger  *slog.Logger
}

// NewScrapeStep creates a ScrapeStep.
func NewScrapeStep(fetcher fetch.Fetcher, logger *slog.Logger) *ScrapeStep {
	return &ScrapeStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *ScrapeStep) Name() string {
	return StepNameScrape
}

// Do executes the scrape step.
func (s *ScrapeStep) Do(ctx context.Context, analysis *model.Analysis) error {
	result, err := s.fetch(ctx, analysis.URL)
	if err != nil {
		return &model.ScrapeError{URL: analysis.URL, Err: err}
	}
	if !result.HasHTML() {
		return &model.ScrapeError{URL: analysis.URL}
	}
	analysis.Scrape = result

	facts, err := htmlaudit.Audit(analysis.URL, result.HTML)
	if err != nil {
		s.logger.Warn("static audit failed", "analysis_id", analysis.ID, "error", err)
		return nil
	}
	analysis.Audit = facts
	return nil
}

func (s *ScrapeStep) fetch(ctx context.Context, pageURL string) (result *model.ScrapeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()
	return s.fetcher.Fetch(ctx, pageURL)
}

// HTMLCritiqueStep asks the model to audit the page markup.
type HTMLCritiqueStep struct {
	invoker llm.Invoker
	compact bool
	logger  *slog.Logger
}

// NewHTMLCritiqueStep creates an HTMLCritiqueStep. When compact is true the
// markup is stripped of scripts, styles and comments before it is sent.
func NewHTMLCritiqueStep(invoker llm.Invoker, compact bool, logger *slog.Logger) *HTMLCritiqueStep {
	return &HTMLCritiqueStep{invoker: invoker, compact: compact, logger: logger}
}

// Name returns the step name.
func (s *HTMLCritiqueStep) Name() string {
	return StepNameHTMLCritique
}

// Do executes the HTML critique step.
func (s *HTMLCritiqueStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if !analysis.Scrape.HasHTML() {
		return &model.ScrapeError{URL: analysis.URL}
	}

	html := analysis.Scrape.HTML
	if s.compact {
		compacted, err := htmlaudit.Compact(html)
		if err != nil {
			s.logger.Warn("failed to compact HTML, sending original", "analysis_id", analysis.ID, "error", err)
		} else {
			s.logger.Debug("compacted HTML", "analysis_id", analysis.ID, "before", len(html), "after", len(compacted))
			html = compacted
		}
	}

	p, err := prompt.RenderHTMLAudit(html, analysis.Audit)
	if err != nil {
		return err
	}
	out, err := s.invoker.Complete(ctx, p)
	if err != nil {
		return modelCallError(err)
	}
	analysis.HTMLCritique = out
	return nil
}

// VisualCritiqueStep asks the model to audit the screenshot. Without a
// screenshot it records a fixed placeholder instead of calling the model.
type VisualCritiqueStep struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

// NewVisualCritiqueStep creates a VisualCritiqueStep.
func NewVisualCritiqueStep(invoker llm.Invoker, logger *slog.Logger) *VisualCritiqueStep {
	return &VisualCritiqueStep{invoker: invoker, logger: logger}
}

// Name returns the step name.
func (s *VisualCritiqueStep) Name() string {
	return StepNameVisualCritique
}

// Do executes the visual critique step.
func (s *VisualCritiqueStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if !analysis.HasScreenshot() {
		s.logger.Info("no screenshot, continuing with HTML only", "analysis_id", analysis.ID)
		analysis.VisualCritique = prompt.ScreenshotUnavailable
		return nil
	}

	p, err := prompt.VisualAudit()
	if err != nil {
		return err
	}
	out, err := s.invoker.CompleteWithImage(ctx, p, analysis.Scrape.Screenshot)
	if err != nil {
		return modelCallError(err)
	}
	analysis.VisualCritique = out
	return nil
}

// CritiqueStep runs the HTML and visual critiques. They do not depend on
// each other, so they may run concurrently.
type CritiqueStep struct {
	html     Step
	visual   Step
	parallel bool
}

// NewCritiqueStep creates a CritiqueStep.
func NewCritiqueStep(html, visual Step, parallel bool) *CritiqueStep {
	return &CritiqueStep{html: html, visual: visual, parallel: parallel}
}

// Name returns the step name.
func (s *CritiqueStep) Name() string {
	return StepNameCritique
}

// Do executes both critiques. The two write disjoint fields of the analysis.
func (s *CritiqueStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if !s.parallel {
		if err := s.html.Do(ctx, analysis); err != nil {
			return err
		}
		return s.visual.Do(ctx, analysis)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return doRecovered(gctx, s.html, analysis) })
	g.Go(func() error { return doRecovered(gctx, s.visual, analysis) })
	return g.Wait()
}

// doRecovered runs step and turns a panic into an UnexpectedError. Steps run
// on their own goroutine are outside the recover in Pipeline.RunStep.
func doRecovered(ctx context.Context, step Step, analysis *model.Analysis) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &model.UnexpectedError{Err: fmt.Errorf("step %s panicked: %v", step.Name(), r)}
		}
	}()
	return step.Do(ctx, analysis)
}

// SynthesisStep combines both critiques into the raw scored report.
type SynthesisStep struct {
	invoker llm.Invoker
}

// NewSynthesisStep creates a SynthesisStep.
func NewSynthesisStep(invoker llm.Invoker) *SynthesisStep {
	return &SynthesisStep{invoker: invoker}
}

// Name returns the step name.
func (s *SynthesisStep) Name() string {
	return StepNameSynthesis
}

// Do executes the synthesis step.
func (s *SynthesisStep) Do(ctx context.Context, analysis *model.Analysis) error {
	p, err := prompt.RenderSynthesis(analysis.HTMLCritique, analysis.VisualCritique)
	if err != nil {
		return err
	}
	out, err := s.invoker.Complete(ctx, p)
	if err != nil {
		return modelCallError(err)
	}
	analysis.RawReport = out
	return nil
}

// NormalizeStep parses the raw synthesis output into the final report.
type NormalizeStep struct{}

// NewNormalizeStep creates a NormalizeStep.
func NewNormalizeStep() *NormalizeStep {
	return &NormalizeStep{}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return StepNameNormalize
}

// Do executes the normalize step.
func (s *NormalizeStep) Do(_ context.Context, analysis *model.Analysis) error {
	report, err := normalize.Normalize(analysis.RawReport)
	if err != nil {
		return err
	}
	analysis.Report = report
	return nil
}

// modelCallError reports a failed model call the same way the model
// pipeline reports internal failures through the "Error" sentinel.
func modelCallError(err error) error {
	return &model.UpstreamAnalysisError{
		Message: fmt.Sprintf("model call failed: %v", err),
		Err:     err,
	}
}
