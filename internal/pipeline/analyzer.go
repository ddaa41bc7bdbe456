package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/llm"
	"github.com/nao1215/accessdoc/internal/model"
)

// Stages are the four fixed stages of an analysis in execution order.
type Stages struct {
	Scrape    Step
	Critique  Step
	Synthesis Step
	Normalize Step
}

// List returns the stages as a slice in execution order.
func (s Stages) List() []Step {
	return []Step{s.Scrape, s.Critique, s.Synthesis, s.Normalize}
}

// Analyzer runs the complete analysis for one URL.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	fetcher  fetch.Fetcher
	invoker  llm.Invoker
	compact  bool
	parallel bool
	logger   *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithCompactHTML strips non-content markup before the HTML critique.
func WithCompactHTML(compact bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.compact = compact
	}
}

// WithParallelCritiques runs the HTML and visual critiques concurrently.
func WithParallelCritiques(parallel bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.parallel = parallel
	}
}

// NewAnalyzer creates an Analyzer from its two collaborators.
func NewAnalyzer(fetcher fetch.Fetcher, invoker llm.Invoker, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fetcher: fetcher,
		invoker: invoker,
		compact: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the analyzer's logger.
func (a *Analyzer) Logger() *slog.Logger {
	return a.logger
}

// Stages builds fresh step instances for one run.
func (a *Analyzer) Stages() Stages {
	return Stages{
		Scrape: NewScrapeStep(a.fetcher, a.logger),
		Critique: NewCritiqueStep(
			NewHTMLCritiqueStep(a.invoker, a.compact, a.logger),
			NewVisualCritiqueStep(a.invoker, a.logger),
			a.parallel,
		),
		Synthesis: NewSynthesisStep(a.invoker),
		Normalize: NewNormalizeStep(),
	}
}

// Pipeline returns a pipeline with all stages added.
func (a *Analyzer) Pipeline() *Pipeline {
	p := New(WithLogger(a.logger))
	p.AddSteps(a.Stages().List()...)
	return p
}

// NewAnalysis validates rawURL and creates the working state for a run.
// An unusable URL is reported as a *model.ScrapeError.
func (a *Analyzer) NewAnalysis(rawURL string) (*model.Analysis, error) {
	u, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return nil, &model.ScrapeError{URL: rawURL, Err: err}
	}
	return model.NewAnalysis(u), nil
}

// Analyze runs every stage for rawURL and returns the report.
// Errors are always one of the model error types and no partial report is
// returned on failure.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.AnalysisReport, error) {
	analysis, err := a.NewAnalysis(rawURL)
	if err != nil {
		return nil, err
	}
	if err := a.Run(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis.Report, nil
}

// Run executes all stages on an existing analysis.
func (a *Analyzer) Run(ctx context.Context, analysis *model.Analysis) error {
	if err := a.Pipeline().Execute(ctx, analysis); err != nil {
		return err
	}
	a.logger.Info("analysis complete",
		"analysis_id", analysis.ID,
		"url", analysis.URL,
		"overall_score", analysis.Report.OverallScore(),
		"elapsed", analysis.Elapsed(),
	)
	return nil
}
