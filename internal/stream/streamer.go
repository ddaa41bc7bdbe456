package stream

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"runtime/debug"

	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/pipeline"
)

// Streamer runs the analyzer's stages and reports each milestone as a
// model.ProgressEvent.
type Streamer struct {
	analyzer *pipeline.Analyzer
	logger   *slog.Logger
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Streamer) {
		s.logger = logger
	}
}

// New creates a Streamer over analyzer.
func New(analyzer *pipeline.Analyzer, opts ...Option) *Streamer {
	s := &Streamer{analyzer: analyzer}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = analyzer.Logger()
	}
	return s
}

// Stream returns the events of one analysis of rawURL.
//
// The sequence ends after a report event or after exactly one error event.
// Nothing runs until the sequence is ranged over, and it stops early when the
// consumer stops iterating or ctx is done.
func (s *Streamer) Stream(ctx context.Context, rawURL string) iter.Seq[model.ProgressEvent] {
	return func(yield func(model.ProgressEvent) bool) {
		r := &run{
			ctx:    ctx,
			yield:  yield,
			logger: s.logger,
		}
		defer r.recoverPanic()
		s.execute(r, rawURL)
	}
}

func (s *Streamer) execute(r *run, rawURL string) {
	if !r.progress(model.StepInit, fmt.Sprintf("Starting accessibility analysis for %s.", rawURL)) {
		return
	}

	analysis, err := s.analyzer.NewAnalysis(rawURL)
	if err != nil {
		r.fail(model.StepInit, err)
		return
	}
	r.analysisID = analysis.ID

	p := pipeline.New(pipeline.WithLogger(s.logger))
	stages := s.analyzer.Stages()

	if !r.progress(model.StepScrapeStart, "Scraping website content and capturing screenshot...") {
		return
	}
	if err := p.RunStep(r.ctx, analysis, stages.Scrape); err != nil {
		r.fail(model.StepScrapeStart, err)
		return
	}
	if !analysis.Scrape.HasHTML() {
		r.fail(model.StepScrapeComplete, &model.ScrapeError{URL: analysis.URL})
		return
	}

	msg := "Website scraped successfully."
	if analysis.Audit != nil {
		msg = fmt.Sprintf("Website scraped successfully. Static checks: %s.", analysis.Audit.Summary())
	}
	if !r.progress(model.StepScrapeComplete, msg) {
		return
	}

	msg = "Screenshot captured."
	if !analysis.HasScreenshot() {
		msg = "Screenshot not available. Proceeding with HTML-only analysis."
	}
	if !r.progress(model.StepScreenshotStatus, msg) {
		return
	}

	if !r.progress(model.StepAIAnalysis, "Analyzing HTML and screenshot with AI...") {
		return
	}
	for _, step := range []pipeline.Step{stages.Critique, stages.Synthesis} {
		if err := p.RunStep(r.ctx, analysis, step); err != nil {
			r.fail(model.StepAIAnalysis, err)
			return
		}
	}

	if !r.progress(model.StepReportProcessing, "Processing analysis report...") {
		return
	}
	if err := p.RunStep(r.ctx, analysis, stages.Normalize); err != nil {
		r.fail(model.StepReportProcessing, err)
		return
	}

	r.emit(model.NewReportEvent(analysis.Report))
}

// run is the state of one sequence.
type run struct {
	ctx        context.Context
	yield      func(model.ProgressEvent) bool
	logger     *slog.Logger
	analysisID string

	// reached is the milestone index of the last informational event.
	reached  int
	started  bool
	done     bool
	yielding bool
}

// progress emits the next milestone and reports whether to continue.
func (r *run) progress(step, message string) bool {
	next := 0
	if r.started {
		next = r.reached + 1
	}
	if !r.emit(model.NewProgressEvent(step, message, next)) {
		return false
	}
	r.started = true
	r.reached = next
	return true
}

// fail emits the terminal error event at the last reached milestone.
// Nothing is emitted when ctx is done, since the consumer is gone.
func (r *run) fail(step string, err error) {
	err = model.Classify(err)
	if r.ctx.Err() != nil {
		r.logger.Info("stream cancelled", "analysis_id", r.analysisID, "step", step)
		r.done = true
		return
	}
	r.logger.Warn("stream failed",
		"analysis_id", r.analysisID,
		"step", step,
		"kind", model.Kind(err),
		"error", err,
	)
	r.emit(model.NewErrorEvent(step, model.ErrorDetail(err), r.reached))
	r.done = true
}

func (r *run) emit(event model.ProgressEvent) bool {
	if r.done {
		return false
	}
	if r.ctx.Err() != nil {
		r.done = true
		return false
	}
	r.yielding = true
	ok := r.yield(event)
	r.yielding = false
	if !ok || event.Terminal() {
		r.done = true
		return false
	}
	return true
}

// recoverPanic turns a panic outside the consumer into one final error event.
// Panics raised by the consumer itself are propagated.
func (r *run) recoverPanic() {
	v := recover()
	if v == nil {
		return
	}
	if r.yielding {
		panic(v)
	}
	r.logger.Error("stream panicked",
		"analysis_id", r.analysisID,
		"panic", v,
		"stack", string(debug.Stack()),
	)
	step := model.StepInit
	if r.started {
		step = stepAt(r.reached)
	}
	r.emit(model.NewErrorEvent(step, model.ErrorDetail(&model.UnexpectedError{Err: fmt.Errorf("%v", v)}), r.reached))
	r.done = true
}

func stepAt(i int) string {
	steps := []string{
		model.StepInit,
		model.StepScrapeStart,
		model.StepScrapeComplete,
		model.StepScreenshotStatus,
		model.StepAIAnalysis,
		model.StepReportProcessing,
	}
	if i < 0 || i >= len(steps) {
		return model.StepComplete
	}
	return steps[i]
}
