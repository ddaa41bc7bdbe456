package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nao1215/accessdoc/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each reading the results of earlier steps
// from the analysis and recording its own.
type Step interface {
	// Do executes the step. A returned error stops the pipeline.
	Do(ctx context.Context, analysis *model.Analysis) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order and returns the first, classified, error.
// No later step runs after a failure.
func (p *Pipeline) Execute(ctx context.Context, analysis *model.Analysis) error {
	for _, step := range p.steps {
		if err := p.RunStep(ctx, analysis, step); err != nil {
			return err
		}
	}
	return nil
}

// RunStep runs a single step with cancellation check, logging and panic
// recovery. The returned error is always one of the model error types.
// On success the step is recorded in analysis.PerformedSteps.
func (p *Pipeline) RunStep(ctx context.Context, analysis *model.Analysis, step Step) (err error) {
	select {
	case <-ctx.Done():
		p.logger.Warn("pipeline cancelled",
			"step", step.Name(),
			"analysis_id", analysis.ID,
			"reason", ctx.Err(),
		)
		return model.Classify(ctx.Err())
	default:
	}

	p.logger.Info("executing step",
		"step", step.Name(),
		"analysis_id", analysis.ID,
		"url", analysis.URL,
	)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("step panicked",
				"step", step.Name(),
				"analysis_id", analysis.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = &model.UnexpectedError{Err: fmt.Errorf("step %s panicked: %v", step.Name(), r)}
		}
	}()

	if err := step.Do(ctx, analysis); err != nil {
		err = model.Classify(err)
		p.logger.Error("step failed",
			"step", step.Name(),
			"analysis_id", analysis.ID,
			"kind", model.Kind(err),
			"error", err,
		)
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"analysis_id", analysis.ID,
		"elapsed", analysis.Elapsed(),
	)
	analysis.MarkStep(step.Name())
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
