package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/accessdoc/internal/model"
)

// Runner analyzes a single URL. *Analyzer satisfies it.
type Runner interface {
	Analyze(ctx context.Context, rawURL string) (*model.AnalysisReport, error)
}

// BatchResult is the outcome of analyzing one URL of a batch.
type BatchResult struct {
	URL      string
	Report   *model.AnalysisReport
	Err      error
	Duration time.Duration
}

// BatchProcessor analyzes multiple URLs concurrently.
// A failed URL does not stop the rest of the batch.
type BatchProcessor struct {
	runner      Runner
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Default is 3 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(runner Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: 3,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes urls and returns one result per URL in input order.
// The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(urls))
	err := bp.ProcessBatchWithCallback(ctx, urls, func(result BatchResult, index int) {
		// Each goroutine writes its own index.
		results[index] = result
	})
	return results, err
}

// ProcessBatchWithCallback analyzes urls and calls callback as each one
// completes. The callback is called from worker goroutines.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("analyzing url", "url", u, "index", i+1, "total", len(urls))

			began := time.Now()
			report, err := bp.runner.Analyze(ctx, u)
			result := BatchResult{URL: u, Report: report, Err: err, Duration: time.Since(began)}
			if err != nil {
				bp.logger.Warn("analysis failed", "url", u, "kind", model.Kind(err), "error", err)
			}
			callback(result, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return err
}
