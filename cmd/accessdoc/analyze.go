package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/config"
	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/pipeline"
	"github.com/nao1215/accessdoc/internal/report"
	"github.com/nao1215/accessdoc/internal/stream"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Analyze the accessibility of one or more web pages",
		Long: `Analyze scrapes each page, critiques its HTML and screenshot with a
language model and writes a report with five category scores and an
implementation plan.

With a single URL the progress of every stage is shown live on stderr.
With several URLs the pages are analyzed concurrently (see --batch) and a
report is written for each page as it completes.

Examples:
  # Analyze a page and print a text report
  accessdoc analyze https://example.com

  # Scheme defaults to https
  accessdoc analyze example.com

  # Markdown report written to a file
  accessdoc analyze -f markdown -o report.md https://example.com

  # Render the report in the terminal
  accessdoc analyze -f pretty https://example.com

  # Several pages, two at a time, without Firecrawl
  accessdoc analyze --fetch-mode direct -b 2 https://a.example https://b.example`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText),
		"Report format: "+formatList())
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("compact", false,
		"Write the short text summary (text format only)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent analyses when several URLs are given")
	cmd.Flags().String("fetch-mode", "",
		"Override the fetch mode: firecrawl or direct")
	cmd.Flags().StringP("model", "m", "",
		"Override the model name")
	cmd.Flags().Bool("parallel", false,
		"Run the HTML and screenshot critiques concurrently")
	cmd.Flags().Bool("cache", false,
		"Serve repeated scrapes of the same URL from the local cache")
	cmd.Flags().Bool("no-progress", false,
		"Do not show live progress")

	return cmd
}

// formatList returns the supported formats for help text.
func formatList() string {
	formats := report.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// analyzeOptions are the output settings of one analyze run.
type analyzeOptions struct {
	format       report.Format
	compact      bool
	outputPath   string
	batchSize    int
	showProgress bool

	// stdout receives the report when outputPath is empty.
	stdout io.Writer
	// progress receives live progress and batch status lines.
	progress io.Writer
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	opts, err := buildAnalyzeOptions(cmd, cfg)
	if err != nil {
		return err
	}

	logger := newOneShotLogger(cfg)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	analyzer, cleanup, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup() //nolint:errcheck // Best effort close of the cache

	return runAnalyze(ctx, analyzer, opts, args)
}

// applyAnalyzeFlags copies explicitly set flags over the loaded configuration.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("fetch-mode") {
		mode, err := flags.GetString("fetch-mode")
		if err != nil {
			return err
		}
		cfg.FetchMode = mode
	}
	if flags.Changed("model") {
		name, err := flags.GetString("model")
		if err != nil {
			return err
		}
		cfg.Model = name
	}
	if flags.Changed("parallel") {
		parallel, err := flags.GetBool("parallel")
		if err != nil {
			return err
		}
		cfg.ParallelCritiques = parallel
	}
	if flags.Changed("cache") {
		enabled, err := flags.GetBool("cache")
		if err != nil {
			return err
		}
		cfg.CacheEnabled = enabled
	}
	if flags.Changed("batch") {
		batch, err := flags.GetInt("batch")
		if err != nil {
			return err
		}
		cfg.BatchSize = batch
	}
	return nil
}

// buildAnalyzeOptions reads the output flags.
func buildAnalyzeOptions(cmd *cobra.Command, cfg *config.Config) (analyzeOptions, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return analyzeOptions{}, err
	}
	if _, err := report.New(report.Format(format), io.Discard); err != nil {
		return analyzeOptions{}, fmt.Errorf("%w (supported: %s)", err, formatList())
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return analyzeOptions{}, err
	}
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return analyzeOptions{}, err
	}
	noProgress, err := cmd.Flags().GetBool("no-progress")
	if err != nil {
		return analyzeOptions{}, err
	}

	return analyzeOptions{
		format:       report.Format(format),
		compact:      compact,
		outputPath:   outputPath,
		batchSize:    cfg.BatchSize,
		showProgress: !noProgress,
		stdout:       cmd.OutOrStdout(),
		progress:     cmd.ErrOrStderr(),
	}, nil
}

// newReportWriter returns the report writer for opts.
func newReportWriter(opts analyzeOptions, output io.Writer) (report.Writer, error) {
	if opts.format == report.FormatText && opts.compact {
		return report.NewSimpleWriter(output, report.WithCompact(true)), nil
	}
	return report.New(opts.format, output)
}

// reportOutput is the destination of the reports of one run.
type reportOutput struct {
	io.Writer
	file   *os.File
	closed bool
}

// Close closes the output file. Later calls and stdout outputs return nil.
func (o *reportOutput) Close() error {
	if o.file == nil || o.closed {
		return nil
	}
	o.closed = true
	return o.file.Close()
}

// openOutput returns the report destination: the file at path, created with
// its directories, or stdout when path is empty.
func openOutput(path string, stdout io.Writer) (*reportOutput, error) {
	if path == "" {
		return &reportOutput{Writer: stdout}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &reportOutput{Writer: f, file: f}, nil
}

// runAnalyze analyzes urls and writes their reports.
func runAnalyze(ctx context.Context, analyzer *pipeline.Analyzer, opts analyzeOptions, urls []string) error {
	if len(urls) == 0 {
		return errors.New("no URLs provided (specify one or more pages as arguments)")
	}

	output, err := openOutput(opts.outputPath, opts.stdout)
	if err != nil {
		return err
	}
	defer output.Close() //nolint:errcheck // Close error is irrelevant after a failed write

	writer, err := newReportWriter(opts, output)
	if err != nil {
		return err
	}

	if len(urls) == 1 {
		err = runLiveAnalysis(ctx, analyzer, opts, writer, urls[0])
	} else {
		err = runBatchAnalysis(ctx, analyzer, opts, writer, urls)
	}
	if err != nil {
		return err
	}
	return output.Close()
}

// displayURL returns the normalized form of rawURL, or rawURL itself when it
// cannot be normalized.
func displayURL(rawURL string) string {
	if u, err := fetch.NormalizeURL(rawURL); err == nil {
		return u
	}
	return rawURL
}

// runLiveAnalysis streams the progress of a single analysis and writes its
// report.
func runLiveAnalysis(ctx context.Context, analyzer *pipeline.Analyzer, opts analyzeOptions, writer report.Writer, rawURL string) error {
	streamer := stream.New(analyzer, stream.WithLogger(analyzer.Logger()))

	var final *model.AnalysisReport
	for event := range streamer.Stream(ctx, rawURL) {
		if opts.showProgress {
			fmt.Fprintln(opts.progress, renderProgressLine(event))
		}
		if event.Error {
			return fmt.Errorf("analysis of %s failed: %s", rawURL, event.Message)
		}
		if event.Type == model.EventReport {
			final = event.Data
		}
	}
	if final == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("analysis of %s ended without a report", rawURL)
	}

	pageURL := displayURL(rawURL)
	if opts.showProgress {
		fmt.Fprintln(opts.progress)
		fmt.Fprint(opts.progress, renderScoreSummary(pageURL, final))
		fmt.Fprintln(opts.progress)
	}
	if _, err := writer.Write(pageURL, final); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// runBatchAnalysis analyzes urls concurrently using BatchProcessor and
// writes each report as it completes.
func runBatchAnalysis(ctx context.Context, analyzer *pipeline.Analyzer, opts analyzeOptions, writer report.Writer, urls []string) error {
	if opts.showProgress {
		fmt.Fprintf(opts.progress, "Starting batch analysis of %d pages (concurrency: %d)...\n\n",
			len(urls), opts.batchSize)
	}
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(analyzer,
		pipeline.WithConcurrency(opts.batchSize),
		pipeline.WithBatchLogger(analyzer.Logger()),
	)

	var (
		mu       sync.Mutex
		failed   int
		writeErr error
	)
	err := bp.ProcessBatchWithCallback(ctx, urls, func(result pipeline.BatchResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		prefix := fmt.Sprintf("[%d/%d]", index+1, len(urls))
		if result.Err != nil {
			failed++
			if opts.showProgress {
				fmt.Fprintf(opts.progress, "%s %s %s\n", prefix, errorStyle.Render("failed:"), result.URL)
				fmt.Fprintf(opts.progress, "      %s\n", model.ErrorDetail(result.Err))
			}
			return
		}

		if opts.showProgress {
			fmt.Fprintf(opts.progress, "%s %s %s (%s)\n", prefix, gradeBadge(result.Report.OverallScore()),
				result.URL, result.Duration.Round(time.Millisecond))
		}
		if _, err := writer.Write(displayURL(result.URL), result.Report); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("failed to write report for %s: %w", result.URL, err)
		}
	})

	if opts.showProgress {
		fmt.Fprintf(opts.progress, "\nBatch analysis completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	}

	switch {
	case err != nil:
		return err
	case writeErr != nil:
		return writeErr
	case failed > 0:
		return fmt.Errorf("%d of %d analyses failed", failed, len(urls))
	default:
		return nil
	}
}
