package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/log"
	"github.com/nao1215/accessdoc/internal/queue"
)

// NewWorkerCmd creates the worker command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Analyze pages requested through an SQS queue",
		Long: `Worker long-polls an SQS queue for analysis requests and runs them
through the same pipeline as the HTTP API.

Each message body is {"url": "https://example.com"}. When a result queue is
configured, one message per request is sent to it:
  {"url": "...", "report": {...}}            on success
  {"url": "...", "error": "...", "kind": "..."} on failure

Requests are deleted once handled, whether they succeeded or not.

Examples:
  accessdoc worker --queue-url https://sqs.us-east-1.amazonaws.com/123456789012/accessdoc
  accessdoc worker --endpoint http://localhost:4566 --region us-east-1 --queue-url ...`,
		Args: cobra.NoArgs,
		RunE: runWorkerCmd,
	}

	cmd.Flags().String("queue-url", "", "Queue to read requests from")
	cmd.Flags().String("result-queue-url", "", "Queue to publish results to")
	cmd.Flags().String("region", "", "AWS region (default from the AWS configuration chain)")
	cmd.Flags().String("endpoint", "", "SQS-compatible endpoint, e.g. a local emulator")
	cmd.Flags().IntP("concurrency", "n", 0, "Concurrent analyses (default from configuration, 1)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")

	return cmd
}

// runWorkerCmd executes the worker command.
func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"queue-url":        &cfg.QueueURL,
		"result-queue-url": &cfg.ResultQueueURL,
		"region":           &cfg.AWSRegion,
		"endpoint":         &cfg.SQSEndpoint,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.WorkerConcurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if err := cfg.RequireQueue(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logJSON, err := flags.GetBool("log-json")
	if err != nil {
		return err
	}

	logger := log.NewServiceLogger(cmd.ErrOrStderr(), cfg.Verbose, logJSON)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	analyzer, cleanup, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup() //nolint:errcheck // Best effort close of the cache

	client, err := queue.NewClient(ctx, cfg.AWSRegion, cfg.SQSEndpoint)
	if err != nil {
		return err
	}

	opts := []queue.Option{
		queue.WithConcurrency(cfg.WorkerConcurrency),
		queue.WithLogger(logger),
	}
	if cfg.ResultQueueURL != "" {
		opts = append(opts, queue.WithResultQueue(cfg.ResultQueueURL))
	}
	return queue.NewWorker(client, cfg.QueueURL, analyzer, opts...).Run(ctx)
}
