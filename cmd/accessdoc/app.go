package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/cache"
	"github.com/nao1215/accessdoc/internal/config"
	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/llm"
	"github.com/nao1215/accessdoc/internal/log"
	"github.com/nao1215/accessdoc/internal/pipeline"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds the configuration for cmd: defaults, then the config
// file, then the environment, then the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newOneShotLogger returns the logger of commands that finish on their own.
func newOneShotLogger(cfg *config.Config) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// newFetcher builds the content fetcher selected by cfg, wrapped in the scrape
// cache when enabled. The returned cleanup closes the cache.
func newFetcher(cfg *config.Config, logger *slog.Logger) (fetch.Fetcher, func() error, error) {
	client := &http.Client{Timeout: cfg.FetchTimeout}

	var fetcher fetch.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeDirect:
		fetcher = fetch.NewDirectFetcher(
			fetch.WithDirectHTTPClient(client),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
			fetch.WithDirectLogger(logger),
		)
	case config.FetchModeFirecrawl:
		opts := []fetch.FirecrawlOption{
			fetch.WithFirecrawlHTTPClient(client),
			fetch.WithFirecrawlLogger(logger),
		}
		if cfg.FirecrawlBaseURL != "" {
			opts = append(opts, fetch.WithFirecrawlBaseURL(cfg.FirecrawlBaseURL))
		}
		fetcher = fetch.NewFirecrawlFetcher(cfg.FirecrawlAPIKey, opts...)
	default:
		return nil, nil, config.ErrInvalidFetchMode
	}

	noop := func() error { return nil }
	if !cfg.CacheEnabled {
		return fetcher, noop, nil
	}

	store, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open scrape cache: %w", err)
	}
	logger.Debug("scrape cache enabled", "path", store.Path(), "ttl", cfg.CacheTTL)
	cached := cache.NewCachingFetcher(fetcher, store, cfg.CacheTTL,
		cache.WithLogger(logger),
		cache.WithScreenshotExpected(cfg.FetchMode == config.FetchModeFirecrawl),
	)
	return cached, store.Close, nil
}

// newInvoker builds the model invoker from cfg.
func newInvoker(cfg *config.Config, logger *slog.Logger) llm.Invoker {
	opts := []llm.Option{
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithLogger(logger),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return llm.NewOpenAIInvoker(cfg.OpenAIAPIKey, opts...)
}

// newAnalyzer validates cfg and wires the fetcher, the invoker and the
// pipeline. The returned cleanup must be called when the analyzer is no
// longer used.
func newAnalyzer(cfg *config.Config, logger *slog.Logger) (*pipeline.Analyzer, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	fetcher, cleanup, err := newFetcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	analyzer := pipeline.NewAnalyzer(fetcher, newInvoker(cfg, logger),
		pipeline.WithAnalyzerLogger(logger),
		pipeline.WithCompactHTML(cfg.CompactHTML),
		pipeline.WithParallelCritiques(cfg.ParallelCritiques),
	)
	return analyzer, cleanup, nil
}
