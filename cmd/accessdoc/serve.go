package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/log"
	"github.com/nao1215/accessdoc/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the accessibility analysis HTTP API",
		Long: `Serve starts the HTTP API used by the report viewer.

Endpoints:
  GET  /                    service banner
  GET  /health              liveness probe
  POST /analyze             {"url": "..."} -> {"scores": [...], "implementation_plan": "..."}
  GET  /analyze/stream?url= Server-Sent Events with one progress event per stage
  GET  /ws/analyze?url=     the same progress events over a WebSocket

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  accessdoc serve
  accessdoc serve --listen :9000 --allow-origin https://viewer.example`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address (default from configuration, :8000)")
	cmd.Flags().StringSlice("allow-origin", nil, "Allowed CORS origin, repeatable (\"*\" allows any)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		if cfg.ListenAddr, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	if flags.Changed("allow-origin") {
		if cfg.AllowedOrigins, err = flags.GetStringSlice("allow-origin"); err != nil {
			return err
		}
	}
	if err := cfg.RequireServer(); err != nil {
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

	srv := server.New(analyzer,
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}
