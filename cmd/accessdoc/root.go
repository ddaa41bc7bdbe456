package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for accessdoc.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accessdoc",
		Short: "AI-assisted web accessibility analysis",
		Long: `accessdoc analyzes the accessibility of a web page.

It scrapes the page HTML and a screenshot, asks a language model to critique
both, and condenses the critiques into scores for five categories
(Structure & Semantics, Readability, Navigability, Forms & Inputs, Media)
with a prioritized implementation plan.

Run it once from the terminal with "analyze", or start the HTTP API that
streams progress to a frontend with "serve".

Credentials are read from the environment:
  OPENAI_API_KEY     model provider key
  FIRECRAWL_API_KEY  Firecrawl key (fetch mode firecrawl)`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .accessdoc in current or home directory)")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
