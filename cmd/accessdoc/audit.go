package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/config"
	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/htmlaudit"
	"github.com/nao1215/accessdoc/internal/model"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Print static accessibility facts of a page without calling a model",
		Long: `Audit fetches a page and reports the facts that can be read directly from
its HTML: images without alt text, the heading outline, unlabeled form
controls, ambiguous link text, missing landmarks and whether the declared
lang attribute matches the language of the content.

No model API key is needed. The facts are the same ones given to the model
during "analyze".

Examples:
  accessdoc audit https://example.com
  accessdoc audit --fetch-mode direct --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runAuditCmd,
	}

	cmd.Flags().String("fetch-mode", "",
		"Override the fetch mode: firecrawl or direct")
	cmd.Flags().BoolP("json", "j", false, "Output the facts as JSON")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fetch-mode") {
		if cfg.FetchMode, err = cmd.Flags().GetString("fetch-mode"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.FetchMode == config.FetchModeFirecrawl && cfg.FirecrawlAPIKey == "" {
		return fmt.Errorf("configuration error: %w", config.ErrMissingFirecrawlKey)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := newOneShotLogger(cfg)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	fetcher, cleanup, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup() //nolint:errcheck // Best effort close of the cache

	return runAudit(ctx, fetcher, args[0], jsonOutput, cmd.OutOrStdout())
}

// runAudit fetches rawURL and writes its static facts to w.
func runAudit(ctx context.Context, fetcher fetch.Fetcher, rawURL string, jsonOutput bool, w io.Writer) error {
	pageURL, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return err
	}

	scraped, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	if !scraped.HasHTML() {
		return fmt.Errorf("failed to fetch %s: %w", pageURL, fetch.ErrEmptyHTML)
	}

	facts, err := htmlaudit.Audit(pageURL, scraped.HTML)
	if err != nil {
		return fmt.Errorf("failed to audit %s: %w", pageURL, err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			URL           string            `json:"url"`
			HasScreenshot bool              `json:"has_screenshot"`
			Issues        int               `json:"issues"`
			Facts         *model.AuditFacts `json:"facts"`
		}{pageURL, scraped.HasScreenshot(), facts.IssueCount(), facts})
	}

	_, err = io.WriteString(w, renderAuditFacts(pageURL, facts))
	return err
}

// renderAuditFacts formats facts for the terminal.
func renderAuditFacts(pageURL string, f *model.AuditFacts) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Static audit of "+pageURL) + "\n")
	if f.Title != "" {
		fmt.Fprintf(&sb, "  Title: %s\n", f.Title)
	}
	sb.WriteString("\n")

	lang := f.DeclaredLang
	switch {
	case lang == "":
		lang = errorStyle.Render("missing")
	case !f.LangValid:
		lang += " " + errorStyle.Render("(invalid tag)")
	case f.LangMismatch:
		lang += " " + errorStyle.Render("(content looks like "+f.DetectedLang+")")
	}
	fmt.Fprintf(&sb, "  %-18s %s\n", "Language", lang)
	fmt.Fprintf(&sb, "  %-18s %d (%s missing alt, %d decorative)\n", "Images",
		f.Images, countStyle(f.ImagesMissingAlt), f.ImagesEmptyAlt)
	fmt.Fprintf(&sb, "  %-18s %d (%s h1)\n", "Headings", len(f.Headings), h1Style(f.H1Count))
	fmt.Fprintf(&sb, "  %-18s %d (%s unlabeled)\n", "Form controls", f.FormControls, countStyle(f.UnlabeledControls))
	fmt.Fprintf(&sb, "  %-18s %d (%s ambiguous)\n", "Links", f.Links, countStyle(len(f.AmbiguousLinks)))
	fmt.Fprintf(&sb, "  %-18s %d characters\n", "Main text", f.MainTextLength)

	if len(f.SkippedLevels) > 0 {
		fmt.Fprintf(&sb, "\n  Skipped heading levels: %s\n", strings.Join(f.SkippedLevels, ", "))
	}
	if len(f.AmbiguousLinks) > 0 {
		fmt.Fprintf(&sb, "\n  Ambiguous link text: %s\n", strings.Join(quoteAll(f.AmbiguousLinks), ", "))
	}
	if len(f.MissingLandmarks) > 0 {
		fmt.Fprintf(&sb, "\n  Missing landmarks: %s\n", strings.Join(f.MissingLandmarks, ", "))
	}

	issues := f.IssueCount()
	sb.WriteString("\n")
	if issues == 0 {
		sb.WriteString(successStyle.Render("No static issues found.") + "\n")
	} else {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("%d static issues found.", issues)) + "\n")
	}
	sb.WriteString(mutedStyle.Render("Run \"accessdoc analyze\" for scored findings.") + "\n")
	return sb.String()
}

func countStyle(n int) string {
	if n == 0 {
		return successStyle.Render("0")
	}
	return errorStyle.Render(fmt.Sprint(n))
}

func h1Style(n int) string {
	if n == 1 {
		return successStyle.Render("1")
	}
	return errorStyle.Render(fmt.Sprint(n))
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
