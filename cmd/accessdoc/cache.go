package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/accessdoc/internal/cache"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local scrape cache",
		Long: `The scrape cache stores the HTML and screenshot of pages fetched while
caching is enabled (cache.enabled in the configuration or --cache), so that
repeated analyses of the same page skip the scrape. Reports are never cached.`,
	}

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCachePurgeCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
			if err != nil {
				return fmt.Errorf("failed to open scrape cache: %w", err)
			}
			defer store.Close()

			return listCache(cmd.Context(), store, cfg.CacheTTL, cmd.OutOrStdout())
		},
	}
}

func newCachePurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached pages",
		Long: `Purge deletes cached pages. By default every entry is deleted; with
--older-than only entries fetched before that age are.

Examples:
  accessdoc cache purge
  accessdoc cache purge --older-than 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
			if err != nil {
				return fmt.Errorf("failed to open scrape cache: %w", err)
			}
			defer store.Close()

			n, err := store.Purge(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d cached %s\n", n, plural(n, "page", "pages"))
			return nil
		},
	}
	cmd.Flags().Duration("older-than", 0, "Only delete entries older than this age")
	return cmd
}

// listCache writes a table of cached entries. Entries older than ttl are
// marked stale.
func listCache(ctx context.Context, store *cache.Store, ttl time.Duration, w io.Writer) error {
	entries, err := store.Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "Scrape cache is empty (%s)\n", store.Path())
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("URL", "FETCHED", "HTML", "SCREENSHOT", "STATUS")
	for _, e := range entries {
		status := successStyle.Render("fresh")
		if ttl > 0 && time.Since(e.FetchedAt) > ttl {
			status = mutedStyle.Render("stale")
		}
		screenshot := "no"
		if e.HasScreenshot {
			screenshot = "yes"
		}
		t.Row(e.URL, humanize.Time(e.FetchedAt), humanize.Bytes(uint64(e.HTMLBytes)), screenshot, status) //nolint:gosec // Length is never negative
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d %s in %s\n", len(entries), plural(int64(len(entries)), "page", "pages"), store.Path())
	return nil
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
