package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/model"
)

// DefaultPartialTTL is how long a scrape without a screenshot is served when
// the wrapped fetcher normally returns one.
const DefaultPartialTTL = 5 * time.Minute

// CachingFetcher serves scrapes from a Store and falls through to another
// Fetcher on a miss. Cache failures are logged and never fail a fetch.
type CachingFetcher struct {
	next             fetch.Fetcher
	store            *Store
	ttl              time.Duration
	partialTTL       time.Duration
	expectScreenshot bool
	logger           *slog.Logger
}

// Option configures a CachingFetcher.
type Option func(*CachingFetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachingFetcher) {
		c.logger = logger
	}
}

// WithPartialTTL sets how long a scrape without a screenshot is served.
// A value of zero or less refetches such scrapes every time.
func WithPartialTTL(d time.Duration) Option {
	return func(c *CachingFetcher) {
		c.partialTTL = d
	}
}

// WithScreenshotExpected reports whether the wrapped fetcher normally returns
// a screenshot. When false, scrapes without one are kept for the full TTL.
func WithScreenshotExpected(expected bool) Option {
	return func(c *CachingFetcher) {
		c.expectScreenshot = expected
	}
}

// NewCachingFetcher wraps next with store. Entries older than ttl are refetched.
func NewCachingFetcher(next fetch.Fetcher, store *Store, ttl time.Duration, opts ...Option) *CachingFetcher {
	c := &CachingFetcher{
		next:   next,
		store:  store,
		ttl:              ttl,
		partialTTL:       DefaultPartialTTL,
		expectScreenshot: true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements fetch.Fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, pageURL string) (*model.ScrapeResult, error) {
	cached, err := c.store.Get(ctx, pageURL, c.ttl)
	switch {
	case err != nil:
		c.logger.Warn("scrape cache read failed", "url", pageURL, "error", err)
	case cached != nil && c.partial(cached):
		c.logger.Debug("scrape cache entry lacks a screenshot, refetching", "url", pageURL, "fetched_at", cached.FetchedAt)
	case cached != nil:
		c.logger.Debug("scrape cache hit", "url", pageURL, "fetched_at", cached.FetchedAt)
		return cached, nil
	}

	result, err := c.next.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if result.URL == "" {
		result.URL = pageURL
	}
	if err := c.store.Put(ctx, result); err != nil {
		c.logger.Warn("scrape cache write failed", "url", pageURL, "error", err)
	}
	return result, nil
}

// partial reports whether cached is missing a screenshot the fetcher should
// have produced and is older than the partial TTL.
func (c *CachingFetcher) partial(cached *model.ScrapeResult) bool {
	if !c.expectScreenshot || cached.HasScreenshot() {
		return false
	}
	return c.partialTTL <= 0 || time.Since(cached.FetchedAt) >= c.partialTTL
}
