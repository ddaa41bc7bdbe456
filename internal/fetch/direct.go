package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/accessdoc/internal/model"
)

// DirectFetcher downloads the page with a plain GET request.
// It sees only server-rendered markup and never captures a screenshot.
type DirectFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// DirectOption configures a DirectFetcher.
type DirectOption func(*DirectFetcher)

// WithDirectHTTPClient sets the HTTP client.
func WithDirectHTTPClient(c *http.Client) DirectOption {
	return func(f *DirectFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) DirectOption {
	return func(f *DirectFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of the response body are read.
func WithMaxBodySize(size int64) DirectOption {
	return func(f *DirectFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithDirectLogger sets the logger.
func WithDirectLogger(logger *slog.Logger) DirectOption {
	return func(f *DirectFetcher) {
		f.logger = logger
	}
}

// NewDirectFetcher creates a DirectFetcher.
func NewDirectFetcher(opts ...DirectOption) *DirectFetcher {
	f := &DirectFetcher{
		client:      &http.Client{Timeout: 60 * time.Second},
		userAgent:   DefaultUserAgent,
		maxBodySize: 5 * 1024 * 1024, // 5MB
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *DirectFetcher) Fetch(ctx context.Context, pageURL string) (*model.ScrapeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("failed to fetch %s: unexpected content type %q", pageURL, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, ErrEmptyHTML
	}

	f.logger.Debug("fetched page", "url", pageURL, "bytes", len(body))

	return &model.ScrapeResult{
		URL:       pageURL,
		HTML:      string(body),
		FetchedAt: time.Now(),
	}, nil
}
