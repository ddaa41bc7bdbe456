package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/accessdoc/internal/model"
)

// DefaultFirecrawlBaseURL is the hosted Firecrawl API.
const DefaultFirecrawlBaseURL = "https://api.firecrawl.dev"

const (
	maxScrapeResponseSize = 64 * 1024 * 1024 // 64MB
	maxScreenshotSize     = 20 * 1024 * 1024 // 20MB
)

// FirecrawlFetcher renders the page through a Firecrawl-compatible scrape API
// and downloads the captured screenshot.
type FirecrawlFetcher struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	userAgent string
	logger    *slog.Logger
}

// FirecrawlOption configures a FirecrawlFetcher.
type FirecrawlOption func(*FirecrawlFetcher)

// WithFirecrawlHTTPClient sets the HTTP client used for the API and the
// screenshot download.
func WithFirecrawlHTTPClient(c *http.Client) FirecrawlOption {
	return func(f *FirecrawlFetcher) {
		f.client = c
	}
}

// WithFirecrawlBaseURL overrides the API endpoint, e.g. for a self-hosted instance.
func WithFirecrawlBaseURL(baseURL string) FirecrawlOption {
	return func(f *FirecrawlFetcher) {
		if baseURL != "" {
			f.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithFirecrawlLogger sets the logger.
func WithFirecrawlLogger(logger *slog.Logger) FirecrawlOption {
	return func(f *FirecrawlFetcher) {
		f.logger = logger
	}
}

// NewFirecrawlFetcher creates a FirecrawlFetcher authenticating with apiKey.
func NewFirecrawlFetcher(apiKey string, opts ...FirecrawlOption) *FirecrawlFetcher {
	f := &FirecrawlFetcher{
		client:    &http.Client{Timeout: 90 * time.Second},
		baseURL:   DefaultFirecrawlBaseURL,
		apiKey:    apiKey,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

// Fetch implements Fetcher. A screenshot failure is logged and yields a
// result without a screenshot.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, pageURL string) (*model.ScrapeResult, error) {
	payload, err := f.scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	html := extractHTML(payload)
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	result := &model.ScrapeResult{
		URL:       pageURL,
		HTML:      html,
		FetchedAt: time.Now(),
	}

	ref := extractScreenshot(payload)
	if ref == "" {
		f.logger.Warn("scrape response has no screenshot", "url", pageURL)
		return result, nil
	}
	shot, err := f.screenshot(ctx, ref)
	if err != nil {
		f.logger.Warn("screenshot unavailable", "url", pageURL, "error", err)
		return result, nil
	}
	result.Screenshot = shot
	return result, nil
}

func (f *FirecrawlFetcher) scrape(ctx context.Context, pageURL string) (map[string]any, error) {
	body, err := json.Marshal(scrapeRequest{
		URL:     pageURL,
		Formats: []string{"rawHtml", "screenshot"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape response: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("scrape request failed: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode scrape response: %w", err)
	}

	if resp.StatusCode >= 300 || payload["success"] == false {
		msg, _ := payload["error"].(string)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("scrape request failed: status %d: %s", resp.StatusCode, msg)
	}
	return payload, nil
}

// lookup returns the first non-empty value for key in the data object or at
// the top level of the payload.
func lookup(payload map[string]any, keys ...string) any {
	scopes := []map[string]any{}
	if data, ok := payload["data"].(map[string]any); ok {
		scopes = append(scopes, data)
	}
	scopes = append(scopes, payload)

	for _, scope := range scopes {
		for _, key := range keys {
			if v, ok := scope[key]; ok && v != nil && v != "" {
				return v
			}
		}
	}
	return nil
}

func extractHTML(payload map[string]any) string {
	switch v := lookup(payload, "html", "rawHtml").(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"content", "html"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func extractScreenshot(payload map[string]any) string {
	switch v := lookup(payload, "screenshot").(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["url"].(string)
		return s
	}
	return ""
}

// screenshot resolves a screenshot reference into base64 image data.
// The reference is a download URL, a data URI or already base64.
func (f *FirecrawlFetcher) screenshot(ctx context.Context, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.download(ctx, ref)
	default:
		if _, err := base64.StdEncoding.DecodeString(ref); err != nil {
			return "", fmt.Errorf("unrecognized screenshot reference: %w", err)
		}
		return ref, nil
	}
}

func (f *FirecrawlFetcher) download(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("screenshot download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScreenshotSize))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("screenshot download returned no data")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// decodeDataURI returns the base64 payload of a data URI.
func decodeDataURI(uri string) (string, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || data == "" {
		return "", errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		return data, nil
	}
	return base64.StdEncoding.EncodeToString([]byte(data)), nil
}
