package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/accessdoc/internal/model"
)

// Fetcher retrieves a page.
//
// Implementations return an error instead of a result with empty HTML.
// A missing screenshot is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.ScrapeResult, error)
}

var (
	// ErrEmptyHTML is returned when the remote side answered without markup.
	ErrEmptyHTML = errors.New("no HTML content in response")

	// ErrInvalidURL is returned by NormalizeURL for unusable input.
	ErrInvalidURL = errors.New("invalid URL")
)

// DefaultUserAgent is sent by DirectFetcher and screenshot downloads.
const DefaultUserAgent = "accessdoc/1.0 (+https://github.com/nao1215/accessdoc)"

// NormalizeURL trims the input, defaults the scheme to https and requires an
// http or https URL with a host. The fragment is dropped.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}
