package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "accessdoc"

	DefaultListenAddr    = ":8000"
	DefaultAllowedOrigin = "http://localhost:3000"
	DefaultModel         = "gpt-4o"
	DefaultMaxTokens     = 1024

	// FetchModeFirecrawl renders the page and captures a screenshot through
	// the Firecrawl API.
	FetchModeFirecrawl = "firecrawl"
	// FetchModeDirect downloads the HTML with a plain GET. No screenshot.
	FetchModeDirect = "direct"

	DefaultFetchMode    = FetchModeFirecrawl
	DefaultFetchTimeout = 60 * time.Second

	// DefaultMaxBodySize limits the HTML read by the direct fetcher.
	DefaultMaxBodySize = 5 * 1024 * 1024

	DefaultUserAgent = "accessdoc/1.0 (+https://github.com/nao1215/accessdoc)"

	DefaultCacheTTL          = time.Hour
	DefaultWorkerConcurrency = 1
	DefaultBatchSize         = 3
)

// Config holds all configuration options. It is populated from defaults,
// the YAML file, the environment and CLI flags, in that order, and passed
// through the application rather than held globally.
type Config struct {
	// ListenAddr is the HTTP server address.
	ListenAddr string

	// AllowedOrigins are the CORS and WebSocket origins. "*" allows any.
	AllowedOrigins []string

	// OpenAIAPIKey authenticates model calls. Environment only in practice.
	OpenAIAPIKey string

	// OpenAIBaseURL points at an OpenAI-compatible endpoint. Empty uses the
	// official API.
	OpenAIBaseURL string

	// Model is the chat model used for all three prompts.
	Model string

	// MaxTokens caps each completion.
	MaxTokens int

	// FetchMode selects the content fetcher: firecrawl or direct.
	FetchMode string

	// FirecrawlAPIKey authenticates the Firecrawl fetcher.
	FirecrawlAPIKey string

	// FirecrawlBaseURL overrides the Firecrawl endpoint.
	FirecrawlBaseURL string

	// FetchTimeout bounds a single fetch request.
	FetchTimeout time.Duration

	// MaxBodySize is the maximum HTML size read by the direct fetcher.
	// 0 uses DefaultMaxBodySize.
	MaxBodySize int64

	// UserAgent is sent by the direct fetcher.
	UserAgent string

	// CompactHTML strips scripts, styles and comments before the HTML audit.
	CompactHTML bool

	// ParallelCritiques runs the HTML and visual audits concurrently.
	ParallelCritiques bool

	// CacheEnabled serves repeated fetches of the same URL from SQLite.
	CacheEnabled bool

	// CacheTTL is how long a cached scrape stays fresh.
	CacheTTL time.Duration

	// CacheDir holds the cache database. Defaults to the XDG data directory.
	CacheDir string

	// QueueURL is the SQS queue read by the worker.
	QueueURL string

	// ResultQueueURL receives one result per request. Optional.
	ResultQueueURL string

	// AWSRegion overrides the region from the AWS configuration chain.
	AWSRegion string

	// SQSEndpoint points the worker at an SQS-compatible service.
	SQSEndpoint string

	// WorkerConcurrency is the number of analyses the worker runs at once.
	WorkerConcurrency int

	// BatchSize is the number of concurrent analyses for multi-URL CLI runs.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddr:        DefaultListenAddr,
		AllowedOrigins:    []string{DefaultAllowedOrigin},
		Model:             DefaultModel,
		MaxTokens:         DefaultMaxTokens,
		FetchMode:         DefaultFetchMode,
		FetchTimeout:      DefaultFetchTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		CompactHTML:       true,
		CacheTTL:          DefaultCacheTTL,
		CacheDir:          XDGDataDir(),
		WorkerConcurrency: DefaultWorkerConcurrency,
		BatchSize:         DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for accessdoc.
// On Linux: ~/.local/share/accessdoc
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for accessdoc.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks settings that do not depend on the command being run.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.FetchMode != FetchModeFirecrawl && c.FetchMode != FetchModeDirect {
		return ErrInvalidFetchMode
	}
	if c.Model == "" {
		return ErrInvalidModel
	}
	if c.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if c.WorkerConcurrency <= 0 || c.BatchSize <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// RequireServer checks the settings used by the HTTP server.
func (c *Config) RequireServer() error {
	if c.ListenAddr == "" {
		return ErrMissingListenAddr
	}
	return nil
}

// RequireQueue checks the settings used by the queue worker.
func (c *Config) RequireQueue() error {
	if c.QueueURL == "" {
		return ErrMissingQueueURL
	}
	return nil
}

// RequireCredentials checks the keys needed to run an analysis.
func (c *Config) RequireCredentials() error {
	if c.OpenAIAPIKey == "" {
		return ErrMissingOpenAIKey
	}
	if c.FetchMode == FetchModeFirecrawl && c.FirecrawlAPIKey == "" {
		return ErrMissingFirecrawlKey
	}
	return nil
}
