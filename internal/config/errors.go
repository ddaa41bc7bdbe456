package config

import "errors"

// Configuration validation errors returned by Config.Validate and the
// Require methods.
var (
	// ErrMissingOpenAIKey is returned when no model API key is configured.
	ErrMissingOpenAIKey = errors.New("missing model API key: set OPENAI_API_KEY")

	// ErrMissingFirecrawlKey is returned when the firecrawl fetcher is selected
	// without an API key.
	ErrMissingFirecrawlKey = errors.New("missing Firecrawl API key: set FIRECRAWL_API_KEY or use fetch mode direct")

	// ErrInvalidFetchMode is returned for an unknown fetch mode.
	ErrInvalidFetchMode = errors.New("invalid fetch mode: must be firecrawl or direct")

	// ErrInvalidModel is returned when the model name is empty.
	ErrInvalidModel = errors.New("invalid model: must not be empty")

	// ErrInvalidMaxTokens is returned when the completion token limit is not positive.
	ErrInvalidMaxTokens = errors.New("invalid max tokens: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCacheTTL is returned when the cache is enabled with a
	// non-positive TTL.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive")

	// ErrInvalidConcurrency is returned when a concurrency setting is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrMissingListenAddr is returned when the server address is empty.
	ErrMissingListenAddr = errors.New("missing listen address")

	// ErrMissingQueueURL is returned when the worker has no queue to read.
	ErrMissingQueueURL = errors.New("missing queue URL: set queue_url or --queue-url")
)
