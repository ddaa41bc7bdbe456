package config

import (
	"time"
)

// File is the YAML configuration file. Unset fields keep the value they
// already have.
type File struct {
	Server  ServerFile  `yaml:"server,omitempty"`
	Model   ModelFile   `yaml:"model,omitempty"`
	Fetch   FetchFile   `yaml:"fetch,omitempty"`
	Cache   CacheFile   `yaml:"cache,omitempty"`
	Worker  WorkerFile  `yaml:"worker,omitempty"`
	Analyze AnalyzeFile `yaml:"analyze,omitempty"`
}

// ServerFile configures the HTTP server.
type ServerFile struct {
	Listen         string   `yaml:"listen,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ModelFile configures the model invoker. API keys are read from the
// environment, never from this file.
type ModelFile struct {
	Name      string `yaml:"name,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// FetchFile configures the content fetcher.
type FetchFile struct {
	Mode             string        `yaml:"mode,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize      int64         `yaml:"max_body_size,omitempty"`
	UserAgent        string        `yaml:"user_agent,omitempty"`
	FirecrawlBaseURL string        `yaml:"firecrawl_base_url,omitempty"`
}

// CacheFile configures the scrape cache.
type CacheFile struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
	Dir     string        `yaml:"dir,omitempty"`
}

// WorkerFile configures the SQS worker.
type WorkerFile struct {
	QueueURL       string `yaml:"queue_url,omitempty"`
	ResultQueueURL string `yaml:"result_queue_url,omitempty"`
	Region         string `yaml:"region,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	Concurrency    int    `yaml:"concurrency,omitempty"`
}

// AnalyzeFile configures the pipeline.
type AnalyzeFile struct {
	CompactHTML       *bool `yaml:"compact_html,omitempty"`
	ParallelCritiques *bool `yaml:"parallel_critiques,omitempty"`
	BatchSize         int   `yaml:"batch_size,omitempty"`
}

// Apply copies every set field of f into c.
func (f *File) Apply(c *Config) {
	if f == nil {
		return
	}
	setString(&c.ListenAddr, f.Server.Listen)
	if len(f.Server.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.Server.AllowedOrigins
	}

	setString(&c.Model, f.Model.Name)
	setInt(&c.MaxTokens, f.Model.MaxTokens)
	setString(&c.OpenAIBaseURL, f.Model.BaseURL)

	setString(&c.FetchMode, f.Fetch.Mode)
	if f.Fetch.Timeout > 0 {
		c.FetchTimeout = f.Fetch.Timeout
	}
	if f.Fetch.MaxBodySize > 0 {
		c.MaxBodySize = f.Fetch.MaxBodySize
	}
	setString(&c.UserAgent, f.Fetch.UserAgent)
	setString(&c.FirecrawlBaseURL, f.Fetch.FirecrawlBaseURL)

	setBool(&c.CacheEnabled, f.Cache.Enabled)
	if f.Cache.TTL > 0 {
		c.CacheTTL = f.Cache.TTL
	}
	setString(&c.CacheDir, f.Cache.Dir)

	setString(&c.QueueURL, f.Worker.QueueURL)
	setString(&c.ResultQueueURL, f.Worker.ResultQueueURL)
	setString(&c.AWSRegion, f.Worker.Region)
	setString(&c.SQSEndpoint, f.Worker.Endpoint)
	setInt(&c.WorkerConcurrency, f.Worker.Concurrency)

	setBool(&c.CompactHTML, f.Analyze.CompactHTML)
	setBool(&c.ParallelCritiques, f.Analyze.ParallelCritiques)
	setInt(&c.BatchSize, f.Analyze.BatchSize)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
