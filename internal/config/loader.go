package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".accessdoc"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

//go:embed templates/accessdoc.yaml
var templateFS embed.FS

// Template returns the commented configuration file written by `accessdoc init`.
func Template() ([]byte, error) {
	return templateFS.ReadFile("templates/accessdoc.yaml")
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .accessdoc in the current directory
// 3. Look for .accessdoc in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"
	EnvFirecrawlAPIKey = "FIRECRAWL_API_KEY"
	EnvAllowedOrigins  = "ACCESSDOC_ALLOWED_ORIGINS"
	EnvQueueURL        = "ACCESSDOC_QUEUE_URL"
)

// ApplyEnv overrides c with the environment. lookup is os.LookupEnv in
// production.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvOpenAIAPIKey); ok && v != "" {
		c.OpenAIAPIKey = v
	}
	if v, ok := lookup(EnvOpenAIBaseURL); ok && v != "" {
		c.OpenAIBaseURL = v
	}
	if v, ok := lookup(EnvFirecrawlAPIKey); ok && v != "" {
		c.FirecrawlAPIKey = v
	}
	if v, ok := lookup(EnvAllowedOrigins); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.AllowedOrigins = origins
		}
	}
	if v, ok := lookup(EnvQueueURL); ok && v != "" {
		c.QueueURL = v
	}
}

// Load builds the configuration from defaults, the configuration file and
// the environment. A missing file is only an error when configPath was
// given explicitly.
func Load(configPath string) (*Config, error) {
	c := NewConfig()
	c.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	switch {
	case path != "":
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		f.Apply(c)
		c.ConfigFilePath = path
	case configPath != "":
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	ApplyEnv(c, os.LookupEnv)
	return c, nil
}
