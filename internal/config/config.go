// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/queryforge/queryforge/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Builder is the query builder (LLM) configuration.
	Builder BuilderConfig

	// Schema discovery and caching configuration.
	Schema SchemaConfig

	// Pipeline processing configuration.
	Pipeline PipelineConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
}

// BuilderProvider selects the query builder implementation.
type BuilderProvider string

const (
	// BuilderProviderRule builds queries deterministically from the intent.
	BuilderProviderRule BuilderProvider = "rule"

	// BuilderProviderOpenAI delegates query drafting to an
	// OpenAI-compatible chat API.
	BuilderProviderOpenAI BuilderProvider = "openai"
)

// BuilderConfig contains query builder settings.
type BuilderConfig struct {
	// Provider selects the builder implementation (rule, openai).
	Provider BuilderProvider

	// APIKey is the authentication key for the LLM provider.
	APIKey string

	// BaseURL is the base URL for the LLM API.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout is the maximum time to wait for builder responses.
	Timeout time.Duration

	// MaxTokens is the maximum tokens for the LLM response.
	MaxTokens int

	// MaxRetries is the number of retries on transient failures.
	MaxRetries int
}

// SchemaConfig contains schema discovery settings.
type SchemaConfig struct {
	// BaseURL is the cluster endpoint mappings are fetched from.
	// Empty disables remote discovery; callers then supply mappings directly.
	BaseURL string

	// APIKey authenticates mapping fetches (optional).
	APIKey string

	// FetchTimeout bounds a single mapping fetch.
	FetchTimeout time.Duration

	// CacheTTL is how long a cached analysis stays fresh.
	CacheTTL time.Duration

	// CacheMaxEntries bounds the analysis cache size.
	CacheMaxEntries int
}

// PipelineConfig contains pipeline processing settings.
type PipelineConfig struct {
	// MaxInputSize is the maximum allowed user text size in bytes.
	MaxInputSize int

	// MaxPerspectives caps the generated perspectives per request.
	MaxPerspectives int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := BuilderProvider(getEnvOrDefault("BUILDER_PROVIDER", "rule"))
	if provider != BuilderProviderOpenAI {
		provider = BuilderProviderRule
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Builder: BuilderConfig{
			Provider:   provider,
			APIKey:     os.Getenv("BUILDER_API_KEY"),
			BaseURL:    getEnvOrDefault("BUILDER_BASE_URL", "https://api.openai.com/v1"),
			Model:      getEnvOrDefault("BUILDER_MODEL", "gpt-4o-mini"),
			Timeout:    getDurationOrDefault("BUILDER_TIMEOUT", 30*time.Second),
			MaxTokens:  getIntOrDefault("BUILDER_MAX_TOKENS", 1024),
			MaxRetries: getIntOrDefault("BUILDER_MAX_RETRIES", 2),
		},
		Schema: SchemaConfig{
			BaseURL:         os.Getenv("SCHEMA_BASE_URL"),
			APIKey:          os.Getenv("SCHEMA_API_KEY"),
			FetchTimeout:    getDurationOrDefault("SCHEMA_FETCH_TIMEOUT", 10*time.Second),
			CacheTTL:        getDurationOrDefault("SCHEMA_CACHE_TTL", time.Hour),
			CacheMaxEntries: getIntOrDefault("SCHEMA_CACHE_MAX_ENTRIES", 100),
		},
		Pipeline: PipelineConfig{
			MaxInputSize:    getIntOrDefault("MAX_INPUT_SIZE", 10000),
			MaxPerspectives: getIntOrDefault("MAX_PERSPECTIVES", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Builder.Provider == BuilderProviderOpenAI && c.Builder.APIKey == "" {
		return fmt.Errorf("%w: BUILDER_API_KEY is required for the openai provider", domain.ErrInvalidConfig)
	}

	if c.Builder.Timeout < time.Second {
		return fmt.Errorf("%w: BUILDER_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.Builder.MaxTokens < 100 {
		return fmt.Errorf("%w: BUILDER_MAX_TOKENS must be at least 100", domain.ErrInvalidConfig)
	}

	if c.Schema.CacheTTL < time.Minute {
		return fmt.Errorf("%w: SCHEMA_CACHE_TTL must be at least 1 minute", domain.ErrInvalidConfig)
	}

	if c.Schema.CacheMaxEntries < 1 {
		return fmt.Errorf("%w: SCHEMA_CACHE_MAX_ENTRIES must be positive", domain.ErrInvalidConfig)
	}

	if c.Pipeline.MaxInputSize < 100 {
		return fmt.Errorf("%w: MAX_INPUT_SIZE must be at least 100 bytes", domain.ErrInvalidConfig)
	}

	if c.Pipeline.MaxPerspectives < 1 || c.Pipeline.MaxPerspectives > 3 {
		return fmt.Errorf("%w: MAX_PERSPECTIVES must be between 1 and 3", domain.ErrInvalidConfig)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Bare integers are seconds (e.g. "15")
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
