package config

import (
	"errors"
	"testing"
	"time"

	"github.com/queryforge/queryforge/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Builder.Provider != BuilderProviderRule {
		t.Errorf("Provider = %q, want rule", cfg.Builder.Provider)
	}
	if cfg.Schema.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.Schema.CacheTTL)
	}
	if cfg.Pipeline.MaxPerspectives != 3 {
		t.Errorf("MaxPerspectives = %d, want 3", cfg.Pipeline.MaxPerspectives)
	}
}

func TestLoadOpenAIRequiresKey(t *testing.T) {
	t.Setenv("BUILDER_PROVIDER", "openai")
	t.Setenv("BUILDER_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadUnknownProviderFallsBackToRule(t *testing.T) {
	t.Setenv("BUILDER_PROVIDER", "mystery")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Builder.Provider != BuilderProviderRule {
		t.Errorf("Provider = %q, want rule fallback", cfg.Builder.Provider)
	}
}

func TestLoadDurationFormats(t *testing.T) {
	t.Setenv("BUILDER_TIMEOUT", "45")
	t.Setenv("SCHEMA_FETCH_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Builder.Timeout != 45*time.Second {
		t.Errorf("bare integer should parse as seconds: %v", cfg.Builder.Timeout)
	}
	if cfg.Schema.FetchTimeout != 2*time.Minute {
		t.Errorf("duration string should parse: %v", cfg.Schema.FetchTimeout)
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short builder timeout", func(c *Config) { c.Builder.Timeout = 100 * time.Millisecond }},
		{"tiny max tokens", func(c *Config) { c.Builder.MaxTokens = 10 }},
		{"short cache ttl", func(c *Config) { c.Schema.CacheTTL = time.Second }},
		{"zero cache entries", func(c *Config) { c.Schema.CacheMaxEntries = 0 }},
		{"tiny input size", func(c *Config) { c.Pipeline.MaxInputSize = 10 }},
		{"too many perspectives", func(c *Config) { c.Pipeline.MaxPerspectives = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
