package config

import (
	"fmt"
	"time"
)

// Config holds crawler configuration.
// Stored at: config.yaml or ~/.ieltscrawl/config.yaml
type Config struct {
	LLM      LLMCfg      `mapstructure:"llm" yaml:"llm"`
	Fetch    FetchCfg    `mapstructure:"fetch" yaml:"fetch"`
	Backend  BackendCfg  `mapstructure:"backend" yaml:"backend"`
	Database DatabaseCfg `mapstructure:"database" yaml:"database"`
	Crawl    CrawlCfg    `mapstructure:"crawl" yaml:"crawl"`
}

// LLMCfg configures the extraction model.
type LLMCfg struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`     // API key (supports ${ENV_VAR} syntax)
	Model     string `mapstructure:"model" yaml:"model"`         // Model name
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`   // Optional OpenAI-compatible endpoint
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// FetchCfg configures page fetching.
type FetchCfg struct {
	DelayMs    int  `mapstructure:"delay_ms" yaml:"delay_ms"`       // Minimum gap between requests
	TimeoutSec int  `mapstructure:"timeout_sec" yaml:"timeout_sec"` // Per-request timeout
	MaxRetries uint `mapstructure:"max_retries" yaml:"max_retries"`
	UseBrowser bool `mapstructure:"use_browser" yaml:"use_browser"` // Render pages in headless Chrome
}

// Delay returns the request delay as a duration.
func (c FetchCfg) Delay() time.Duration { return time.Duration(c.DelayMs) * time.Millisecond }

// Timeout returns the request timeout as a duration.
func (c FetchCfg) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// BackendCfg configures the REST API upload target.
type BackendCfg struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Email    string `mapstructure:"email" yaml:"email"`       // Supports ${ENV_VAR} syntax
	Password string `mapstructure:"password" yaml:"password"` // Supports ${ENV_VAR} syntax
}

// DatabaseCfg configures direct Postgres insertion.
type DatabaseCfg struct {
	URL string `mapstructure:"url" yaml:"url"` // Supports ${ENV_VAR} syntax
}

// CrawlCfg holds crawl behavior defaults.
type CrawlCfg struct {
	AccuracyThreshold float64 `mapstructure:"accuracy_threshold" yaml:"accuracy_threshold"`
	DefaultLevel      string  `mapstructure:"default_level" yaml:"default_level"`
	DefaultType       string  `mapstructure:"default_type" yaml:"default_type"`
	DefaultTitle      string  `mapstructure:"default_title" yaml:"default_title"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMCfg{
			APIKey:    "${OPENAI_API_KEY}",
			Model:     "gpt-4o-mini",
			MaxTokens: 8192,
		},
		Fetch: FetchCfg{
			DelayMs:    2000,
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Backend: BackendCfg{
			BaseURL:  "http://localhost:3000/api",
			Email:    "${CRAWLER_EMAIL}",
			Password: "${CRAWLER_PASSWORD}",
		},
		Database: DatabaseCfg{
			URL: "${DATABASE_URL}",
		},
		Crawl: CrawlCfg{
			AccuracyThreshold: 0.95,
			DefaultLevel:      "Mid",
			DefaultType:       "READING",
		},
	}
}

// Validate checks that the settings needed for extraction are present.
// Backend credentials are only required at upload time, not here.
func (c *Config) Validate() error {
	if ResolveEnvVars(c.LLM.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required (set OPENAI_API_KEY or configure llm.api_key)")
	}
	if c.Crawl.AccuracyThreshold < 0 || c.Crawl.AccuracyThreshold > 1 {
		return fmt.Errorf("crawl.accuracy_threshold must be between 0 and 1, got %v", c.Crawl.AccuracyThreshold)
	}
	return nil
}
