package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm.model = %q", cfg.LLM.Model)
	}
	if cfg.Fetch.DelayMs != 2000 || cfg.Fetch.MaxRetries != 3 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
	if cfg.Backend.BaseURL != "http://localhost:3000/api" {
		t.Errorf("backend.base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Crawl.AccuracyThreshold != 0.95 {
		t.Errorf("crawl.accuracy_threshold = %v", cfg.Crawl.AccuracyThreshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llm:
  model: gpt-4o
  api_key: sk-test
fetch:
  delay_ms: 500
crawl:
  accuracy_threshold: 0.8
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "gpt-4o" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Fetch.DelayMs != 500 {
		t.Errorf("fetch.delay_ms = %d, want file override", cfg.Fetch.DelayMs)
	}
	// Unset keys keep their defaults.
	if cfg.Fetch.TimeoutSec != 30 {
		t.Errorf("fetch.timeout_sec = %d, want default 30", cfg.Fetch.TimeoutSec)
	}
	if cfg.Crawl.AccuracyThreshold != 0.8 {
		t.Errorf("crawl.accuracy_threshold = %v", cfg.Crawl.AccuracyThreshold)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("IELTSCRAWL_TEST_KEY", "secret-value")

	tests := []struct {
		in   string
		want string
	}{
		{"${IELTSCRAWL_TEST_KEY}", "secret-value"},
		{"prefix-${IELTSCRAWL_TEST_KEY}-suffix", "prefix-secret-value-suffix"},
		{"${IELTSCRAWL_UNSET_KEY}", ""},
		{"no-vars-here", "no-vars-here"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing api key")
		}
	})

	t.Run("unresolvable env reference", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "${IELTSCRAWL_DEFINITELY_UNSET}"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error when env var resolves empty")
		}
	})

	t.Run("bad threshold", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "sk-test"
		cfg.Crawl.AccuracyThreshold = 1.5
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for threshold above 1")
		}
	})

	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "sk-test"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# ieltscrawl configuration") {
		t.Error("missing header comment")
	}
	if !strings.Contains(content, "${OPENAI_API_KEY}") {
		t.Error("default api key should reference the environment variable")
	}

	// The written file must round-trip through Load.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.Fetch.DelayMs != 2000 {
		t.Errorf("round-tripped delay_ms = %d", cfg.Fetch.DelayMs)
	}
}
