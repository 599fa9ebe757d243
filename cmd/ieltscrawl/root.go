package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ielts-tools/ieltscrawl/internal/config"
	"github.com/ielts-tools/ieltscrawl/internal/crawl"
	"github.com/ielts-tools/ieltscrawl/internal/fetch"
	"github.com/ielts-tools/ieltscrawl/internal/llm"
	"github.com/ielts-tools/ieltscrawl/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ieltscrawl",
	Short: "IELTS test crawler with LLM-powered extraction",
	Long: `ieltscrawl extracts IELTS practice tests from web pages and uploads them
to the backend.

The pipeline includes:
  - Page fetching with rate limiting and optional browser rendering
  - HTML cleaning with answer key and question range detection
  - LLM extraction of passages and question groups
  - Deterministic repair: type correction, blank recovery, group splitting,
    renumbering
  - Answer key reconciliation with auto-fix
  - Upload via the REST API, direct database insert, or JSON export`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ieltscrawl/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func newFetcher(cfg *config.Config, useBrowser bool) fetch.PageFetcher {
	if useBrowser || cfg.Fetch.UseBrowser {
		return fetch.NewBrowserFetcher(cfg.Fetch.Delay())
	}
	return fetch.NewFetcher(fetch.Options{
		Delay:      cfg.Fetch.Delay(),
		Timeout:    cfg.Fetch.Timeout(),
		MaxRetries: cfg.Fetch.MaxRetries,
	})
}

func newLLMClient(cfg *config.Config) llm.Client {
	return llm.NewOpenAIClient(llm.Config{
		APIKey:    config.ResolveEnvVars(cfg.LLM.APIKey),
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		MaxTokens: cfg.LLM.MaxTokens,
	})
}

func newCrawler(cfg *config.Config, useBrowser bool, log *slog.Logger) *crawl.Crawler {
	return crawl.New(newFetcher(cfg, useBrowser), newLLMClient(cfg), log)
}
