package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ielts-tools/ieltscrawl/internal/config"
	"github.com/ielts-tools/ieltscrawl/internal/crawl"
	"github.com/ielts-tools/ieltscrawl/internal/models"
	"github.com/ielts-tools/ieltscrawl/internal/pipeline"
	"github.com/ielts-tools/ieltscrawl/internal/upload"
)

var (
	crawlPreview    bool
	crawlExportJSON bool
	crawlOutput     string
	crawlDB         bool
	crawlValidate   bool
	crawlNoAutoFix  bool
	crawlThreshold  float64
	crawlLevel      string
	crawlTitle      string
	crawlType       string
	crawlBrowser    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl one test page and upload or export it",
	Long: `Crawl a single test page: fetch, clean, extract with the model, and push
the result to the backend.

Examples:
  ieltscrawl crawl https://example.com/test.html
  ieltscrawl crawl --preview https://example.com/test.html
  ieltscrawl crawl --export-json -o output/test.json https://example.com/test.html
  ieltscrawl crawl --db --validate https://example.com/test.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		url := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := newLogger()
		crawler := newCrawler(cfg, crawlBrowser, log)

		if crawlPreview {
			preview := crawler.PreviewExtraction(ctx, url)
			return printJSON(preview)
		}

		req := crawlRequest(cfg, url)

		if crawlExportJSON {
			path, _, err := crawler.ExportJSON(ctx, req, crawlOutput)
			if err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", path)
			return nil
		}

		up, closeUp, err := newUploader(ctx, cfg, crawlDB, log)
		if err != nil {
			return err
		}
		defer closeUp()

		id, result, err := crawler.CrawlAndUpload(ctx, req, up)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded test %s (%d questions)\n", id, result.TestData.NumberQuestion)
		if crawlValidate {
			fmt.Printf("accuracy %.1f%%, valid=%v\n", result.Accuracy*100, result.IsValid)
		}
		return nil
	},
}

func crawlRequest(cfg *config.Config, url string) crawl.Request {
	title := crawlTitle
	if title == "" {
		title = cfg.Crawl.DefaultTitle
	}
	testType := crawlType
	if testType == "" {
		testType = cfg.Crawl.DefaultType
	}
	level := crawlLevel
	if level == "" {
		level = cfg.Crawl.DefaultLevel
	}
	threshold := crawlThreshold
	if threshold == 0 {
		threshold = cfg.Crawl.AccuracyThreshold
	}

	return crawl.Request{
		URL:      url,
		Title:    title,
		TestType: models.TestType(testType),
		Level:    models.ParseLevel(level),
		Validate: crawlValidate,
		Pipeline: pipeline.Options{
			AccuracyThreshold: threshold,
			SkipAutoFix:       crawlNoAutoFix,
		},
	}
}

// newUploader picks the upload path: direct database insert with --db,
// otherwise the REST API.
func newUploader(ctx context.Context, cfg *config.Config, useDB bool, log *slog.Logger) (crawl.Uploader, func(), error) {
	if useDB {
		db, err := upload.OpenDB(ctx, config.ResolveEnvVars(cfg.Database.URL), log)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}

	api := upload.NewAPIClient(upload.APIConfig{
		BaseURL:  cfg.Backend.BaseURL,
		Email:    config.ResolveEnvVars(cfg.Backend.Email),
		Password: config.ResolveEnvVars(cfg.Backend.Password),
		Logger:   log,
	})
	return api, func() {}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	crawlCmd.Flags().BoolVar(&crawlPreview, "preview", false, "Print the extraction without uploading")
	crawlCmd.Flags().BoolVar(&crawlExportJSON, "export-json", false, "Export to the exam import JSON format instead of uploading")
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "Output path for --export-json (default: output/<slug>.json)")
	crawlCmd.Flags().BoolVar(&crawlDB, "db", false, "Insert directly into the database instead of the REST API")
	crawlCmd.Flags().BoolVar(&crawlValidate, "validate", false, "Reconcile answers against the page's answer key")
	crawlCmd.Flags().BoolVar(&crawlNoAutoFix, "no-autofix", false, "Do not overwrite answers from the key; judge by threshold instead")
	crawlCmd.Flags().Float64Var(&crawlThreshold, "threshold", 0, "Accuracy threshold for --validate (default from config)")
	crawlCmd.Flags().StringVar(&crawlLevel, "level", "", "Difficulty level: Low, Mid, High, Great")
	crawlCmd.Flags().StringVar(&crawlTitle, "title", "", "Test title (auto-generated when empty)")
	crawlCmd.Flags().StringVar(&crawlType, "type", "", "Test type: READING, LISTENING, WRITING, SPEAKING")
	crawlCmd.Flags().BoolVar(&crawlBrowser, "browser", false, "Render pages in headless Chrome")

	rootCmd.AddCommand(crawlCmd)
}
