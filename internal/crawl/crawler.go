// Package crawl orchestrates the full crawl: fetch a page, clean it, extract
// the test with the model, and assemble the backend data structures.
package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ielts-tools/ieltscrawl/internal/clean"
	"github.com/ielts-tools/ieltscrawl/internal/extract"
	"github.com/ielts-tools/ieltscrawl/internal/fetch"
	"github.com/ielts-tools/ieltscrawl/internal/llm"
	"github.com/ielts-tools/ieltscrawl/internal/models"
	"github.com/ielts-tools/ieltscrawl/internal/pipeline"
	"github.com/ielts-tools/ieltscrawl/internal/transform"
)

// Crawler runs the crawl sequence against a single URL at a time.
type Crawler struct {
	fetcher   fetch.PageFetcher
	cleaner   *clean.Cleaner
	extractor *extract.Extractor
	pipeline  *pipeline.Pipeline
	log       *slog.Logger
}

// New creates a Crawler using the given fetcher and model client.
func New(fetcher fetch.PageFetcher, client llm.Client, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{
		fetcher:   fetcher,
		cleaner:   clean.NewCleaner(),
		extractor: extract.NewExtractor(client, log),
		pipeline:  pipeline.New(client, log),
		log:       log,
	}
}

// Request carries per-crawl settings. Zero values fall back to defaults.
type Request struct {
	URL      string
	Title    string // Auto-generated from the passage when empty
	TestType models.TestType
	Level    models.Level

	// Validate runs answer key reconciliation after extraction.
	Validate bool
	Pipeline pipeline.Options
}

func (r *Request) applyDefaults() {
	if r.TestType == "" {
		r.TestType = models.TestTypeReading
	}
	if r.Level == "" {
		r.Level = models.LevelMid
	}
}

// Crawl fetches and extracts one test page. Failures come back inside the
// CrawlResult so batch callers can keep going; only a nil result is fatal.
func (c *Crawler) Crawl(ctx context.Context, req Request) *models.CrawlResult {
	req.applyDefaults()
	c.log.Info("crawling", "url", req.URL)

	html, err := c.fetcher.FetchWithRetry(ctx, req.URL)
	if err != nil {
		return failure(req.URL, fmt.Errorf("fetching page: %w", err))
	}

	content, err := c.cleaner.ExtractStructuredContent(html)
	if err != nil {
		return failure(req.URL, fmt.Errorf("cleaning content: %w", err))
	}
	if content.AnswerKey != "" {
		c.log.Info("found answer key", "url", req.URL)
	}

	extraction, validation, err := c.extract(ctx, content, req)
	if err != nil {
		return failure(req.URL, err)
	}

	title := req.Title
	if title == "" {
		title = deriveTitle(extraction, content)
	}

	result := &models.CrawlResult{
		URL:      req.URL,
		Success:  true,
		TestData: transform.BuildTestData(extraction, title, req.TestType, req.Level),
	}
	if validation != nil {
		result.Accuracy = validation.Accuracy
		result.IsValid = validation.IsValid
		result.StepsLog = validation.StepsLog
	}
	return result
}

func (c *Crawler) extract(ctx context.Context, content *clean.Content, req Request) (*models.ExtractionResult, *pipeline.Result, error) {
	if !req.Validate {
		extraction, err := c.extractor.ExtractFullTest(ctx, content.RawText, content.QuestionRanges)
		if err != nil {
			return nil, nil, fmt.Errorf("extracting test: %w", err)
		}
		return extraction, nil, nil
	}

	validation, err := c.pipeline.Run(ctx, content.RawText, content.QuestionRanges, content.AnswerKey, req.Pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("validation pipeline: %w", err)
	}
	return validation.Extraction, validation, nil
}

// deriveTitle names the test after its first passage, falling back to the
// page title.
func deriveTitle(extraction *models.ExtractionResult, content *clean.Content) string {
	if len(extraction.Passages) > 0 {
		if passageTitle := extraction.Passages[0].Title; passageTitle != "" && passageTitle != "Untitled" {
			return "IELTS Reading: " + passageTitle
		}
		return "IELTS Reading Practice Test"
	}
	if content.Title != "" {
		return content.Title
	}
	return "IELTS Reading Test"
}

func failure(url string, err error) *models.CrawlResult {
	return &models.CrawlResult{URL: url, Success: false, Error: err.Error()}
}

// ExportJSON crawls and writes the result in the exam import format. It
// returns the saved path.
func (c *Crawler) ExportJSON(ctx context.Context, req Request, outputPath string) (string, *models.CrawlResult, error) {
	result := c.Crawl(ctx, req)
	if !result.Success {
		return "", result, fmt.Errorf("crawl failed: %s", result.Error)
	}

	doc := transform.BuildImportDocument(result.TestData)
	path, err := transform.SaveImportDocument(doc, outputPath)
	if err != nil {
		return "", result, fmt.Errorf("saving import document: %w", err)
	}
	return path, result, nil
}

// Uploader pushes a finished test somewhere, either the REST API or the
// database.
type Uploader interface {
	Upload(ctx context.Context, test *models.TestData) (string, error)
}

// CrawlAndUpload crawls and pushes the result through up. It returns the new
// test id.
func (c *Crawler) CrawlAndUpload(ctx context.Context, req Request, up Uploader) (string, *models.CrawlResult, error) {
	result := c.Crawl(ctx, req)
	if !result.Success {
		return "", result, fmt.Errorf("crawl failed: %s", result.Error)
	}

	id, err := up.Upload(ctx, result.TestData)
	if err != nil {
		return "", result, fmt.Errorf("uploading test: %w", err)
	}
	c.log.Info("uploaded test", "url", req.URL, "idTest", id)
	return id, result, nil
}
