package crawl

import (
	"context"
	"fmt"

	"github.com/ielts-tools/ieltscrawl/internal/discover"
	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// BatchResult records the outcome for one complete test in a batch crawl.
type BatchResult struct {
	Title    string `json:"title"`
	Success  bool   `json:"success"`
	TestID   string `json:"test_id,omitempty"`
	Error    string `json:"error,omitempty"`
	Sections int    `json:"sections"`
}

// CrawlTest crawls every section of a grouped test and combines them into a
// single TestData. Sections that fail are skipped; a test with no surviving
// sections fails.
func (c *Crawler) CrawlTest(ctx context.Context, test *discover.GroupedTest, level models.Level) (*models.TestData, error) {
	var parts []models.PartData
	totalQuestions := 0

	for _, sectionNum := range test.SectionNumbers() {
		section := test.Sections[sectionNum]
		c.log.Info("crawling section", "test", test.Key, "section", sectionNum, "url", section.URL)

		result := c.Crawl(ctx, Request{URL: section.URL, Level: level})
		if !result.Success {
			c.log.Warn("section failed", "url", section.URL, "error", result.Error)
			continue
		}

		for _, part := range result.TestData.Parts {
			part.NamePart = fmt.Sprintf("Section %d: %s", sectionNum, part.NamePart)
			parts = append(parts, part)
			for _, group := range part.Groups {
				totalQuestions += group.Quantity
			}
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("no content extracted for %s", test.Title)
	}

	return &models.TestData{
		Title:          test.Title,
		TestType:       models.TestTypeReading,
		Level:          level,
		Duration:       60,
		NumberQuestion: totalQuestions,
		Parts:          parts,
	}, nil
}

// CrawlAll crawls a list of grouped tests and uploads each through up. A nil
// uploader previews instead of uploading. Failures are recorded per test.
func (c *Crawler) CrawlAll(ctx context.Context, tests []*discover.GroupedTest, level models.Level, up Uploader) []BatchResult {
	results := make([]BatchResult, 0, len(tests))

	for i, test := range tests {
		c.log.Info("crawling test", "index", i+1, "total", len(tests), "title", test.Title)

		res := BatchResult{Title: test.Title, Sections: len(test.Sections)}
		combined, err := c.CrawlTest(ctx, test, level)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		if up == nil {
			res.Success = true
			results = append(results, res)
			continue
		}

		id, err := up.Upload(ctx, combined)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Success = true
		res.TestID = id
		results = append(results, res)
	}
	return results
}
