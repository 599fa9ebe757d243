// Package discover finds test links on index pages. An index page lists
// sections or practice tests; the model decides which anchors lead to actual
// test content and which are navigation noise.
package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ielts-tools/ieltscrawl/internal/clean"
	"github.com/ielts-tools/ieltscrawl/internal/fetch"
	"github.com/ielts-tools/ieltscrawl/internal/llm"
)

const discoveryPrompt = `
Analyze this webpage and find ALL links that lead to IELTS test content pages.

IMPORTANT: This is likely an INDEX PAGE containing links to individual tests or sections.

Look for links like:
- "Section 1", "Section 2", "Section 3"
- "Test 1", "Test 2", "Practice Test 1"
- "Reading Passage", "Listening Part"
- Links containing numbers like "sample-1", "test-2", "section-3"
- ANY links that appear to lead to actual test content

DO NOT skip links just because they say "Section" - those ARE the test pages!

Return JSON:
{
  "test_links": [
    {
      "url": "the href URL (relative or absolute)",
      "title": "descriptive title like 'Test 1 Section 1' or the link text",
      "test_type": "READING|LISTENING|WRITING|UNKNOWN"
    }
  ],
  "is_index_page": true
}

If there are NO links to test sections/content and this page itself contains a reading passage with questions, return:
{
  "test_links": [],
  "is_index_page": false
}

IMPORTANT: Extract ALL section links you find. A page listing multiple tests with Section 1/2/3 links should return many links.
`

const (
	maxLinksInPrompt   = 200
	contentPreviewSize = 1500
)

// TestLink is a discovered link to a test page.
type TestLink struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	TestType string `json:"test_type"`
}

// Result is the outcome of analyzing one page.
type Result struct {
	TestLinks   []TestLink
	IsIndexPage bool
	SourceURL   string
}

// Discoverer fetches a page, lists its anchors, and asks the model which of
// them are test links.
type Discoverer struct {
	fetcher fetch.PageFetcher
	cleaner *clean.Cleaner
	llm     llm.Client
	log     *slog.Logger
}

// NewDiscoverer wires a Discoverer from the given fetcher and model client.
func NewDiscoverer(fetcher fetch.PageFetcher, client llm.Client, log *slog.Logger) *Discoverer {
	if log == nil {
		log = slog.Default()
	}
	return &Discoverer{
		fetcher: fetcher,
		cleaner: clean.NewCleaner(),
		llm:     client,
		log:     log,
	}
}

type discoveryResponse struct {
	TestLinks   []TestLink `json:"test_links"`
	IsIndexPage bool       `json:"is_index_page"`
}

// Discover analyzes pageURL and returns the test links found on it, with
// relative hrefs resolved against pageURL.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) (*Result, error) {
	d.log.Info("discovering links", "url", pageURL)

	html, err := d.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}

	content, err := d.cleaner.ExtractStructuredContent(html)
	if err != nil {
		return nil, fmt.Errorf("extracting content: %w", err)
	}

	links, err := collectAnchors(html)
	if err != nil {
		return nil, fmt.Errorf("collecting anchors: %w", err)
	}

	raw, err := d.llm.Call(ctx, discoveryPrompt, buildAnalysisContent(pageURL, content, links))
	if err != nil {
		return nil, fmt.Errorf("link analysis: %w", err)
	}
	parsed, err := llm.ParseJSONResponse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing link analysis: %w", err)
	}

	var resp discoveryResponse
	if err := json.Unmarshal(parsed, &resp); err != nil {
		return nil, fmt.Errorf("decoding link analysis: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	result := &Result{SourceURL: pageURL, IsIndexPage: resp.IsIndexPage}
	for _, link := range resp.TestLinks {
		if link.URL == "" {
			continue
		}
		resolved := link.URL
		if ref, err := url.Parse(link.URL); err == nil {
			resolved = base.ResolveReference(ref).String()
		}
		if link.TestType == "" {
			link.TestType = "UNKNOWN"
		}
		result.TestLinks = append(result.TestLinks, TestLink{
			URL:      resolved,
			Title:    link.Title,
			TestType: link.TestType,
		})
	}
	if !resp.IsIndexPage && len(result.TestLinks) > 0 {
		result.IsIndexPage = true
	}

	d.log.Info("discovery finished", "url", pageURL, "links", len(result.TestLinks), "index_page", result.IsIndexPage)
	return result, nil
}

// DiscoverList returns just the test links. A page that is itself a test page
// comes back as a single direct link.
func (d *Discoverer) DiscoverList(ctx context.Context, pageURL string) ([]TestLink, error) {
	result, err := d.Discover(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !result.IsIndexPage {
		return []TestLink{{URL: pageURL, Title: "Direct test page", TestType: "UNKNOWN"}}, nil
	}
	return result.TestLinks, nil
}

// collectAnchors returns every anchor with a meaningful label as
// "[text](href)" lines.
func collectAnchors(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if href != "" && len(text) > 2 {
			links = append(links, fmt.Sprintf("[%s](%s)", text, href))
		}
	})
	return links, nil
}

func buildAnalysisContent(pageURL string, content *clean.Content, links []string) string {
	title := content.Title
	if title == "" {
		title = "Unknown"
	}
	shown := links
	if len(shown) > maxLinksInPrompt {
		shown = shown[:maxLinksInPrompt]
	}
	preview := content.RawText
	if len(preview) > contentPreviewSize {
		preview = preview[:contentPreviewSize]
	}

	return fmt.Sprintf(`
PAGE URL: %s

PAGE TITLE: %s

ALL LINKS FOUND ON PAGE (%d total):
%s

PAGE CONTENT PREVIEW:
%s
`, pageURL, title, len(links), strings.Join(shown, "\n"), preview)
}

// sectionPattern recognizes URLs like academic-reading-sample-1.2.html where
// the first number is the test and the second the section within it.
var sectionPattern = regexp.MustCompile(`(academic|general)-reading-sample-(\d+)\.(\d+)`)

// GroupedTest is a set of section links belonging to one complete test.
type GroupedTest struct {
	Key      string
	Title    string
	TestType string
	Sections map[int]TestLink
}

// SectionNumbers returns the section numbers in ascending order.
func (t *GroupedTest) SectionNumbers() []int {
	nums := make([]int, 0, len(t.Sections))
	for n := range t.Sections {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// GroupIntoTests groups section links like sample-1.1, sample-1.2, sample-1.3
// into complete tests. Links that do not match the section pattern become
// single-section tests of their own. Order follows first appearance.
func GroupIntoTests(links []TestLink) []*GroupedTest {
	var order []string
	tests := make(map[string]*GroupedTest)

	for _, link := range links {
		m := sectionPattern.FindStringSubmatch(link.URL)
		if m == nil {
			key := link.URL
			title := link.Title
			if title == "" {
				title = "Unknown Test"
			}
			testType := link.TestType
			if testType == "" {
				testType = "READING"
			}
			tests[key] = &GroupedTest{
				Key:      key,
				Title:    title,
				TestType: testType,
				Sections: map[int]TestLink{1: link},
			}
			order = append(order, key)
			continue
		}

		variant, testNum := m[1], m[2]
		sectionNum := 0
		fmt.Sscanf(m[3], "%d", &sectionNum)

		key := variant + "-" + testNum
		test, ok := tests[key]
		if !ok {
			test = &GroupedTest{
				Key:      key,
				Title:    fmt.Sprintf("IELTS %s Reading Test %s", capitalize(variant), testNum),
				TestType: "READING",
				Sections: make(map[int]TestLink),
			}
			tests[key] = test
			order = append(order, key)
		}
		test.Sections[sectionNum] = link
	}

	grouped := make([]*GroupedTest, 0, len(order))
	for _, key := range order {
		grouped = append(grouped, tests[key])
	}
	return grouped
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
