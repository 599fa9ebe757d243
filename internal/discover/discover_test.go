package discover

import (
	"context"
	"strings"
	"testing"

	"github.com/ielts-tools/ieltscrawl/internal/llm"
)

type stubFetcher struct {
	html string
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.html, f.err
}

func (f *stubFetcher) FetchWithRetry(ctx context.Context, url string) (string, error) {
	return f.Fetch(ctx, url)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>IELTS Reading Samples</title></head>
<body>
<h1>Free IELTS Reading Tests</h1>
<p>Pick a section to practice.</p>
<a href="academic-reading-sample-1.1.html">Test 1 Section 1</a>
<a href="academic-reading-sample-1.2.html">Test 1 Section 2</a>
<a href="/about">About</a>
<a href="#">x</a>
</body>
</html>`

func TestDiscoverResolvesRelativeLinks(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(`{
		"test_links": [
			{"url": "academic-reading-sample-1.1.html", "title": "Test 1 Section 1", "test_type": "READING"},
			{"url": "academic-reading-sample-1.2.html", "title": "Test 1 Section 2"}
		],
		"is_index_page": true
	}`)

	d := NewDiscoverer(&stubFetcher{html: indexPage}, mock, nil)

	result, err := d.Discover(context.Background(), "https://example.com/ielts/index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsIndexPage {
		t.Error("expected index page")
	}
	if len(result.TestLinks) != 2 {
		t.Fatalf("links = %d, want 2", len(result.TestLinks))
	}
	if result.TestLinks[0].URL != "https://example.com/ielts/academic-reading-sample-1.1.html" {
		t.Errorf("url = %q, want resolved against page URL", result.TestLinks[0].URL)
	}
	if result.TestLinks[1].TestType != "UNKNOWN" {
		t.Errorf("test_type = %q, want UNKNOWN default", result.TestLinks[1].TestType)
	}
}

func TestDiscoverPromptCarriesAnchorsAndPreview(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(`{"test_links": [], "is_index_page": false}`)

	d := NewDiscoverer(&stubFetcher{html: indexPage}, mock, nil)

	if _, err := d.Discover(context.Background(), "https://example.com/index.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	content := calls[0].Content
	if !strings.Contains(content, "[Test 1 Section 1](academic-reading-sample-1.1.html)") {
		t.Error("content should list anchors in [text](href) form")
	}
	if strings.Contains(content, "](#)") {
		t.Error("anchors with short labels should be dropped")
	}
	if !strings.Contains(content, "Free IELTS Reading Tests") {
		t.Error("content should carry the page text preview")
	}
}

func TestDiscoverListDirectTestPage(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(`{"test_links": [], "is_index_page": false}`)

	d := NewDiscoverer(&stubFetcher{html: indexPage}, mock, nil)

	links, err := d.DiscoverList(context.Background(), "https://example.com/test.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 1 || links[0].URL != "https://example.com/test.html" {
		t.Errorf("links = %v, want the page itself as a direct test page", links)
	}
}

func TestGroupIntoTests(t *testing.T) {
	links := []TestLink{
		{URL: "https://x.com/academic-reading-sample-1.1.html", Title: "s1"},
		{URL: "https://x.com/academic-reading-sample-1.2.html", Title: "s2"},
		{URL: "https://x.com/academic-reading-sample-1.3.html", Title: "s3"},
		{URL: "https://x.com/general-reading-sample-2.1.html", Title: "g1"},
		{URL: "https://x.com/some-other-test.html", Title: "Odd One"},
	}

	grouped := GroupIntoTests(links)

	if len(grouped) != 3 {
		t.Fatalf("grouped = %d, want 3", len(grouped))
	}

	academic := grouped[0]
	if academic.Key != "academic-1" {
		t.Errorf("key = %q", academic.Key)
	}
	if academic.Title != "IELTS Academic Reading Test 1" {
		t.Errorf("title = %q", academic.Title)
	}
	if got := academic.SectionNumbers(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("sections = %v, want 1..3", got)
	}

	general := grouped[1]
	if general.Key != "general-2" || general.Title != "IELTS General Reading Test 2" {
		t.Errorf("general = %+v", general)
	}

	other := grouped[2]
	if other.Title != "Odd One" || len(other.Sections) != 1 {
		t.Errorf("non-standard link = %+v", other)
	}
	if _, ok := other.Sections[1]; !ok {
		t.Error("non-standard link should become section 1")
	}
}

func TestGroupIntoTestsMergesSectionsByTest(t *testing.T) {
	links := []TestLink{
		{URL: "a/academic-reading-sample-3.2.html"},
		{URL: "a/academic-reading-sample-3.1.html"},
	}

	grouped := GroupIntoTests(links)

	if len(grouped) != 1 {
		t.Fatalf("grouped = %d, want 1", len(grouped))
	}
	if got := grouped[0].SectionNumbers(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("sections = %v", got)
	}
}
