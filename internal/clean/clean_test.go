package clean

import (
	"strings"
	"testing"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

const samplePage = `<html>
<head><title>Academic Reading Sample 1.1</title>
<script>trackEverything();</script>
<style>body { color: red }</style>
</head>
<body>
<nav>Home | Tests | About</nav>
<div class="sidebar-ads">Buy our course!</div>
<h1>The History of Tea</h1>
<p>Tea has been consumed for thousands of years.</p>
<p>Questions 1-5</p>
<p>Do the following statements agree with the passage?</p>
<p>Questions 6–9</p>
<div id="answers">
<ol>
<li>TRUE</li>
<li>FALSE</li>
<li>NOT GIVEN</li>
</ol>
</div>
<footer>Copyright 2024</footer>
</body>
</html>`

func TestExtractStructuredContent(t *testing.T) {
	c := NewCleaner()
	got, err := c.ExtractStructuredContent(samplePage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Title != "The History of Tea" {
		t.Errorf("title = %q, want %q", got.Title, "The History of Tea")
	}
	for _, junk := range []string{"trackEverything", "color: red", "Home | Tests", "Buy our course", "Copyright"} {
		if strings.Contains(got.RawText, junk) {
			t.Errorf("raw text still contains removed content %q", junk)
		}
	}
	if !strings.Contains(got.RawText, "Tea has been consumed") {
		t.Error("raw text is missing passage content")
	}
}

func TestExtractStructuredContentAnswerKey(t *testing.T) {
	c := NewCleaner()
	got, err := c.ExtractStructuredContent(samplePage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "1. TRUE\n2. FALSE\n3. NOT GIVEN"
	if got.AnswerKey != want {
		t.Errorf("answer key = %q, want %q", got.AnswerKey, want)
	}
	if !strings.Contains(got.RawText, "ANSWER KEY:\n"+want) {
		t.Error("answer key not appended to raw text")
	}
}

func TestExtractStructuredContentQuestionRanges(t *testing.T) {
	c := NewCleaner()
	got, err := c.ExtractStructuredContent(samplePage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.QuestionRange{{Start: 1, End: 5}, {Start: 6, End: 9}}
	if len(got.QuestionRanges) != len(want) {
		t.Fatalf("ranges = %v, want %v", got.QuestionRanges, want)
	}
	for i, r := range want {
		if got.QuestionRanges[i] != r {
			t.Errorf("range %d = %v, want %v", i, got.QuestionRanges[i], r)
		}
	}
}

func TestAnswerKeyFallbackToContainerText(t *testing.T) {
	html := `<html><body>
<h1>Test</h1>
<div class="answer-key">Answers: 1. A 2. C 3. B and some commentary about each.</div>
</body></html>`

	c := NewCleaner()
	got, err := c.ExtractStructuredContent(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.AnswerKey, "1. A 2. C 3. B") {
		t.Errorf("answer key = %q, want container text", got.AnswerKey)
	}
}

func TestAnswerKeyRegexFallback(t *testing.T) {
	html := `<html><body>
<h1>Test</h1>
<p>Some passage text here.</p>
<p>Answers: 1. TRUE 2. FALSE 3. NOT GIVEN</p>
</body></html>`

	c := NewCleaner()
	got, err := c.ExtractStructuredContent(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.AnswerKey, "1. TRUE") {
		t.Errorf("answer key = %q, want regex-swept answers", got.AnswerKey)
	}
}

func TestTitleFallsBackToTitleTag(t *testing.T) {
	html := `<html><head><title>Sample 2.3</title></head><body><p>text</p></body></html>`

	c := NewCleaner()
	got, err := c.ExtractStructuredContent(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Sample 2.3" {
		t.Errorf("title = %q, want %q", got.Title, "Sample 2.3")
	}
}
