// Package clean strips fetched HTML down to the text the extraction model
// needs: page title, cleaned body text, the answer key, and any declared
// question ranges.
package clean

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// Tags removed wholesale before text extraction.
var removeTags = []string{
	"script", "style", "noscript", "iframe", "svg", "canvas",
	"nav", "footer", "header", "aside", "form", "button",
	"input", "select", "textarea", "meta", "link",
}

// Class/id fragments that mark ads, trackers, and page chrome.
var adPattern = regexp.MustCompile(`(?i)ad[-_]?|advertisement|banner|popup|modal|cookie|consent|overlay|sidebar|widget|social[-_]?share|newsletter|subscribe|comment`)

// Answer-key containers, most specific first. The #answers and div.hint
// selectors match the ielts-up markup.
var answerSelectors = []string{
	"#answers",
	"#ans",
	"div.hint",
	".answers",
	".answer-key",
	".answer-section",
}

var (
	rangePattern     = regexp.MustCompile(`[Qq]uestions?\s+(\d+)\s*[-–]\s*(\d+)`)
	answerRunPattern = regexp.MustCompile(`(?i)(?:Answers?:?\s*)?(?:\d+\.\s*(?:True|False|Not Given|Yes|No|[A-Z])\s*[,\n]?\s*)+`)
)

// Content is what survives cleaning: everything downstream stages consume.
type Content struct {
	Title          string
	RawText        string
	AnswerKey      string
	QuestionRanges []models.QuestionRange
}

// Cleaner turns raw page HTML into Content.
type Cleaner struct{}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// ExtractStructuredContent parses html and returns the cleaned page content.
// The answer key is pulled from the unclean document first because answer
// containers often carry classes the ad filter would otherwise remove.
func (c *Cleaner) ExtractStructuredContent(html string) (*Content, error) {
	rawDoc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	answerKey := extractAnswerKey(rawDoc)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	cleanDocument(doc)

	out := &Content{AnswerKey: answerKey}

	if title := doc.Find("h1").First(); title.Length() > 0 {
		out.Title = strings.TrimSpace(title.Text())
	} else if title := doc.Find("title").First(); title.Length() > 0 {
		out.Title = strings.TrimSpace(title.Text())
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	out.RawText = extractText(body)

	if answerKey != "" {
		out.RawText += "\n\nANSWER KEY:\n" + answerKey
	}

	for _, m := range rangePattern.FindAllStringSubmatch(out.RawText, -1) {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		out.QuestionRanges = append(out.QuestionRanges, models.QuestionRange{Start: start, End: end})
	}

	return out, nil
}

func cleanDocument(doc *goquery.Document) {
	doc.Find(strings.Join(removeTags, ", ")).Remove()

	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		if class, _ := s.Attr("class"); adPattern.MatchString(class) {
			s.Remove()
		}
	})
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, _ := s.Attr("id"); adPattern.MatchString(id) {
			s.Remove()
		}
	})
}

// extractAnswerKey locates the answer key in the unclean document. A
// numbered <ol> inside a known container is the preferred shape; failing
// that, any container text, and finally a regex sweep over the page text for
// runs like "1. TRUE 2. FALSE".
func extractAnswerKey(doc *goquery.Document) string {
	for _, selector := range answerSelectors {
		var found []string
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			if len(found) > 0 {
				return
			}
			ol := el.Find("ol").First()
			if ol.Length() > 0 {
				var lines []string
				ol.Find("li").Each(func(i int, li *goquery.Selection) {
					text := strings.TrimSpace(li.Text())
					if text != "" {
						lines = append(lines, fmt.Sprintf("%d. %s", i+1, text))
					}
				})
				if len(lines) > 0 {
					found = append(found, strings.Join(lines, "\n"))
					return
				}
			}
			if text := strings.TrimSpace(el.Text()); len(text) > 10 {
				found = append(found, text)
			}
		})
		if len(found) > 0 {
			return strings.Join(found, "\n")
		}
	}

	allText := doc.Text()
	var runs []string
	for _, m := range answerRunPattern.FindAllString(allText, -1) {
		if run := strings.TrimSpace(m); len(run) > 10 {
			runs = append(runs, run)
		}
	}
	return strings.Join(runs, "\n")
}

// extractText flattens an element to newline-separated non-empty lines.
func extractText(sel *goquery.Selection) string {
	var sb strings.Builder
	writeText(sel, &sb)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			text := strings.TrimSpace(node.Text())
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
			return
		}
		writeText(node, sb)
	})
}
