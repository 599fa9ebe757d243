package crawl

import (
	"context"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

const (
	previewPassageLimit = 500
	previewContentLimit = 200
	previewAnswersLimit = 5
)

// Preview summarizes what a crawl would extract without uploading anything.
type Preview struct {
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	Title          string        `json:"title,omitempty"`
	Type           string        `json:"type,omitempty"`
	TotalQuestions int           `json:"total_questions,omitempty"`
	Parts          []PartPreview `json:"parts,omitempty"`
}

// PartPreview is one part in a Preview.
type PartPreview struct {
	Name    string          `json:"name"`
	Passage *PassagePreview `json:"passage"`
	Groups  []GroupPreview  `json:"groups"`
}

// PassagePreview truncates passage content for display.
type PassagePreview struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GroupPreview is one question group in a Preview.
type GroupPreview struct {
	Title         string            `json:"title"`
	Type          string            `json:"type"`
	QuestionCount int               `json:"question_count"`
	Questions     []QuestionPreview `json:"questions"`
}

// QuestionPreview truncates question content and caps the answer list.
type QuestionPreview struct {
	Number  int                 `json:"number"`
	Content string              `json:"content"`
	Answers []models.AnswerData `json:"answers,omitempty"`
}

// PreviewExtraction crawls a URL and returns a display-friendly summary.
func (c *Crawler) PreviewExtraction(ctx context.Context, url string) *Preview {
	result := c.Crawl(ctx, Request{URL: url})
	if !result.Success {
		return &Preview{Success: false, Error: result.Error}
	}
	return BuildPreview(result.TestData)
}

// BuildPreview renders test into a Preview.
func BuildPreview(test *models.TestData) *Preview {
	preview := &Preview{
		Success:        true,
		Title:          test.Title,
		Type:           string(test.TestType),
		TotalQuestions: test.NumberQuestion,
	}

	for _, part := range test.Parts {
		pp := PartPreview{Name: part.NamePart, Groups: []GroupPreview{}}
		if part.Passage != nil {
			pp.Passage = &PassagePreview{
				Title:   part.Passage.Title,
				Content: truncate(part.Passage.Content, previewPassageLimit),
			}
		}

		for _, group := range part.Groups {
			gp := GroupPreview{
				Title:         group.Title,
				Type:          string(group.TypeQuestion),
				QuestionCount: group.Quantity,
				Questions:     []QuestionPreview{},
			}
			for _, q := range group.Questions {
				qp := QuestionPreview{
					Number:  q.NumberQuestion,
					Content: truncate(q.Content, previewContentLimit),
				}
				if len(q.Answers) > 0 {
					answers := q.Answers
					if len(answers) > previewAnswersLimit {
						answers = answers[:previewAnswersLimit]
					}
					qp.Answers = answers
				}
				gp.Questions = append(gp.Questions, qp)
			}
			pp.Groups = append(pp.Groups, gp)
		}
		preview.Parts = append(preview.Parts, pp)
	}
	return preview
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
