// Package extract turns cleaned page text into a structured test via one LLM
// call followed by deterministic repair: type correction from answer
// patterns, fill-blank content recovery, group splitting, and renumbering
// against the page's declared question ranges.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/llm"
	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// Extractor runs the primary extraction call and its repair chain.
type Extractor struct {
	llm llm.Client
	log *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{llm: client, log: log}
}

type rawPassage struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ParagraphCount int    `json:"paragraph_count"`
}

type rawQuestion struct {
	Number        int             `json:"number"`
	Content       string          `json:"content"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
}

type rawGroup struct {
	Title           string        `json:"title"`
	Instruction     string        `json:"instruction"`
	QuestionType    string        `json:"question_type"`
	MatchingOptions []string      `json:"matching_options"`
	Questions       []rawQuestion `json:"questions"`
}

type rawExtraction struct {
	Passages       []rawPassage `json:"passages"`
	QuestionGroups []rawGroup   `json:"question_groups"`
}

// ExtractFullTest extracts passages and question groups from content and
// runs the four repair steps. A failed LLM call or unusable payload is fatal;
// individual repairs are not.
func (e *Extractor) ExtractFullTest(ctx context.Context, content string, ranges []models.QuestionRange) (*models.ExtractionResult, error) {
	raw, err := e.llm.Call(ctx, fullExtractionPrompt, content)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	payload, err := decodeExtraction(raw)
	if err != nil {
		return nil, err
	}

	result := &models.ExtractionResult{}
	for _, p := range payload.Passages {
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		result.Passages = append(result.Passages, models.ExtractedPassage{
			Title:          title,
			Content:        unescapeNewlines(p.Content),
			ParagraphCount: p.ParagraphCount,
		})
	}

	for _, g := range payload.QuestionGroups {
		qType := models.NormalizeQuestionType(g.QuestionType)
		group := models.ExtractedQuestionGroup{
			Title:           g.Title,
			Instruction:     g.Instruction,
			QuestionType:    qType,
			MatchingOptions: g.MatchingOptions,
		}
		for _, q := range g.Questions {
			answer, answers := decodeAnswer(q.CorrectAnswer)
			group.Questions = append(group.Questions, models.ExtractedQuestion{
				Number:         q.Number,
				Content:        q.Content,
				QuestionType:   qType,
				Options:        q.Options,
				CorrectAnswer:  answer,
				CorrectAnswers: answers,
			})
		}
		result.QuestionGroups = append(result.QuestionGroups, group)
	}

	result.QuestionGroups = ClassifyGroupTypes(result.QuestionGroups, e.log)
	result.QuestionGroups = RepairFillBlankContent(result.QuestionGroups, content)
	result.QuestionGroups = SplitMismatchedGroups(result.QuestionGroups)
	result.QuestionGroups = RenumberQuestions(result.QuestionGroups, ranges, e.log)

	return result, nil
}

// decodeExtraction accepts either the documented object shape or a bare
// array of question groups, which some models return despite the prompt.
func decodeExtraction(raw json.RawMessage) (*rawExtraction, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty extraction payload")
	}

	if trimmed[0] == '[' {
		var groups []rawGroup
		if err := json.Unmarshal(trimmed, &groups); err != nil {
			return nil, fmt.Errorf("decoding extraction payload: %w", err)
		}
		return &rawExtraction{QuestionGroups: groups}, nil
	}

	var payload rawExtraction
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decoding extraction payload: %w", err)
	}
	return &payload, nil
}

// decodeAnswer handles correct_answer arriving as a string or as a list of
// acceptable answers. For lists, the first entry becomes the canonical
// answer and the full list is kept.
func decodeAnswer(raw json.RawMessage) (string, []string) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], list
	}
	return "", nil
}

// unescapeNewlines converts literal backslash-n sequences the model emits
// inside passage content into real line breaks.
func unescapeNewlines(s string) string {
	s = strings.ReplaceAll(s, `\n\n`, "\n\n")
	return strings.ReplaceAll(s, `\n`, "\n")
}
