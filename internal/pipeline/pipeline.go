// Package pipeline orchestrates the extraction of one test: primary LLM
// extraction with deterministic repair, a secondary LLM format-validation
// pass, and reconciliation against the page's answer key.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ielts-tools/ieltscrawl/internal/extract"
	"github.com/ielts-tools/ieltscrawl/internal/llm"
	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// DefaultAccuracyThreshold is the minimum answer-key accuracy for a result
// to count as valid when auto-fix is disabled.
const DefaultAccuracyThreshold = 0.95

// validationExcerptLimit caps the raw-text excerpt sent with the secondary
// validation call.
const validationExcerptLimit = 5000

// Options tunes one pipeline run.
type Options struct {
	// AccuracyThreshold is the validity cutoff on the no-auto-fix path.
	// Zero means DefaultAccuracyThreshold.
	AccuracyThreshold float64

	// SkipAutoFix disables overwriting discrepant answers from the key.
	// Validity then depends on the threshold instead.
	SkipAutoFix bool
}

// Result is the outcome of one pipeline run.
type Result struct {
	Extraction    *models.ExtractionResult `json:"extraction"`
	Accuracy      float64                  `json:"accuracy"`
	IsValid       bool                     `json:"is_valid"`
	Discrepancies []models.Discrepancy     `json:"discrepancies"`
	StepsLog      []string                 `json:"steps_log"`
}

// Pipeline runs extractions. Safe to reuse across crawls; all per-run state
// lives in the Result.
type Pipeline struct {
	llm       llm.Client
	extractor *extract.Extractor
	log       *slog.Logger
}

// New creates a Pipeline around the given LLM client.
func New(client llm.Client, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		llm:       client,
		extractor: extract.NewExtractor(client, log),
		log:       log,
	}
}

// Run executes the full pipeline over cleaned page text. A failed primary
// extraction is fatal; a failed secondary validation is skipped.
func (p *Pipeline) Run(ctx context.Context, rawText string, ranges []models.QuestionRange, answerKey string, opts Options) (*Result, error) {
	threshold := opts.AccuracyThreshold
	if threshold == 0 {
		threshold = DefaultAccuracyThreshold
	}

	result := &Result{}

	p.log.Info("running extraction")
	extraction, err := p.extractor.ExtractFullTest(ctx, rawText, ranges)
	if err != nil {
		return nil, fmt.Errorf("primary extraction: %w", err)
	}
	result.Extraction = extraction
	result.StepsLog = append(result.StepsLog, "extraction complete")

	preview, err := buildPreviewJSON(extraction)
	if err != nil {
		return nil, fmt.Errorf("building preview: %w", err)
	}
	result.StepsLog = append(result.StepsLog, "preview generated")

	p.log.Info("running format validation")
	if applied := p.validateFormat(ctx, extraction, preview, rawText); applied {
		result.StepsLog = append(result.StepsLog, "format validation applied")
	} else {
		result.StepsLog = append(result.StepsLog, "format validation skipped (no changes)")
	}

	if answerKey == "" {
		result.Accuracy = 1.0
		result.IsValid = true
		result.StepsLog = append(result.StepsLog, "no answer key - skipping comparison")
		return result, nil
	}

	p.log.Info("comparing with answer key")
	accuracy, discrepancies := CompareWithAnswerKey(extraction, answerKey, ranges)
	result.Accuracy = accuracy
	result.Discrepancies = discrepancies
	result.StepsLog = append(result.StepsLog, fmt.Sprintf("accuracy: %.1f%%", accuracy*100))

	switch {
	case len(discrepancies) == 0:
		result.IsValid = accuracy >= threshold
	case opts.SkipAutoFix:
		result.IsValid = accuracy >= threshold
	default:
		p.log.Info("auto-fixing answers from key", "count", len(discrepancies))
		ApplyAnswerKeyFixes(extraction, discrepancies)
		result.Accuracy = 1.0
		result.IsValid = true
		result.StepsLog = append(result.StepsLog, fmt.Sprintf("fixed %d answers from key", len(discrepancies)))
	}

	return result, nil
}

// previewQuestion mirrors the fields the validator is allowed to see.
type previewQuestion struct {
	Number        int      `json:"number"`
	Content       string   `json:"content"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
}

type previewGroup struct {
	Title     string            `json:"title"`
	Type      string            `json:"type"`
	Questions []previewQuestion `json:"questions"`
}

func buildPreviewJSON(extraction *models.ExtractionResult) (string, error) {
	groups := make([]previewGroup, 0, len(extraction.QuestionGroups))
	for _, g := range extraction.QuestionGroups {
		pg := previewGroup{Title: g.Title, Type: string(g.QuestionType)}
		for _, q := range g.Questions {
			pg.Questions = append(pg.Questions, previewQuestion{
				Number:        q.Number,
				Content:       q.Content,
				CorrectAnswer: q.CorrectAnswer,
				Options:       q.Options,
			})
		}
		groups = append(groups, pg)
	}

	data, err := json.MarshalIndent(map[string][]previewGroup{"question_groups": groups}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type validationFix struct {
	GroupIndex    int    `json:"group_index"`
	QuestionIndex int    `json:"question_index"`
	Issue         string `json:"issue"`
	NewContent    string `json:"new_content"`
	NewType       string `json:"new_type"`
}

type validationResponse struct {
	HasIssues bool            `json:"has_issues"`
	Fixes     []validationFix `json:"fixes"`
}

// validateFormat runs the secondary validation call and applies content
// fixes. Type fixes from the validator are ignored: type is governed by the
// deterministic answer-pattern rules, which are stable across runs. Any
// failure here is non-fatal.
func (p *Pipeline) validateFormat(ctx context.Context, extraction *models.ExtractionResult, preview, rawText string) bool {
	excerpt := rawText
	if len(excerpt) > validationExcerptLimit {
		excerpt = excerpt[:validationExcerptLimit]
	}

	prompt := extract.BuildValidationPrompt(preview, excerpt)
	raw, err := p.llm.Call(ctx, prompt, "")
	if err != nil {
		p.log.Warn("format validation failed, skipping", "error", err)
		return false
	}

	var resp validationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		p.log.Warn("format validation returned unusable payload, skipping", "error", err)
		return false
	}

	applied := false
	for _, fix := range resp.Fixes {
		if fix.NewContent == "" {
			continue
		}
		if fix.GroupIndex < 0 || fix.GroupIndex >= len(extraction.QuestionGroups) {
			continue
		}
		group := &extraction.QuestionGroups[fix.GroupIndex]
		if fix.QuestionIndex < 0 || fix.QuestionIndex >= len(group.Questions) {
			continue
		}
		group.Questions[fix.QuestionIndex].Content = fix.NewContent
		applied = true
	}
	return applied
}
