package pipeline

import (
	"testing"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

func extractionWith(groups ...models.ExtractedQuestionGroup) *models.ExtractionResult {
	return &models.ExtractionResult{QuestionGroups: groups}
}

func TestParseAnswerKeyOffset(t *testing.T) {
	key := "1. C\n2. G\n3. B"
	ranges := []models.QuestionRange{{Start: 22, End: 25}, {Start: 14, End: 21}}

	got := ParseAnswerKey(key, ranges)

	// min start is 14, so key entry 1 maps to question 14.
	if got[14] != "C" || got[15] != "G" || got[16] != "B" {
		t.Errorf("parsed key = %v, want offset-adjusted numbers 14..16", got)
	}
}

func TestParseAnswerKeyWithoutRanges(t *testing.T) {
	got := ParseAnswerKey("1. TRUE\n2. FALSE", nil)
	if got[1] != "TRUE" || got[2] != "FALSE" {
		t.Errorf("parsed key = %v", got)
	}
}

func TestParseAnswerKeyStopsAtCommaAndNewline(t *testing.T) {
	got := ParseAnswerKey("1. Not Given, 2. polar-opposite ideas\n3. B", nil)
	if got[1] != "Not Given" {
		t.Errorf("entry 1 = %q, want comma-terminated", got[1])
	}
	if got[2] != "polar-opposite ideas" {
		t.Errorf("entry 2 = %q", got[2])
	}
	if got[3] != "B" {
		t.Errorf("entry 3 = %q", got[3])
	}
}

func TestCompareWithAnswerKeyOffset(t *testing.T) {
	extraction := extractionWith(models.ExtractedQuestionGroup{
		QuestionType: models.TypeMatching,
		Questions: []models.ExtractedQuestion{
			{Number: 14, CorrectAnswer: "C"},
			{Number: 15, CorrectAnswer: "G"},
			{Number: 16, CorrectAnswer: "A"},
		},
	})
	ranges := []models.QuestionRange{{Start: 14, End: 21}, {Start: 22, End: 25}}

	accuracy, discrepancies := CompareWithAnswerKey(extraction, "1. C\n2. G\n3. B", ranges)

	if want := 2.0 / 3.0; accuracy < want-0.001 || accuracy > want+0.001 {
		t.Errorf("accuracy = %v, want %v", accuracy, want)
	}
	if len(discrepancies) != 1 {
		t.Fatalf("discrepancies = %v, want 1", discrepancies)
	}
	d := discrepancies[0]
	if d.Question != 16 || d.Expected != "B" || d.Got != "A" {
		t.Errorf("discrepancy = %+v", d)
	}
}

func TestCompareIsCaseInsensitive(t *testing.T) {
	extraction := extractionWith(models.ExtractedQuestionGroup{
		Questions: []models.ExtractedQuestion{
			{Number: 1, CorrectAnswer: "true"},
			{Number: 2, CorrectAnswer: " Not Given "},
		},
	})

	accuracy, discrepancies := CompareWithAnswerKey(extraction, "1. TRUE\n2. NOT GIVEN", nil)

	if accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", accuracy)
	}
	if len(discrepancies) != 0 {
		t.Errorf("discrepancies = %v, want none", discrepancies)
	}
}

func TestCompareZeroQuestions(t *testing.T) {
	accuracy, _ := CompareWithAnswerKey(extractionWith(), "1. A", nil)
	if accuracy != 0 {
		t.Errorf("accuracy = %v, want 0 with no questions", accuracy)
	}
}

func TestApplyAnswerKeyFixes(t *testing.T) {
	extraction := extractionWith(models.ExtractedQuestionGroup{
		Questions: []models.ExtractedQuestion{
			{Number: 14, CorrectAnswer: "A"},
			{Number: 15, CorrectAnswer: "G"},
		},
	})
	discrepancies := []models.Discrepancy{{Question: 14, Expected: "C", Got: "A"}}

	ApplyAnswerKeyFixes(extraction, discrepancies)

	if got := extraction.QuestionGroups[0].Questions[0].CorrectAnswer; got != "C" {
		t.Errorf("fixed answer = %q, want %q", got, "C")
	}
	if got := extraction.QuestionGroups[0].Questions[1].CorrectAnswer; got != "G" {
		t.Errorf("untouched answer = %q, want %q", got, "G")
	}

	// Post-fix, the extraction must agree with the key exactly.
	accuracy, rest := CompareWithAnswerKey(extraction, "1. C\n2. G", []models.QuestionRange{{Start: 14, End: 15}})
	if accuracy != 1.0 || len(rest) != 0 {
		t.Errorf("post-fix accuracy = %v, discrepancies = %v", accuracy, rest)
	}
}
