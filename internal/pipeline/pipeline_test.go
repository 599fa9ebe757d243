package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ielts-tools/ieltscrawl/internal/llm"
	"github.com/ielts-tools/ieltscrawl/internal/models"
)

const extractionJSON = `{
	"passages": [{"title": "T", "content": "body", "paragraph_count": 1}],
	"question_groups": [
		{
			"title": "Questions 1-2",
			"question_type": "TFNG",
			"questions": [
				{"number": 1, "content": "Statement one", "correct_answer": "TRUE"},
				{"number": 2, "content": "Statement two", "correct_answer": "FALSE"}
			]
		}
	]
}`

const noIssues = `{"has_issues": false, "fixes": []}`

func TestRunHappyPath(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "1. TRUE\n2. FALSE", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsValid {
		t.Error("result should be valid")
	}
	if result.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", result.Accuracy)
	}
	if len(result.Discrepancies) != 0 {
		t.Errorf("discrepancies = %v", result.Discrepancies)
	}

	wantSteps := []string{"extraction complete", "preview generated"}
	for i, step := range wantSteps {
		if i >= len(result.StepsLog) || result.StepsLog[i] != step {
			t.Errorf("steps log = %v, want prefix %v", result.StepsLog, wantSteps)
			break
		}
	}
}

func TestRunAutoFixesDiscrepancies(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "1. FALSE\n2. FALSE", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Accuracy != 1.0 {
		t.Errorf("post-fix accuracy = %v, want 1.0", result.Accuracy)
	}
	if !result.IsValid {
		t.Error("auto-fixed result should be valid")
	}
	if got := result.Extraction.QuestionGroups[0].Questions[0].CorrectAnswer; got != "FALSE" {
		t.Errorf("answer = %q, want key value FALSE", got)
	}
	if len(result.Discrepancies) != 1 {
		t.Errorf("discrepancies = %v, want the original mismatch recorded", result.Discrepancies)
	}
}

func TestRunSkipAutoFixUsesThreshold(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "1. FALSE\n2. FALSE",
		Options{SkipAutoFix: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Accuracy != 0.5 {
		t.Errorf("accuracy = %v, want 0.5", result.Accuracy)
	}
	if result.IsValid {
		t.Error("0.5 accuracy should fail the default threshold")
	}
	if got := result.Extraction.QuestionGroups[0].Questions[0].CorrectAnswer; got != "TRUE" {
		t.Errorf("answer = %q, want untouched extraction value", got)
	}
}

func TestRunSkipAutoFixLowThresholdPasses(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "1. FALSE\n2. FALSE",
		Options{SkipAutoFix: true, AccuracyThreshold: 0.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsValid {
		t.Error("0.5 accuracy should pass a 0.4 threshold")
	}
}

func TestRunWithoutAnswerKey(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsValid || result.Accuracy != 1.0 {
		t.Errorf("no-key run: valid=%v accuracy=%v, want true/1.0", result.IsValid, result.Accuracy)
	}
	found := false
	for _, step := range result.StepsLog {
		if strings.Contains(step, "no answer key") {
			found = true
		}
	}
	if !found {
		t.Errorf("steps log = %v, want no-key note", result.StepsLog)
	}
}

func TestRunAppliesContentFixes(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(`{
		"has_issues": true,
		"fixes": [
			{"group_index": 0, "question_index": 1, "issue": "bad content", "new_content": "Fixed statement", "new_type": "MCQ"},
			{"group_index": 9, "question_index": 0, "new_content": "out of range"}
		]
	}`)

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := result.Extraction.QuestionGroups[0]
	if group.Questions[1].Content != "Fixed statement" {
		t.Errorf("content = %q, want validator fix applied", group.Questions[1].Content)
	}
	// new_type must be ignored: type stays under deterministic control.
	if group.QuestionType != models.TypeTFNG {
		t.Errorf("type = %v, want TFNG unchanged", group.QuestionType)
	}
}

func TestRunSurvivesValidationFailure(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueError(errors.New("validator down"))

	p := New(mock, nil)
	result, err := p.Run(context.Background(), "page text", nil, "1. TRUE\n2. FALSE", Options{})
	if err != nil {
		t.Fatalf("validation failure must not be fatal: %v", err)
	}
	if !result.IsValid {
		t.Error("result should still be valid")
	}
	found := false
	for _, step := range result.StepsLog {
		if strings.Contains(step, "skipped") {
			found = true
		}
	}
	if !found {
		t.Errorf("steps log = %v, want validation-skipped note", result.StepsLog)
	}
}

func TestRunFailsWhenExtractionFails(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueError(errors.New("model unavailable"))

	p := New(mock, nil)
	if _, err := p.Run(context.Background(), "page text", nil, "", Options{}); err == nil {
		t.Fatal("expected fatal error from failed extraction")
	}
}

func TestRunTruncatesValidationExcerpt(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueResponse(extractionJSON)
	mock.QueueResponse(noIssues)

	longText := strings.Repeat("x", validationExcerptLimit+1000)

	p := New(mock, nil)
	if _, err := p.Run(context.Background(), longText, nil, "", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if strings.Contains(calls[1].Prompt, strings.Repeat("x", validationExcerptLimit+1)) {
		t.Error("validation prompt contains untruncated raw text")
	}
}
