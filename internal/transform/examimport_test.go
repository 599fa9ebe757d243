package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"IELTS Reading: The History of Tea", "ielts-reading-the-history-of-tea"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"Already-hyphenated --- title", "already-hyphenated-title"},
		{"Symbols!@# removed?", "symbols-removed"},
	}
	for _, tt := range tests {
		if got := GenerateSlug(tt.title); got != tt.want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestGenerateSlugCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 100)
	if got := GenerateSlug(long); len(got) > 128 {
		t.Errorf("slug length = %d, want <= 128", len(got))
	}
}

func sampleTest() *models.TestData {
	return &models.TestData{
		Title:          "IELTS Reading: The History of Tea",
		TestType:       models.TestTypeReading,
		Duration:       60,
		NumberQuestion: 3,
		Level:          models.LevelHigh,
		Parts: []models.PartData{{
			NamePart: "Part 1",
			Passage:  &models.PassageData{Title: "The History of Tea", Content: "body", NumberParagraph: 2},
			Groups: []models.GroupData{
				{
					Title:        "Questions 1–1: Do the statements agree?",
					TypeQuestion: models.TypeTFNG,
					Quantity:     1,
					Questions: []models.QuestionData{{
						NumberQuestion: 1,
						Content:        "Tea was first consumed in Europe.",
						Answers:        []models.AnswerData{{AnswerText: "FALSE"}},
					}},
				},
				{
					Title:        "Questions 2–2: Complete the sentences",
					TypeQuestion: models.TypeFillBlank,
					Quantity:     1,
					Questions: []models.QuestionData{{
						NumberQuestion: 2,
						Content:        "Tea spread along the ___ routes.",
						Answers:        []models.AnswerData{{AnswerText: "Silk"}},
					}},
				},
				{
					Title:        "Questions 3–3: Match the headings",
					TypeQuestion: models.TypeMatching,
					Quantity:     1,
					Questions: []models.QuestionData{{
						NumberQuestion: 3,
						Content:        "Early trade networks",
						Answers: []models.AnswerData{
							{MatchingKey: "A", AnswerText: "First heading"},
							{MatchingKey: "B", AnswerText: "Second heading", MatchingValue: "CORRECT"},
						},
					}},
				},
			},
		}},
	}
}

func TestBuildImportDocument(t *testing.T) {
	doc := BuildImportDocument(sampleTest())

	if doc.SchemaVersion != "1.0.0" {
		t.Errorf("schemaVersion = %q", doc.SchemaVersion)
	}
	if len(doc.Exams) != 1 {
		t.Fatalf("exams = %d, want 1", len(doc.Exams))
	}
	exam := doc.Exams[0]
	if exam.Slug != "ielts-reading-the-history-of-tea" {
		t.Errorf("slug = %q", exam.Slug)
	}
	if exam.Level != "B2" {
		t.Errorf("level = %q, want CEFR B2 for High", exam.Level)
	}
	if exam.Status != "PUBLISHED" || exam.Category != "IELTS" {
		t.Errorf("exam meta = %+v", exam)
	}
	if exam.DescriptionMd != "IELTS Reading Practice Test" {
		t.Errorf("description = %q", exam.DescriptionMd)
	}

	if len(exam.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(exam.Sections))
	}
	section := exam.Sections[0]
	if section.Idx != 1 || section.Title != "Part 1" {
		t.Errorf("section = %+v", section)
	}
	if section.InstructionsMd == nil || !strings.Contains(*section.InstructionsMd, "## Questions 2–2") {
		t.Error("instructions should join group titles as markdown headings")
	}
	if len(section.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(section.Questions))
	}
}

func TestBuildImportDocumentQuestionShapes(t *testing.T) {
	doc := BuildImportDocument(sampleTest())
	questions := doc.Exams[0].Sections[0].Questions

	tfng := questions[0]
	if tfng.Type != models.ImportTrueFalseNotGiven {
		t.Errorf("tfng type = %v", tfng.Type)
	}
	if len(tfng.Options) != 3 {
		t.Fatalf("tfng options = %d, want 3", len(tfng.Options))
	}
	for _, opt := range tfng.Options {
		wantCorrect := opt.ContentMd == "FALSE"
		if opt.IsCorrect != wantCorrect {
			t.Errorf("option %q isCorrect = %v", opt.ContentMd, opt.IsCorrect)
		}
	}

	blank := questions[1]
	if blank.Type != models.ImportSentenceCompletion {
		t.Errorf("completion type = %v, want SENTENCE_COMPLETION from title keyword", blank.Type)
	}
	accepted := blank.BlankAcceptTexts["blank2"]
	if len(accepted) != 2 || accepted[0] != "Silk" || accepted[1] != "silk" {
		t.Errorf("blankAcceptTexts = %v, want original plus lowercase", blank.BlankAcceptTexts)
	}

	matching := questions[2]
	if matching.Type != models.ImportMatchingHeading {
		t.Errorf("matching type = %v, want MATCHING_HEADING from title keyword", matching.Type)
	}
	if got := matching.MatchPairs["B"]; len(got) != 1 || got[0] != "CORRECT" {
		t.Errorf("matchPairs = %v", matching.MatchPairs)
	}
}

func TestBuildImportDocumentValidatesAgainstSchema(t *testing.T) {
	doc := BuildImportDocument(sampleTest())
	if err := ValidateImportDocument(doc); err != nil {
		t.Fatalf("document should satisfy the embedded schema: %v", err)
	}
}

func TestBuildImportDocumentValidatesPartWithoutGroups(t *testing.T) {
	// Two passages sharing one group leaves the first part with no
	// questions; the document must still pass schema validation.
	extraction := &models.ExtractionResult{
		Passages: []models.ExtractedPassage{
			{Title: "Tides", Content: "first passage body", ParagraphCount: 1},
			{Title: "Currents", Content: "second passage body", ParagraphCount: 1},
		},
		QuestionGroups: []models.ExtractedQuestionGroup{{
			Title:        "Questions 1-1: Do the statements agree?",
			QuestionType: models.TypeTFNG,
			Questions: []models.ExtractedQuestion{{
				Number:        1,
				Content:       "Tides are driven by the moon.",
				CorrectAnswer: "TRUE",
			}},
		}},
	}
	test := BuildTestData(extraction, "Coastal Science", models.TestTypeReading, models.LevelMid)

	doc := BuildImportDocument(test)
	sections := doc.Exams[0].Sections
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if sections[0].Questions == nil {
		t.Error("empty section questions should be an empty array, not nil")
	}
	if len(sections[1].Questions) != 1 {
		t.Errorf("second section questions = %d, want 1", len(sections[1].Questions))
	}
	if err := ValidateImportDocument(doc); err != nil {
		t.Fatalf("document with an empty section should validate: %v", err)
	}
}

func TestValidateImportDocumentRejectsBadDocument(t *testing.T) {
	doc := BuildImportDocument(sampleTest())
	doc.SchemaVersion = "2.0.0"
	if err := ValidateImportDocument(doc); err == nil {
		t.Fatal("expected schema violation for wrong schemaVersion")
	}
}

func TestSaveImportDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "exam.json")

	got, err := SaveImportDocument(BuildImportDocument(sampleTest()), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved document: %v", err)
	}
	if !strings.Contains(string(data), `"schemaVersion": "1.0.0"`) {
		t.Error("saved document missing schema version")
	}
}
