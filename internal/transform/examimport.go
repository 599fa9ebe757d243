package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "embed"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

//go:embed exam_import_schema.json
var examImportSchema []byte

// ImportDocument is the normalized exam-import payload.
type ImportDocument struct {
	SchemaVersion string       `json:"schemaVersion"`
	Exams         []ImportExam `json:"exams"`
}

type ImportExam struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	DescriptionMd string          `json:"descriptionMd"`
	Category      string          `json:"category"`
	Level         string          `json:"level"`
	Status        string          `json:"status"`
	DurationMin   int             `json:"durationMin"`
	Sections      []ImportSection `json:"sections"`
}

type ImportSection struct {
	ID             string           `json:"id"`
	Idx            int              `json:"idx"`
	Title          string           `json:"title"`
	InstructionsMd *string          `json:"instructionsMd"`
	AudioURL       *string          `json:"audioUrl"`
	TranscriptMd   *string          `json:"transcriptMd"`
	Questions      []ImportQuestion `json:"questions"`
}

type ImportQuestion struct {
	ID                     string                    `json:"id"`
	Idx                    int                       `json:"idx"`
	Type                   models.ImportQuestionType `json:"type"`
	Skill                  string                    `json:"skill"`
	Difficulty             int                       `json:"difficulty"`
	PromptMd               string                    `json:"promptMd"`
	ExplanationMd          *string                   `json:"explanationMd"`
	Options                []ImportOption            `json:"options"`
	BlankAcceptTexts       map[string][]string       `json:"blankAcceptTexts"`
	BlankAcceptRegex       map[string][]string       `json:"blankAcceptRegex"`
	MatchPairs             map[string][]string       `json:"matchPairs"`
	OrderCorrects          []string                  `json:"orderCorrects"`
	ShortAnswerAcceptTexts []string                  `json:"shortAnswerAcceptTexts"`
	ShortAnswerAcceptRegex []string                  `json:"shortAnswerAcceptRegex"`
}

type ImportOption struct {
	ID        string `json:"id"`
	Idx       int    `json:"idx"`
	ContentMd string `json:"contentMd"`
	IsCorrect bool   `json:"isCorrect"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)
var slugDashes = regexp.MustCompile(`-+`)

// GenerateSlug builds a URL-safe slug from a title, capped at 128 chars.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 128 {
		slug = slug[:128]
	}
	return slug
}

var completionTypes = map[models.ImportQuestionType]bool{
	models.ImportSummaryCompletion:  true,
	models.ImportTableCompletion:    true,
	models.ImportNoteCompletion:     true,
	models.ImportFormCompletion:     true,
	models.ImportSentenceCompletion: true,
	models.ImportShortAnswer:        true,
	models.ImportDiagramLabel:       true,
	models.ImportMapLabel:           true,
}

var matchingTypes = map[models.ImportQuestionType]bool{
	models.ImportMatchingHeading:     true,
	models.ImportMatchingInformation: true,
	models.ImportMatchingFeatures:    true,
	models.ImportMatchingEndings:     true,
	models.ImportClassification:      true,
}

var mcqTypes = map[models.ImportQuestionType]bool{
	models.ImportMultipleChoiceSingle:      true,
	models.ImportMultipleChoiceMultiple:    true,
	models.ImportMultipleChoiceSingleImage: true,
}

// BuildImportDocument converts the legacy test payload into the normalized
// exam-import shape.
func BuildImportDocument(test *models.TestData) *ImportDocument {
	skill := strings.ToUpper(string(test.TestType))

	description := test.Description
	if description == "" {
		description = fmt.Sprintf("IELTS %s Practice Test", titleCase(skill))
	}

	var sections []ImportSection
	for i, part := range test.Parts {
		section := buildSection(part, i+1, skill)
		if i == 0 && test.AudioURL != "" {
			audio := test.AudioURL
			section.AudioURL = &audio
		}
		sections = append(sections, section)
	}

	return &ImportDocument{
		SchemaVersion: "1.0.0",
		Exams: []ImportExam{{
			ID:            uuid.NewString(),
			Slug:          GenerateSlug(test.Title),
			Title:         test.Title,
			DescriptionMd: description,
			Category:      "IELTS",
			Level:         test.Level.CEFR(),
			Status:        "PUBLISHED",
			DurationMin:   test.Duration,
			Sections:      sections,
		}},
	}
}

func buildSection(part models.PartData, idx int, skill string) ImportSection {
	var instructionLines []string
	for _, group := range part.Groups {
		instructionLines = append(instructionLines, "## "+group.Title)
	}
	var instructions *string
	if len(instructionLines) > 0 {
		joined := strings.Join(instructionLines, "\n\n")
		instructions = &joined
	}

	// Non-nil so a part without groups still serializes as an array; the
	// schema rejects null questions.
	questions := []ImportQuestion{}
	for _, group := range part.Groups {
		for _, q := range group.Questions {
			questions = append(questions, buildQuestion(q, group, skill))
		}
	}

	return ImportSection{
		ID:             uuid.NewString(),
		Idx:            idx,
		Title:          part.NamePart,
		InstructionsMd: instructions,
		Questions:      questions,
	}
}

func buildQuestion(q models.QuestionData, group models.GroupData, skill string) ImportQuestion {
	newType := models.MapLegacyType(group.TypeQuestion, group.Title)

	out := ImportQuestion{
		ID:                     uuid.NewString(),
		Idx:                    q.NumberQuestion,
		Type:                   newType,
		Skill:                  skill,
		Difficulty:             2,
		PromptMd:               q.Content,
		Options:                []ImportOption{},
		BlankAcceptTexts:       map[string][]string{},
		BlankAcceptRegex:       map[string][]string{},
		MatchPairs:             map[string][]string{},
		OrderCorrects:          []string{},
		ShortAnswerAcceptTexts: []string{},
		ShortAnswerAcceptRegex: []string{},
	}

	switch {
	case mcqTypes[newType]:
		out.Options = buildMCQOptions(q.Answers)
	case newType == models.ImportTrueFalseNotGiven:
		out.Options = buildVerdictOptions(q.Answers, []string{"TRUE", "FALSE", "NOT GIVEN"})
	case newType == models.ImportYesNoNotGiven:
		out.Options = buildVerdictOptions(q.Answers, []string{"YES", "NO", "NOT GIVEN"})
	}

	if completionTypes[newType] {
		out.BlankAcceptTexts = buildBlankAcceptTexts(q.Answers, q.NumberQuestion)
	}
	if matchingTypes[newType] {
		out.MatchPairs = buildMatchPairs(q.Answers)
	}
	if newType == models.ImportShortAnswer {
		for _, a := range q.Answers {
			if a.AnswerText != "" {
				out.ShortAnswerAcceptTexts = append(out.ShortAnswerAcceptTexts, a.AnswerText)
			}
		}
	}

	return out
}

func buildMCQOptions(answers []models.AnswerData) []ImportOption {
	options := make([]ImportOption, 0, len(answers))
	for i, a := range answers {
		options = append(options, ImportOption{
			ID:        uuid.NewString(),
			Idx:       i + 1,
			ContentMd: a.AnswerText,
			IsCorrect: a.MatchingValue == "CORRECT",
		})
	}
	return options
}

func buildVerdictOptions(answers []models.AnswerData, labels []string) []ImportOption {
	correct := ""
	if len(answers) > 0 {
		correct = answers[0].AnswerText
		if correct == "" {
			correct = answers[0].MatchingValue
		}
	}
	correct = normalizeVerdict(correct)

	options := make([]ImportOption, 0, len(labels))
	for i, label := range labels {
		options = append(options, ImportOption{
			ID:        uuid.NewString(),
			Idx:       i + 1,
			ContentMd: label,
			IsCorrect: normalizeVerdict(label) == correct && correct != "",
		})
	}
	return options
}

// normalizeVerdict maps answer spellings like "NOT_GIVEN" and "NOTGIVEN"
// onto the canonical "NOT GIVEN".
func normalizeVerdict(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	if s == "NOTGIVEN" {
		s = "NOT GIVEN"
	}
	return s
}

// buildBlankAcceptTexts keys accepted answers by "blank<question number>",
// adding a lowercase variant when it differs from the original.
func buildBlankAcceptTexts(answers []models.AnswerData, number int) map[string][]string {
	var accepted []string
	for _, a := range answers {
		if a.AnswerText == "" {
			continue
		}
		accepted = append(accepted, a.AnswerText)
		if lower := strings.ToLower(a.AnswerText); lower != a.AnswerText {
			accepted = append(accepted, lower)
		}
	}
	if len(accepted) == 0 {
		return map[string][]string{}
	}
	return map[string][]string{fmt.Sprintf("blank%d", number): accepted}
}

// buildMatchPairs maps matching keys to their correct values. Pool-style
// answer rows (one per option, CORRECT marking the match) and key/value rows
// both collapse into the same shape; a row with neither falls back to a
// "paragraph" key.
func buildMatchPairs(answers []models.AnswerData) map[string][]string {
	pairs := map[string][]string{}
	for _, a := range answers {
		if a.MatchingKey != "" && a.MatchingValue != "" {
			pairs[a.MatchingKey] = append(pairs[a.MatchingKey], a.MatchingValue)
		}
	}
	if len(pairs) > 0 {
		return pairs
	}
	for _, a := range answers {
		if a.AnswerText != "" {
			return map[string][]string{"paragraph": {a.AnswerText}}
		}
		if a.MatchingValue != "" {
			return map[string][]string{"paragraph": {a.MatchingValue}}
		}
	}
	return pairs
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ValidateImportDocument checks the document against the embedded
// exam-import JSON schema.
func ValidateImportDocument(doc *ImportDocument) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("exam-import.schema.json", bytes.NewReader(examImportSchema)); err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	schema, err := compiler.Compile("exam-import.schema.json")
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("round-tripping document: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match exam-import schema: %w", err)
	}
	return nil
}

// SaveImportDocument validates and writes the document to path, creating
// parent directories as needed. An empty path defaults to "output/<slug>.json".
func SaveImportDocument(doc *ImportDocument, path string) (string, error) {
	if err := ValidateImportDocument(doc); err != nil {
		return "", err
	}

	if path == "" {
		slug := "exam"
		if len(doc.Exams) > 0 && doc.Exams[0].Slug != "" {
			slug = doc.Exams[0].Slug
		}
		path = filepath.Join("output", slug+".json")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
