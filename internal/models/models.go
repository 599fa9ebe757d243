// Package models defines the data types that flow through the crawl and
// extraction pipeline, from raw LLM extraction output through to the two
// upload payload shapes (legacy backend API and exam-import documents).
package models

import "strings"

// TestType identifies which IELTS skill a test exercises.
type TestType string

const (
	TestTypeListening TestType = "LISTENING"
	TestTypeReading   TestType = "READING"
	TestTypeWriting   TestType = "WRITING"
	TestTypeSpeaking  TestType = "SPEAKING"
)

// QuestionType is the legacy 8-value question type tag used by the backend
// API. It is a mutable classification: the LLM proposes one, and the repair
// pipeline may overwrite it based on answer patterns.
type QuestionType string

const (
	TypeMCQ           QuestionType = "MCQ"
	TypeTFNG          QuestionType = "TFNG"
	TypeYesNoNotGiven QuestionType = "YES_NO_NOTGIVEN"
	TypeMatching      QuestionType = "MATCHING"
	TypeFillBlank     QuestionType = "FILL_BLANK"
	TypeLabeling      QuestionType = "LABELING"
	TypeShortAnswer   QuestionType = "SHORT_ANSWER"
	TypeOther         QuestionType = "OTHER"
)

// questionTypeAliases maps free-text type strings the LLM tends to produce
// onto the closed QuestionType set.
var questionTypeAliases = map[string]QuestionType{
	"mcq":                  TypeMCQ,
	"multiple choice":      TypeMCQ,
	"tfng":                 TypeTFNG,
	"true/false/not given": TypeTFNG,
	"true false not given": TypeTFNG,
	"yes_no_notgiven":      TypeYesNoNotGiven,
	"yes/no/not given":     TypeYesNoNotGiven,
	"yes no not given":     TypeYesNoNotGiven,
	"fill_blank":           TypeFillBlank,
	"fill in the blank":    TypeFillBlank,
	"gap fill":             TypeFillBlank,
	"sentence completion":  TypeFillBlank,
	"matching":             TypeMatching,
	"match":                TypeMatching,
	"short_answer":         TypeShortAnswer,
	"short answer":         TypeShortAnswer,
	"labeling":             TypeLabeling,
	"labelling":            TypeLabeling,
	"diagram":              TypeLabeling,
	"other":                TypeOther,
}

// NormalizeQuestionType maps a free-text type string to a QuestionType.
// Unrecognized strings fall back to TypeOther.
func NormalizeQuestionType(s string) QuestionType {
	if s == "" {
		return TypeOther
	}
	lower := strings.ToLower(strings.TrimSpace(s))

	if qt, ok := questionTypeAliases[lower]; ok {
		return qt
	}
	// Partial match: "matching headings" should still resolve to MATCHING.
	for alias, qt := range questionTypeAliases {
		if strings.Contains(lower, alias) || strings.Contains(alias, lower) {
			return qt
		}
	}
	return TypeOther
}

// ImportQuestionType is the 17-value question type enum used by the
// exam-import schema.
type ImportQuestionType string

const (
	ImportMultipleChoiceSingle      ImportQuestionType = "MULTIPLE_CHOICE_SINGLE"
	ImportMultipleChoiceMultiple    ImportQuestionType = "MULTIPLE_CHOICE_MULTIPLE"
	ImportMultipleChoiceSingleImage ImportQuestionType = "MULTIPLE_CHOICE_SINGLE_IMAGE"
	ImportTrueFalseNotGiven         ImportQuestionType = "TRUE_FALSE_NOT_GIVEN"
	ImportYesNoNotGiven             ImportQuestionType = "YES_NO_NOT_GIVEN"
	ImportSummaryCompletion         ImportQuestionType = "SUMMARY_COMPLETION"
	ImportTableCompletion           ImportQuestionType = "TABLE_COMPLETION"
	ImportNoteCompletion            ImportQuestionType = "NOTE_COMPLETION"
	ImportFormCompletion            ImportQuestionType = "FORM_COMPLETION"
	ImportSentenceCompletion        ImportQuestionType = "SENTENCE_COMPLETION"
	ImportShortAnswer               ImportQuestionType = "SHORT_ANSWER"
	ImportDiagramLabel              ImportQuestionType = "DIAGRAM_LABEL"
	ImportMapLabel                  ImportQuestionType = "MAP_LABEL"
	ImportMatchingHeading           ImportQuestionType = "MATCHING_HEADING"
	ImportMatchingInformation       ImportQuestionType = "MATCHING_INFORMATION"
	ImportMatchingFeatures          ImportQuestionType = "MATCHING_FEATURES"
	ImportMatchingEndings           ImportQuestionType = "MATCHING_ENDINGS"
	ImportClassification            ImportQuestionType = "CLASSIFICATION"
	ImportFlowChart                 ImportQuestionType = "FLOW_CHART"
)

// defaultImportType is the fixed fallback mapping from legacy to import types
// when no disambiguating keyword is present.
var defaultImportType = map[QuestionType]ImportQuestionType{
	TypeMCQ:           ImportMultipleChoiceSingle,
	TypeTFNG:          ImportTrueFalseNotGiven,
	TypeYesNoNotGiven: ImportYesNoNotGiven,
	TypeFillBlank:     ImportSummaryCompletion,
	TypeShortAnswer:   ImportShortAnswer,
	TypeLabeling:      ImportDiagramLabel,
	TypeMatching:      ImportMatchingInformation,
	TypeOther:         ImportShortAnswer,
}

// MapLegacyType maps a legacy QuestionType to an ImportQuestionType, using
// the surrounding group title/instruction text to disambiguate the ambiguous
// legacy tags (matching, completion, labeling, MCQ).
func MapLegacyType(old QuestionType, context string) ImportQuestionType {
	combined := strings.ToLower(context)

	switch old {
	case TypeMatching:
		switch {
		case strings.Contains(combined, "heading"):
			return ImportMatchingHeading
		case strings.Contains(combined, "feature"),
			strings.Contains(combined, "writer"),
			strings.Contains(combined, "person"):
			return ImportMatchingFeatures
		case strings.Contains(combined, "ending"):
			return ImportMatchingEndings
		default:
			return ImportMatchingInformation
		}
	case TypeFillBlank:
		switch {
		case strings.Contains(combined, "table"):
			return ImportTableCompletion
		case strings.Contains(combined, "note"):
			return ImportNoteCompletion
		case strings.Contains(combined, "form"):
			return ImportFormCompletion
		case strings.Contains(combined, "sentence"):
			return ImportSentenceCompletion
		default:
			return ImportSummaryCompletion
		}
	case TypeLabeling:
		if strings.Contains(combined, "map") {
			return ImportMapLabel
		}
		return ImportDiagramLabel
	case TypeMCQ:
		if strings.Contains(combined, "choose two") || strings.Contains(combined, "choose three") {
			return ImportMultipleChoiceMultiple
		}
	}

	if t, ok := defaultImportType[old]; ok {
		return t
	}
	return ImportShortAnswer
}

// Level is the internal 4-tier difficulty rating.
type Level string

const (
	LevelLow   Level = "Low"
	LevelMid   Level = "Mid"
	LevelHigh  Level = "High"
	LevelGreat Level = "Great"
)

// CEFR maps the internal level to a CEFR band for the exam-import schema.
func (l Level) CEFR() string {
	switch l {
	case LevelLow:
		return "A2"
	case LevelMid:
		return "B1"
	case LevelHigh:
		return "B2"
	case LevelGreat:
		return "C1"
	default:
		return "B2"
	}
}

// ParseLevel returns the Level matching s, defaulting to Mid.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelLow, LevelMid, LevelHigh, LevelGreat:
		return Level(s)
	default:
		return LevelMid
	}
}

// QuestionRange is an inclusive question number span parsed from page text
// such as "Questions 14–21". Ranges are hints from the page, never sole
// truth when they conflict with group sizes.
type QuestionRange struct {
	Start int
	End   int
}

// Size returns the number of questions the range covers.
func (r QuestionRange) Size() int { return r.End - r.Start + 1 }

// Discrepancy records a mismatch between an extracted answer and the answer
// key's expected value for the same question number.
type Discrepancy struct {
	Question int    `json:"question"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// ExtractedPassage is a reading passage as extracted by the LLM. Immutable
// after extraction apart from one newline-unescaping pass.
type ExtractedPassage struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ParagraphCount int    `json:"paragraph_count"`
}

// ExtractedQuestion is a single question as extracted by the LLM. Number,
// content and type may all be rewritten by the repair steps.
type ExtractedQuestion struct {
	Number         int          `json:"number"`
	Content        string       `json:"content"`
	QuestionType   QuestionType `json:"question_type"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correct_answer,omitempty"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
}

// ExtractedQuestionGroup is a titled cluster of questions nominally sharing
// one instruction and type. Until the group splitter runs, member questions
// may legitimately disagree with the group tag.
type ExtractedQuestionGroup struct {
	Title           string              `json:"title"`
	Instruction     string              `json:"instruction,omitempty"`
	QuestionType    QuestionType        `json:"question_type"`
	Questions       []ExtractedQuestion `json:"questions"`
	MatchingOptions []string            `json:"matching_options,omitempty"`
}

// ExtractionResult is the unit that flows through the whole pipeline.
// One instance per crawl; never shared across crawls.
type ExtractionResult struct {
	Passages       []ExtractedPassage       `json:"passages"`
	QuestionGroups []ExtractedQuestionGroup `json:"question_groups"`
}

// TotalQuestions returns the question count across all groups.
func (r *ExtractionResult) TotalQuestions() int {
	n := 0
	for _, g := range r.QuestionGroups {
		n += len(g.Questions)
	}
	return n
}

// AnswerData is one answer row in the legacy backend payload.
type AnswerData struct {
	AnswerText    string `json:"answer_text,omitempty"`
	MatchingKey   string `json:"matching_key,omitempty"`
	MatchingValue string `json:"matching_value,omitempty"`
}

// QuestionData is one question in the legacy backend payload.
type QuestionData struct {
	NumberQuestion int          `json:"numberQuestion"`
	Content        string       `json:"content"`
	Answers        []AnswerData `json:"answers"`

	// Identifiers assigned during upload, not sent on create.
	IDQuestion string `json:"-"`
	IDGroup    string `json:"-"`
	IDPart     string `json:"-"`
}

// GroupData is a group of questions in the legacy backend payload.
type GroupData struct {
	Title        string         `json:"title"`
	TypeQuestion QuestionType   `json:"typeQuestion"`
	Quantity     int            `json:"quantity"`
	Questions    []QuestionData `json:"questions"`

	IDGroup string `json:"-"`
	IDTest  string `json:"-"`
	IDPart  string `json:"-"`
}

// PassageData is a reading passage in the legacy backend payload.
type PassageData struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Description     string `json:"description,omitempty"`
	NumberParagraph int    `json:"numberParagraph"`

	IDPassage string `json:"-"`
	IDPart    string `json:"-"`
}

// PartData is one test part (typically one passage plus its groups).
type PartData struct {
	NamePart string       `json:"namePart"`
	Passage  *PassageData `json:"passage,omitempty"`
	Groups   []GroupData  `json:"groups"`

	IDPart string `json:"-"`
	IDTest string `json:"-"`
}

// TestData is the complete test in the legacy backend payload shape.
type TestData struct {
	Title          string     `json:"title"`
	TestType       TestType   `json:"testType"`
	Duration       int        `json:"duration"`
	NumberQuestion int        `json:"numberQuestion"`
	Level          Level      `json:"level"`
	Description    string     `json:"description,omitempty"`
	AudioURL       string     `json:"audioUrl,omitempty"`
	Parts          []PartData `json:"parts"`

	IDTest string `json:"-"`
	IDUser string `json:"-"`
}

// CrawlResult is the outcome of crawling one URL. Failures are recorded
// here, not propagated, so batch crawls survive individual test failures.
type CrawlResult struct {
	URL      string    `json:"url"`
	Success  bool      `json:"success"`
	TestData *TestData `json:"test_data,omitempty"`
	Error    string    `json:"error,omitempty"`

	// Set when the crawl ran answer key validation.
	Accuracy float64  `json:"accuracy,omitempty"`
	IsValid  bool     `json:"is_valid,omitempty"`
	StepsLog []string `json:"steps_log,omitempty"`
}
