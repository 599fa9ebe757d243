// Package transform converts extraction results into the two upload payload
// shapes: the legacy backend API structure and the normalized exam-import
// document.
package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// transformFunc converts one group's questions into legacy answer rows. Each
// question type has its own answer encoding; dispatch is by lookup table.
type transformFunc func(group models.ExtractedQuestionGroup) []models.QuestionData

var transformers = map[models.QuestionType]transformFunc{
	models.TypeMCQ:           transformMCQ,
	models.TypeTFNG:          transformTFNG,
	models.TypeYesNoNotGiven: transformYesNo,
	models.TypeFillBlank:     transformFillBlank,
	models.TypeMatching:      transformMatching,
	models.TypeShortAnswer:   transformShortAnswer,
	models.TypeLabeling:      transformLabeling,
	models.TypeOther:         transformShortAnswer,
}

var tfngValues = map[string]string{
	"true":      "TRUE",
	"t":         "TRUE",
	"false":     "FALSE",
	"f":         "FALSE",
	"not given": "NOT GIVEN",
	"notgiven":  "NOT GIVEN",
	"ng":        "NOT GIVEN",
}

var yesNoValues = map[string]string{
	"yes":       "YES",
	"y":         "YES",
	"no":        "NO",
	"n":         "NO",
	"not given": "NOT GIVEN",
	"notgiven":  "NOT GIVEN",
	"ng":        "NOT GIVEN",
}

// TransformGroup converts one extracted group into the legacy GroupData
// shape. Unknown types fall back to the short-answer encoding.
func TransformGroup(group models.ExtractedQuestionGroup) models.GroupData {
	fn, ok := transformers[group.QuestionType]
	if !ok {
		fn = transformShortAnswer
	}
	return models.GroupData{
		Title:        group.Title,
		TypeQuestion: group.QuestionType,
		Quantity:     len(group.Questions),
		Questions:    fn(group),
	}
}

// transformMCQ emits the full options pool per question, each row tagged
// CORRECT or INCORRECT. The correct option is matched by letter, by option
// text, or by the letter appearing in a multi-letter answer ("B, D").
func transformMCQ(group models.ExtractedQuestionGroup) []models.QuestionData {
	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		correct := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))

		for i, opt := range q.Options {
			letter := string(rune('A' + i))
			text := opt
			if strings.HasPrefix(opt, letter+".") || strings.HasPrefix(opt, letter+" ") {
				text = strings.TrimSpace(opt[2:])
			}

			isCorrect := correct != "" &&
				(correct == letter || correct == strings.ToUpper(text) || strings.Contains(correct, letter))

			value := "INCORRECT"
			if isCorrect {
				value = "CORRECT"
			}
			answers = append(answers, models.AnswerData{
				AnswerText:    text,
				MatchingKey:   letter,
				MatchingValue: value,
			})
		}

		out = append(out, questionRow(q, answers))
	}
	return out
}

func transformTFNG(group models.ExtractedQuestionGroup) []models.QuestionData {
	return transformVerdict(group, tfngValues)
}

func transformYesNo(group models.ExtractedQuestionGroup) []models.QuestionData {
	return transformVerdict(group, yesNoValues)
}

// transformVerdict covers TFNG and YES_NO_NOTGIVEN: one answer row holding
// the normalized verdict word, matching fields empty.
func transformVerdict(group models.ExtractedQuestionGroup, valueMap map[string]string) []models.QuestionData {
	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		if q.CorrectAnswer != "" {
			lower := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
			value, ok := valueMap[lower]
			if !ok {
				value = strings.ToUpper(q.CorrectAnswer)
			}
			answers = append(answers, models.AnswerData{AnswerText: value})
		}
		out = append(out, questionRow(q, answers))
	}
	return out
}

func transformFillBlank(group models.ExtractedQuestionGroup) []models.QuestionData {
	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		if q.CorrectAnswer != "" {
			answers = append(answers, models.AnswerData{AnswerText: strings.TrimSpace(q.CorrectAnswer)})
		} else {
			for _, a := range q.CorrectAnswers {
				answers = append(answers, models.AnswerData{AnswerText: strings.TrimSpace(a)})
			}
		}
		out = append(out, questionRow(q, answers))
	}
	return out
}

// transformMatching clones the group's options pool per question and marks
// the correct entry. With no pool, a single key/value row keyed by question
// number carries the answer.
func transformMatching(group models.ExtractedQuestionGroup) []models.QuestionData {
	pool := parseMatchingPool(group.MatchingOptions)

	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		correct := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))

		switch {
		case len(pool) > 0:
			for _, opt := range pool {
				value := ""
				if correct != "" && (correct == opt.MatchingKey || strings.HasPrefix(correct, opt.MatchingKey)) {
					value = "CORRECT"
				}
				answers = append(answers, models.AnswerData{
					AnswerText:    opt.AnswerText,
					MatchingKey:   opt.MatchingKey,
					MatchingValue: value,
				})
			}
		case q.CorrectAnswer != "":
			answers = append(answers, models.AnswerData{
				MatchingKey:   strconv.Itoa(q.Number),
				MatchingValue: correct,
			})
		}

		out = append(out, questionRow(q, answers))
	}
	return out
}

func transformShortAnswer(group models.ExtractedQuestionGroup) []models.QuestionData {
	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		if q.CorrectAnswer != "" {
			answers = append(answers, models.AnswerData{AnswerText: strings.TrimSpace(q.CorrectAnswer)})
		}
		out = append(out, questionRow(q, answers))
	}
	return out
}

func transformLabeling(group models.ExtractedQuestionGroup) []models.QuestionData {
	var out []models.QuestionData
	for _, q := range group.Questions {
		var answers []models.AnswerData
		if q.CorrectAnswer != "" {
			answers = append(answers, models.AnswerData{
				AnswerText:  strings.TrimSpace(q.CorrectAnswer),
				MatchingKey: strconv.Itoa(q.Number),
			})
		}
		out = append(out, questionRow(q, answers))
	}
	return out
}

// parseMatchingPool parses "A. Option text" entries into key/text rows.
func parseMatchingPool(options []string) []models.AnswerData {
	var pool []models.AnswerData
	for _, opt := range options {
		if opt == "" {
			continue
		}
		key, text, found := strings.Cut(opt, ". ")
		if !found {
			key = string(opt[0])
			if len(opt) > 2 {
				text = strings.TrimSpace(opt[2:])
			} else {
				text = opt
			}
		}
		pool = append(pool, models.AnswerData{
			MatchingKey: strings.TrimSpace(key),
			AnswerText:  strings.TrimSpace(text),
		})
	}
	return pool
}

func questionRow(q models.ExtractedQuestion, answers []models.AnswerData) models.QuestionData {
	return models.QuestionData{
		NumberQuestion: q.Number,
		Content:        q.Content,
		Answers:        answers,
	}
}

// BuildTestData assembles the legacy test payload. For reading tests,
// question groups are divided evenly among the passages, with the last part
// absorbing the remainder; other skills get one part holding everything.
func BuildTestData(extraction *models.ExtractionResult, title string, testType models.TestType, level models.Level) *models.TestData {
	total := extraction.TotalQuestions()

	var parts []models.PartData

	if testType == models.TestTypeReading && len(extraction.Passages) > 0 {
		groupsPerPart := len(extraction.QuestionGroups) / len(extraction.Passages)
		for i, passage := range extraction.Passages {
			start := i * groupsPerPart
			end := start + groupsPerPart
			if i == len(extraction.Passages)-1 {
				end = len(extraction.QuestionGroups)
			}

			var groups []models.GroupData
			for _, g := range extraction.QuestionGroups[start:end] {
				groups = append(groups, TransformGroup(g))
			}

			parts = append(parts, models.PartData{
				NamePart: fmt.Sprintf("Part %d", i+1),
				Passage: &models.PassageData{
					Title:           passage.Title,
					Content:         passage.Content,
					NumberParagraph: passage.ParagraphCount,
				},
				Groups: groups,
			})
		}
	} else {
		var groups []models.GroupData
		for _, g := range extraction.QuestionGroups {
			groups = append(groups, TransformGroup(g))
		}
		parts = append(parts, models.PartData{NamePart: "Part 1", Groups: groups})
	}

	if total == 0 {
		total = 40
	}

	return &models.TestData{
		Title:          title,
		TestType:       testType,
		Duration:       60,
		NumberQuestion: total,
		Level:          level,
		Parts:          parts,
	}
}
