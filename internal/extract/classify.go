package extract

import (
	"log/slog"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// DetectTypeFromAnswers infers a group's question type from its answer
// strings. The single-letter check runs before the word checks so that an
// answer of "F" reads as a matching letter, never as FALSE. Returns false
// when the answers give no signal (none present, or mixed patterns).
func DetectTypeFromAnswers(questions []models.ExtractedQuestion) (models.QuestionType, bool) {
	var answers []string
	for _, q := range questions {
		a := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if a != "" {
			answers = append(answers, a)
		}
	}
	if len(answers) == 0 {
		return "", false
	}

	allLetters := true
	allTFNG := true
	allYesNo := true
	allWords := true
	distinct := map[string]struct{}{}

	for _, a := range answers {
		distinct[a] = struct{}{}
		if !isSingleLetter(a) {
			allLetters = false
		}
		if !isTFNGWord(a) {
			allTFNG = false
		}
		if !isYesNoWord(a) {
			allYesNo = false
		}
		if len(a) <= 1 {
			allWords = false
		}
	}

	switch {
	case allLetters && len(distinct) > 4:
		return models.TypeMatching, true
	case allLetters:
		return models.TypeMCQ, true
	case allTFNG:
		return models.TypeTFNG, true
	case allYesNo:
		return models.TypeYesNoNotGiven, true
	case allWords:
		return models.TypeFillBlank, true
	}
	return "", false
}

// ClassifyGroupTypes overwrites each group's type with the one its answers
// imply, logging every change. Groups whose answers carry no signal keep the
// type the extraction proposed.
func ClassifyGroupTypes(groups []models.ExtractedQuestionGroup, log *slog.Logger) []models.ExtractedQuestionGroup {
	if log == nil {
		log = slog.Default()
	}
	for i := range groups {
		detected, ok := DetectTypeFromAnswers(groups[i].Questions)
		if ok && detected != groups[i].QuestionType {
			log.Info("correcting question type from answer pattern",
				"group", groups[i].Title,
				"from", groups[i].QuestionType,
				"to", detected)
			groups[i].QuestionType = detected
		}
	}
	return groups
}

func isSingleLetter(a string) bool {
	return len(a) == 1 && a[0] >= 'A' && a[0] <= 'Z'
}

func isTFNGWord(a string) bool {
	switch a {
	case "TRUE", "FALSE", "NOT GIVEN", "NOTGIVEN":
		return true
	}
	return false
}

func isYesNoWord(a string) bool {
	switch a {
	case "YES", "NO", "NOT GIVEN", "NOTGIVEN":
		return true
	}
	return false
}
