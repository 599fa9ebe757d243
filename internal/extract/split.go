package extract

import (
	"fmt"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// SplitMinGroupSize is the largest group the splitter leaves alone. Small
// groups carry too little answer-pattern signal to split reliably.
const SplitMinGroupSize = 3

// SplitMismatchedGroups breaks up groups whose questions show conflicting
// answer patterns, which happens when the extraction merges adjacent question
// sets of different types into one group. Groups of SplitMinGroupSize or
// fewer questions pass through untouched.
func SplitMismatchedGroups(groups []models.ExtractedQuestionGroup) []models.ExtractedQuestionGroup {
	var out []models.ExtractedQuestionGroup
	for _, group := range groups {
		if len(group.Questions) <= SplitMinGroupSize {
			out = append(out, group)
			continue
		}
		out = append(out, splitByAnswerPattern(group)...)
	}
	return out
}

// splitByAnswerPattern buckets a group's questions by answer shape: single
// letters, TFNG-family words, everything else. The single-letter check runs
// first so "F" lands with the letters, not with FALSE. One non-empty bucket
// means the group was homogeneous; it is returned unchanged.
func splitByAnswerPattern(group models.ExtractedQuestionGroup) []models.ExtractedQuestionGroup {
	if len(group.Questions) == 0 {
		return []models.ExtractedQuestionGroup{group}
	}

	var letterQs, wordQs, tfngQs []models.ExtractedQuestion
	for _, q := range group.Questions {
		answer := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		switch {
		case isSingleLetter(answer):
			letterQs = append(letterQs, q)
		case isTFNGWord(answer) || answer == "YES" || answer == "NO":
			tfngQs = append(tfngQs, q)
		default:
			wordQs = append(wordQs, q)
		}
	}

	nonEmpty := 0
	for _, bucket := range [][]models.ExtractedQuestion{letterQs, wordQs, tfngQs} {
		if len(bucket) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty <= 1 {
		return []models.ExtractedQuestionGroup{group}
	}

	var subs []models.ExtractedQuestionGroup
	if len(letterQs) > 0 {
		// Letter answers keep the group's original type and options pool.
		subs = append(subs, models.ExtractedQuestionGroup{
			Title:           bucketTitle(letterQs, "Matching"),
			QuestionType:    group.QuestionType,
			Questions:       letterQs,
			MatchingOptions: group.MatchingOptions,
		})
	}
	if len(wordQs) > 0 {
		subs = append(subs, models.ExtractedQuestionGroup{
			Title:        bucketTitle(wordQs, "Fill in the Blanks"),
			QuestionType: models.TypeFillBlank,
			Questions:    wordQs,
		})
	}
	if len(tfngQs) > 0 {
		subs = append(subs, models.ExtractedQuestionGroup{
			Title:        bucketTitle(tfngQs, "True/False/Not Given"),
			QuestionType: models.TypeTFNG,
			Questions:    tfngQs,
		})
	}
	return subs
}

// bucketTitle builds "Questions <min>–<max>" from the bucket's question
// numbers, falling back to a generic label when no question has a number.
func bucketTitle(questions []models.ExtractedQuestion, fallback string) string {
	min, max := 0, 0
	for _, q := range questions {
		if q.Number == 0 {
			continue
		}
		if min == 0 || q.Number < min {
			min = q.Number
		}
		if q.Number > max {
			max = q.Number
		}
	}
	if min == 0 {
		return fallback
	}
	return fmt.Sprintf("Questions %d–%d", min, max)
}
