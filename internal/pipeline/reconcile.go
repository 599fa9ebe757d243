package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// keyEntryPattern captures "<number>. <answer up to newline or comma>" lines
// from a free-text answer key.
var keyEntryPattern = regexp.MustCompile(`(\d+)\.\s*([^\n,]+)`)

// ParseAnswerKey parses a free-text answer key into a question-number to
// expected-answer mapping. Keys often restart numbering at 1 even when the
// page's questions start at 14; the offset derived from the page ranges
// (min start − 1) re-aligns them.
func ParseAnswerKey(answerKey string, ranges []models.QuestionRange) map[int]string {
	offset := 0
	if len(ranges) > 0 {
		min := ranges[0].Start
		for _, r := range ranges[1:] {
			if r.Start < min {
				min = r.Start
			}
		}
		offset = min - 1
	}

	expected := make(map[int]string)
	for _, m := range keyEntryPattern.FindAllStringSubmatch(answerKey, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		expected[num+offset] = strings.TrimSpace(m[2])
	}
	return expected
}

// CompareWithAnswerKey scores the extraction against the key. Comparison is
// case-insensitive after trimming. Accuracy is correct/total over ALL
// extracted questions, 0 when there are none.
func CompareWithAnswerKey(extraction *models.ExtractionResult, answerKey string, ranges []models.QuestionRange) (float64, []models.Discrepancy) {
	expected := ParseAnswerKey(answerKey, ranges)

	var discrepancies []models.Discrepancy
	correct := 0
	total := 0

	for _, group := range extraction.QuestionGroups {
		for _, q := range group.Questions {
			total++
			want, ok := expected[q.Number]
			if !ok {
				continue
			}
			got := strings.TrimSpace(q.CorrectAnswer)
			if strings.EqualFold(got, want) {
				correct++
			} else {
				discrepancies = append(discrepancies, models.Discrepancy{
					Question: q.Number,
					Expected: want,
					Got:      got,
				})
			}
		}
	}

	if total == 0 {
		return 0, discrepancies
	}
	return float64(correct) / float64(total), discrepancies
}

// ApplyAnswerKeyFixes overwrites each discrepant question's answer with the
// key's expected value. The key is trusted unconditionally over the
// extraction once any discrepancy exists.
func ApplyAnswerKeyFixes(extraction *models.ExtractionResult, discrepancies []models.Discrepancy) {
	fixes := make(map[int]string, len(discrepancies))
	for _, d := range discrepancies {
		fixes[d.Question] = d.Expected
	}

	for gi := range extraction.QuestionGroups {
		for qi := range extraction.QuestionGroups[gi].Questions {
			q := &extraction.QuestionGroups[gi].Questions[qi]
			if want, ok := fixes[q.Number]; ok {
				q.CorrectAnswer = want
			}
		}
	}
}
