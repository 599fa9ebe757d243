package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// RepairFillBlankContent fixes FILL_BLANK questions where the extraction put
// the answer word into content instead of the sentence with the blank. A
// question needs repair when its content is empty, equals its answer, or
// carries no ___ marker. Repair is best-effort: a question with no candidate
// sentence in rawText keeps its content unchanged.
func RepairFillBlankContent(groups []models.ExtractedQuestionGroup, rawText string) []models.ExtractedQuestionGroup {
	for gi := range groups {
		if groups[gi].QuestionType != models.TypeFillBlank {
			continue
		}
		for qi := range groups[gi].Questions {
			q := &groups[gi].Questions[qi]
			content := strings.TrimSpace(q.Content)
			answer := strings.TrimSpace(q.CorrectAnswer)
			healthy := content != "" &&
				!strings.EqualFold(content, answer) &&
				strings.Contains(content, "___")
			if healthy {
				continue
			}
			if fixed, ok := findSentenceForAnswer(rawText, answer, q.Number); ok {
				q.Content = fixed
			}
		}
	}
	return groups
}

// findSentenceForAnswer scans rawText for the sentence a FILL_BLANK question
// was taken from. Numbered lines are preferred; failing that, any line with a
// blank marker whose five-line neighborhood mentions the answer.
func findSentenceForAnswer(rawText, answer string, number int) (string, bool) {
	lines := strings.Split(rawText, "\n")

	numPatterns := []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`(?i)^%d[.)]?\s+(.+)`, number)),
		regexp.MustCompile(fmt.Sprintf(`(?i)Question\s+%d[:.]?\s*(.+)`, number)),
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, pattern := range numPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			sentence := strings.TrimSpace(m[1])
			if strings.Contains(sentence, "___") || len(sentence) > 20 {
				if !strings.Contains(sentence, "___") {
					sentence += " ___"
				}
				return sentence, true
			}
		}
	}

	lowerAnswer := strings.ToLower(answer)
	for i, line := range lines {
		if !strings.Contains(line, "___") {
			continue
		}
		lo := i - 5
		if lo < 0 {
			lo = 0
		}
		hi := i + 5
		if hi > len(lines) {
			hi = len(lines)
		}
		nearby := strings.ToLower(strings.Join(lines[lo:hi], " "))
		if strings.Contains(nearby, lowerAnswer) {
			line = strings.TrimSpace(line)
			if len(line) > 10 {
				return line, true
			}
		}
	}

	return "", false
}
