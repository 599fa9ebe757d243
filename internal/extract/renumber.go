package extract

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// RenumberQuestions aligns extracted question numbers with the ranges the
// page itself declared (for example "Questions 14–21"). Groups are matched
// against sorted ranges with a cursor: a group that fits in the remainder of
// the current range is renumbered from that position and retitled; a group
// too large for the remainder is left unchanged and the cursor moves to the
// next range. Once ranges run out, remaining groups pass through as-is.
func RenumberQuestions(groups []models.ExtractedQuestionGroup, ranges []models.QuestionRange, log *slog.Logger) []models.ExtractedQuestionGroup {
	if len(ranges) == 0 {
		return groups
	}
	if log == nil {
		log = slog.Default()
	}

	sorted := make([]models.QuestionRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	rangeIdx := 0
	currentPos := 0

	for gi := range groups {
		if rangeIdx >= len(sorted) {
			break
		}
		r := sorted[rangeIdx]
		groupSize := len(groups[gi].Questions)

		if groupSize > r.Size()-currentPos {
			// Group spans multiple ranges; leave it alone and move on.
			rangeIdx++
			currentPos = 0
			continue
		}

		actualStart := r.Start + currentPos
		if groupSize > 0 && groups[gi].Questions[0].Number != actualStart {
			log.Info("renumbering questions from page ranges",
				"group", groups[gi].Title,
				"from", groups[gi].Questions[0].Number,
				"to", actualStart)
			for qi := range groups[gi].Questions {
				groups[gi].Questions[qi].Number = actualStart + qi
			}
		}
		groups[gi].Title = fmt.Sprintf("Questions %d–%d", actualStart, actualStart+groupSize-1)

		currentPos += groupSize
		if currentPos >= r.Size() {
			rangeIdx++
			currentPos = 0
		}
	}
	return groups
}
