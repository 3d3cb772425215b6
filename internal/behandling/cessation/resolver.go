package cessation

import (
	"time"

	"bidrag/internal/behandling/models"
)

// ResolveCaseCessation derives the case-wide cessation date from the subject
// children. The case continues (nil) while any child lacks a date; otherwise
// the case ends with its last child.
func ResolveCaseCessation(children []*models.Child) *time.Time {
	if len(children) == 0 {
		return nil
	}
	dates := make([]time.Time, 0, len(children))
	for _, ch := range children {
		if ch.CessationDate == nil {
			return nil
		}
		dates = append(dates, *ch.CessationDate)
	}
	return models.DatePtr(models.LatestDate(dates...))
}
