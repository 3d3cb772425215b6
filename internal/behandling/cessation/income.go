package cessation

import (
	"time"

	"bidrag/internal/behandling/models"
)

// reconcileIncome handles the income family. Income paid for a specific child
// follows that child's date; general party income follows the case-wide date.
// Income is disabled rather than deleted so the rows stay in the history.
func reconcileIncome(r Reconciler, c *models.Case, cs cutoffs) (Stats, error) {
	cutoffFor := func(k models.GroupKey) *time.Time {
		if k.TaggedChild.IsNil() {
			return cs.caseWide
		}
		if d, ok := cs.child(k.TaggedChild); ok {
			return d
		}
		return cs.caseWide
	}
	live, _, stats, err := reconcileFamily(r, c.Incomes, nil, cutoffFor, RemoveDisable)
	if err != nil {
		return Stats{}, err
	}
	c.Incomes = live
	return stats, nil
}
