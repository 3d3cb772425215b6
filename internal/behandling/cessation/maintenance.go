package cessation

import (
	"bidrag/internal/behandling/models"
)

// reconcileMaintenance handles the three maintenance-cost sub-families. Each
// is reconciled on its own against the child's own date, so they can be
// reported separately.
func reconcileMaintenance(r Reconciler, c *models.Case, cs cutoffs) (map[models.Family]Stats, error) {
	out := make(map[models.Family]Stats, 3)

	rates, removedRates, stats, err := reconcileFamily(r, c.DailyRates, c.Removed.DailyRates, cs.ownDate, RemoveDelete)
	if err != nil {
		return nil, err
	}
	c.DailyRates, c.Removed.DailyRates = rates, removedRates
	out[models.FamilyDailyRate] = stats

	categories, removedCategories, stats, err := reconcileFamily(r, c.CareCategories, c.Removed.CareCategories, cs.ownDate, RemoveDelete)
	if err != nil {
		return nil, err
	}
	c.CareCategories, c.Removed.CareCategories = categories, removedCategories
	out[models.FamilyCareCategory] = stats

	costs, removedCosts, stats, err := reconcileFamily(r, c.ActualCosts, c.Removed.ActualCosts, cs.ownDate, RemoveDelete)
	if err != nil {
		return nil, err
	}
	c.ActualCosts, c.Removed.ActualCosts = costs, removedCosts
	out[models.FamilyActualCost] = stats

	return out, nil
}
