package cessation

import (
	"time"

	"bidrag/internal/behandling/models"
)

// reconcileContact handles contact-time periods, which belong to one child
// and only ever follow that child's own date.
func reconcileContact(r Reconciler, c *models.Case, cs cutoffs) (Stats, error) {
	live, archived, stats, err := reconcileFamily(r, c.Contact, c.Removed.Contact, cs.ownDate, RemoveDelete)
	if err != nil {
		return Stats{}, err
	}
	c.Contact, c.Removed.Contact = live, archived
	return stats, nil
}

// ownDate is the cutoff for per-child groups. A group whose child is not a
// subject child has no cutoff.
func (cs cutoffs) ownDate(k models.GroupKey) *time.Time {
	d, _ := cs.child(k.Subject)
	return d
}
