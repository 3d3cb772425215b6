package cessation

import (
	"time"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
)

// cutoffs holds the dates a case's groups are reconciled against.
type cutoffs struct {
	caseWide *time.Time
	children map[id.RoleID]*time.Time
}

func cutoffsOf(c *models.Case) cutoffs {
	cs := cutoffs{
		caseWide: c.CessationDate,
		children: make(map[id.RoleID]*time.Time, len(c.Children)),
	}
	for _, ch := range c.Children {
		cs.children[ch.ID] = ch.CessationDate
	}
	return cs
}

// child returns the child's own date. The second result is false when the
// role is not a subject child of the case.
func (cs cutoffs) child(roleID id.RoleID) (*time.Time, bool) {
	d, ok := cs.children[roleID]
	return d, ok
}

// reconcileFamily splits a family into its groups, reconciles each against
// the cutoff chosen by cutoffFor, and reassembles the family keeping groups in
// order of first appearance.
func reconcileFamily[R models.Record](
	r Reconciler,
	live, archived []R,
	cutoffFor func(models.GroupKey) *time.Time,
	policy RemovalPolicy,
) ([]R, []R, Stats, error) {
	if len(live) == 0 && len(archived) == 0 {
		return live, archived, Stats{}, nil
	}
	var (
		keys     []models.GroupKey
		groups   = map[models.GroupKey][]R{}
		archives = map[models.GroupKey][]R{}
	)
	note := func(k models.GroupKey) {
		if _, seen := groups[k]; !seen {
			groups[k] = nil
			keys = append(keys, k)
		}
	}
	for _, rec := range live {
		k := rec.GroupKey()
		note(k)
		groups[k] = append(groups[k], rec)
	}
	for _, rec := range archived {
		k := rec.GroupKey()
		note(k)
		archives[k] = append(archives[k], rec)
	}

	var (
		outLive     = make([]R, 0, len(live))
		outArchived []R
		total       Stats
	)
	for _, k := range keys {
		l, a, stats, err := Reconcile(r, groups[k], archives[k], cutoffFor(k), policy)
		if err != nil {
			return nil, nil, Stats{}, err
		}
		outLive = append(outLive, l...)
		outArchived = append(outArchived, a...)
		total.add(stats)
	}
	return outLive, outArchived, total, nil
}
