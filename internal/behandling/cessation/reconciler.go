package cessation

import (
	"fmt"
	"sort"
	"time"

	"bidrag/internal/behandling/models"
	dErrors "bidrag/pkg/domain-errors"
)

// RemovalPolicy decides what happens to a record that lies entirely on or
// after the cutoff.
type RemovalPolicy int

const (
	// RemoveDelete takes the record out of the live set and archives it.
	RemoveDelete RemovalPolicy = iota + 1
	// RemoveDisable clears the record's bounds and keeps it as an inactive row.
	RemoveDisable
)

func (p RemovalPolicy) String() string {
	switch p {
	case RemoveDelete:
		return "delete"
	case RemoveDisable:
		return "disable"
	default:
		return fmt.Sprintf("RemovalPolicy(%d)", int(p))
	}
}

// Stats counts what one reconciliation changed.
type Stats struct {
	Truncated int `json:"truncated"`
	Removed   int `json:"removed"`
	Restored  int `json:"restored"`
}

func (s Stats) Changed() bool {
	return s.Truncated+s.Removed+s.Restored > 0
}

func (s *Stats) add(o Stats) {
	s.Truncated += o.Truncated
	s.Removed += o.Removed
	s.Restored += o.Restored
}

// Reconciler carries the case context a group is reconciled in.
//
// OpenHorizon, when set, keeps open-ended records open for cutoffs after the
// horizon day instead of closing them at the day before the cutoff.
type Reconciler struct {
	EffectiveDate time.Time
	OpenHorizon   *time.Time
}

// Reconcile recomputes one record group against a cutoff.
//
// Every record's new bounds are derived only from its basis: the baseline
// captured before cessation handling first changed it, else its current
// bounds. The candidate is basis ∩ [effective date, cutoff), so the result
// does not depend on earlier cutoffs and no start moves earlier than the live
// start the record had before its first change. Records ending before the
// effective date keep their start. An empty candidate applies the removal policy; a nil cutoff restores
// every record to its basis. Archived records of the group are reinstated
// when their candidate becomes non-empty.
//
// Records that are inactive for reasons other than cessation handling are
// never touched.
func Reconcile[R models.Record](r Reconciler, group, archived []R, cutoff *time.Time, policy RemovalPolicy) ([]R, []R, Stats, error) {
	var (
		live  = make([]R, 0, len(group)+len(archived))
		kept  []R
		stats Stats
	)

	for _, rec := range group {
		p := rec.Timeline()
		if !p.Active && !p.Suspended {
			live = append(live, rec)
			continue
		}
		p.RefreshBaseline()
		span, ok := r.candidate(p, cutoff)
		if !ok {
			if !p.Active {
				// already disabled by an earlier cutoff
				live = append(live, rec)
				continue
			}
			stats.Removed++
			p.CaptureBaseline()
			p.Applied = nil
			switch policy {
			case RemoveDisable:
				p.From, p.To = nil, nil
				p.Active, p.Suspended = false, true
				live = append(live, rec)
			case RemoveDelete:
				p.Suspended = true
				kept = append(kept, rec)
			default:
				return nil, nil, Stats{}, dErrors.New(dErrors.CodeInvariantViolation, "unknown removal policy "+policy.String())
			}
			continue
		}
		switch {
		case !p.Active:
			stats.Restored++
		case sameBounds(p, span):
			live = append(live, rec)
			continue
		case narrows(p, span):
			stats.Truncated++
		default:
			stats.Restored++
		}
		p.CaptureBaseline()
		setBounds(p, span)
		live = append(live, rec)
	}

	for _, rec := range archived {
		p := rec.Timeline()
		span, ok := r.candidate(p, cutoff)
		if !ok {
			kept = append(kept, rec)
			continue
		}
		stats.Restored++
		setBounds(p, span)
		live = append(live, rec)
	}

	sortGroup(live)
	if err := CheckGroup(live); err != nil {
		return nil, nil, Stats{}, err
	}
	return live, kept, stats, nil
}

// basis is the full extent a record may cover. Suspended rows cleared before
// a baseline existed fall back to their source bounds.
func (r Reconciler) basis(p *models.Period) models.Span {
	if p.Baseline != nil {
		return models.Span{From: p.Baseline.From, To: models.CopyDate(p.Baseline.To)}
	}
	if b, ok := p.Bounds(); ok {
		return b
	}
	if p.HasOriginal() {
		return models.Span{From: *p.OriginalFrom, To: models.CopyDate(p.OriginalTo)}
	}
	return models.Span{From: r.EffectiveDate}
}

func (r Reconciler) candidate(p *models.Period, cutoff *time.Time) (models.Span, bool) {
	span := r.basis(p)
	if span.From.Before(r.EffectiveDate) && (span.To == nil || !span.To.Before(r.EffectiveDate)) {
		span.From = r.EffectiveDate
	}
	if cutoff == nil {
		return span, true
	}
	if !span.From.Before(*cutoff) {
		return models.Span{}, false
	}
	if span.To == nil && r.OpenHorizon != nil && cutoff.After(*r.OpenHorizon) {
		return span, true
	}
	if span.To == nil || !span.To.Before(*cutoff) {
		span.To = models.DatePtr(models.DayBefore(*cutoff))
	}
	return span, true
}

func setBounds(p *models.Period, span models.Span) {
	from := span.From
	p.From = &from
	p.To = models.CopyDate(span.To)
	p.Active, p.Suspended = true, false
	p.Applied = &models.Span{From: from, To: models.CopyDate(span.To)}
}

func sameBounds(p *models.Period, span models.Span) bool {
	return p.From != nil && p.From.Equal(span.From) && models.SameDate(p.To, span.To)
}

// narrows reports whether span lies within the period's current bounds.
func narrows(p *models.Period, span models.Span) bool {
	if p.From == nil || span.From.Before(*p.From) {
		return false
	}
	if span.To == nil {
		return p.To == nil
	}
	return p.To == nil || !span.To.After(*p.To)
}

// sortGroup orders active records by start; inactive rows keep their relative
// order after them.
func sortGroup[R models.Record](group []R) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := group[i].Timeline(), group[j].Timeline()
		if a.Active != b.Active {
			return a.Active
		}
		if !a.Active {
			return false
		}
		return a.From.Before(*b.From)
	})
}

// CheckGroup verifies the ordering invariants of a reconciled group: active
// records are sorted by start, do not overlap, end no earlier than they start,
// and only the last one may be open-ended.
func CheckGroup[R models.Record](group []R) error {
	var prev *models.Period
	for _, rec := range group {
		p := rec.Timeline()
		if !p.Active {
			continue
		}
		if err := p.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, describe(rec, "invalid bounds"))
		}
		if prev != nil {
			if prev.To == nil {
				return dErrors.New(dErrors.CodeInvariantViolation, describe(rec, "record follows an open-ended record"))
			}
			if !prev.To.Before(*p.From) {
				return dErrors.New(dErrors.CodeInvariantViolation, describe(rec, "records overlap"))
			}
		}
		prev = p
	}
	return nil
}

func describe(rec models.Record, problem string) string {
	p := rec.Timeline()
	k := rec.GroupKey()
	return fmt.Sprintf("%s in %s group %s: [%s, %s]", problem, k.Family, k.Subject, models.FormatDate(p.From), models.FormatDate(p.To))
}
