package models

import (
	"time"

	dErrors "bidrag/pkg/domain-errors"
)

// Span is a closed day interval; a nil To is open-ended.
type Span struct {
	From time.Time  `json:"from"`
	To   *time.Time `json:"to,omitempty"`
}

// Period is the temporal part shared by every record family.
//
// Invariants:
//   - From <= To whenever both are set
//   - From is nil only while the record is inactive
//   - OriginalFrom/OriginalTo are the source bounds recorded at creation and
//     are never mutated afterwards; OriginalFrom == nil means the record was
//     entered manually without source bounds
//   - Baseline is the record's bounds before cessation handling first changed
//     it; it is the restore basis, and only an edit made outside cessation
//     handling replaces it (see RefreshBaseline)
//   - Applied is nil or the bounds cessation handling last wrote to the record
//
// Suspended marks a record that cessation handling disabled. Only suspended
// records are re-activated when a cessation date moves later; records that
// were inactive for any other reason are left alone.
type Period struct {
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	OriginalFrom *time.Time `json:"original_from,omitempty"`
	OriginalTo   *time.Time `json:"original_to,omitempty"`
	Active       bool       `json:"active"`
	Suspended    bool       `json:"suspended,omitempty"`
	Baseline     *Span      `json:"baseline,omitempty"`
	Applied      *Span      `json:"applied,omitempty"`
}

// NewPeriod builds an active period whose source bounds equal its effective
// bounds, which is how basis-data ingestion creates records.
func NewPeriod(from time.Time, to *time.Time) (Period, error) {
	p := Period{
		From:         DatePtr(from),
		To:           dateOrNil(to),
		OriginalFrom: DatePtr(from),
		OriginalTo:   dateOrNil(to),
		Active:       true,
	}
	return p, p.Validate()
}

// NewManualPeriod builds an active period without source bounds.
func NewManualPeriod(from time.Time, to *time.Time) (Period, error) {
	p := Period{
		From:   DatePtr(from),
		To:     dateOrNil(to),
		Active: true,
	}
	return p, p.Validate()
}

// Validate checks the per-record invariants.
func (p *Period) Validate() error {
	if p.Active && p.From == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "active period must have a start date")
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return dErrors.New(dErrors.CodeInvariantViolation, "period end must not be before its start")
	}
	if p.OriginalFrom != nil && p.OriginalTo != nil && p.OriginalTo.Before(*p.OriginalFrom) {
		return dErrors.New(dErrors.CodeInvariantViolation, "original period end must not be before its start")
	}
	return nil
}

// HasOriginal reports whether source bounds were recorded at creation.
func (p *Period) HasOriginal() bool {
	return p.OriginalFrom != nil
}

// IsOpen reports whether the period is active and has no end.
func (p *Period) IsOpen() bool {
	return p.Active && p.From != nil && p.To == nil
}

// Covers reports whether day lies within the active period.
func (p *Period) Covers(day time.Time) bool {
	if !p.Active || p.From == nil || day.Before(*p.From) {
		return false
	}
	return p.To == nil || !day.After(*p.To)
}

// Bounds returns the current effective bounds, or false for a cleared period.
func (p *Period) Bounds() (Span, bool) {
	if p.From == nil {
		return Span{}, false
	}
	return Span{From: *p.From, To: CopyDate(p.To)}, true
}

// CaptureBaseline records the current bounds as the restore basis. It is a
// no-op once a basis exists.
func (p *Period) CaptureBaseline() {
	if p.Baseline != nil {
		return
	}
	if b, ok := p.Bounds(); ok {
		p.Baseline = &b
	}
}

// RefreshBaseline folds edits made outside cessation handling into the
// restore basis. A bound of an active record that no longer matches what
// cessation handling last wrote replaces the same bound of the baseline.
func (p *Period) RefreshBaseline() {
	if !p.Active || p.Baseline == nil || p.Applied == nil {
		return
	}
	cur, ok := p.Bounds()
	if !ok {
		return
	}
	fromEdited := !cur.From.Equal(p.Applied.From)
	toEdited := !SameDate(cur.To, p.Applied.To)
	if !fromEdited && !toEdited {
		return
	}
	base := Span{From: p.Baseline.From, To: CopyDate(p.Baseline.To)}
	if fromEdited {
		base.From = cur.From
	}
	if toEdited {
		base.To = CopyDate(cur.To)
	}
	p.Baseline = &base
	p.Applied = nil
}

// Clone returns a deep copy.
func (p Period) Clone() Period {
	c := Period{
		From:         CopyDate(p.From),
		To:           CopyDate(p.To),
		OriginalFrom: CopyDate(p.OriginalFrom),
		OriginalTo:   CopyDate(p.OriginalTo),
		Active:       p.Active,
		Suspended:    p.Suspended,
	}
	c.Baseline = p.Baseline.clone()
	c.Applied = p.Applied.clone()
	return c
}

func (s *Span) clone() *Span {
	if s == nil {
		return nil
	}
	return &Span{From: s.From, To: CopyDate(s.To)}
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return DatePtr(*t)
}
