package models

import (
	"time"

	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
)

// PartyRole is the role a party holds in a behandling.
type PartyRole string

const (
	RoleRecipient PartyRole = "BIDRAGSMOTTAKER"
	RoleLiable    PartyRole = "BIDRAGSPLIKTIG"
)

// Party is a parent in the behandling. Party roles anchor the records that
// are not tagged with a child.
type Party struct {
	ID    id.RoleID `json:"id"`
	Ident string    `json:"ident"`
	Role  PartyRole `json:"role"`
}

// Child is a subject child (søknadsbarn). CessationDate is the first day the
// child is no longer covered; it changes only on an explicit request and is
// never cleared implicitly.
type Child struct {
	ID            id.RoleID  `json:"id"`
	Ident         string     `json:"ident"`
	BirthDate     time.Time  `json:"birth_date"`
	CessationDate *time.Time `json:"cessation_date,omitempty"`
}

// Archive keeps delete-policy records that cessation handling removed. They
// are not part of the behandling's live record set; they are reinstated from
// here when a cessation date moves later or is cleared.
type Archive struct {
	Custody        []*CustodyPeriod      `json:"custody,omitempty"`
	Contact        []*ContactPeriod      `json:"contact,omitempty"`
	DailyRates     []*DailyRateAllowance `json:"daily_rates,omitempty"`
	CareCategories []*CareCategory       `json:"care_categories,omitempty"`
	ActualCosts    []*ActualCost         `json:"actual_costs,omitempty"`
}

// Case is the behandling aggregate root.
//
// Invariants:
//   - EffectiveDate (virkningstidspunkt) is set and is a calendar day
//   - at least one subject child
//   - CessationDate is derived: defined only when every child has a cessation
//     date, and then equal to the latest of them
//   - within one record group, active records are time-ordered and
//     non-overlapping with at most one open-ended record
//
// Loaded once per request, mutated only through the cessation engine, and
// handed back to the caller for persistence.
type Case struct {
	ID            id.CaseID  `json:"id"`
	EffectiveDate time.Time  `json:"effective_date"`
	Parties       []Party    `json:"parties"`
	Children      []*Child   `json:"children"`
	CessationDate *time.Time `json:"cessation_date,omitempty"`

	Incomes        []*Income             `json:"incomes,omitempty"`
	Custody        []*CustodyPeriod      `json:"custody,omitempty"`
	Contact        []*ContactPeriod      `json:"contact,omitempty"`
	DailyRates     []*DailyRateAllowance `json:"daily_rates,omitempty"`
	CareCategories []*CareCategory       `json:"care_categories,omitempty"`
	ActualCosts    []*ActualCost         `json:"actual_costs,omitempty"`

	Removed Archive `json:"removed"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCase constructs a behandling with its roles. Records are attached by the
// ingestion layer afterwards.
func NewCase(caseID id.CaseID, effectiveDate time.Time, parties []Party, children []*Child, now time.Time) (*Case, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "behandling ID cannot be nil")
	}
	if effectiveDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "virkningstidspunkt is required")
	}
	if len(children) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "behandling must have at least one søknadsbarn")
	}
	seen := make(map[id.RoleID]bool, len(children))
	for _, ch := range children {
		if ch == nil || ch.ID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "søknadsbarn must have an ID")
		}
		if seen[ch.ID] {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "søknadsbarn listed twice")
		}
		seen[ch.ID] = true
	}
	return &Case{
		ID:            caseID,
		EffectiveDate: DateOf(effectiveDate),
		Parties:       parties,
		Children:      children,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Child returns the subject child with the given ID.
func (c *Case) Child(childID id.RoleID) (*Child, bool) {
	for _, ch := range c.Children {
		if ch.ID == childID {
			return ch, true
		}
	}
	return nil, false
}

// Party returns the first party holding role.
func (c *Case) Party(role PartyRole) (Party, bool) {
	for _, p := range c.Parties {
		if p.Role == role {
			return p, true
		}
	}
	return Party{}, false
}

// Clone deep-copies the aggregate so a recomputation can be discarded
// without touching the loaded instance.
func (c *Case) Clone() *Case {
	out := *c
	out.CessationDate = CopyDate(c.CessationDate)
	out.Parties = append([]Party(nil), c.Parties...)
	out.Children = make([]*Child, len(c.Children))
	for i, ch := range c.Children {
		cc := *ch
		cc.CessationDate = CopyDate(ch.CessationDate)
		out.Children[i] = &cc
	}
	out.Incomes = cloneAll(c.Incomes, (*Income).clone)
	out.Custody = cloneAll(c.Custody, (*CustodyPeriod).clone)
	out.Contact = cloneAll(c.Contact, (*ContactPeriod).clone)
	out.DailyRates = cloneAll(c.DailyRates, (*DailyRateAllowance).clone)
	out.CareCategories = cloneAll(c.CareCategories, (*CareCategory).clone)
	out.ActualCosts = cloneAll(c.ActualCosts, (*ActualCost).clone)
	out.Removed = Archive{
		Custody:        cloneAll(c.Removed.Custody, (*CustodyPeriod).clone),
		Contact:        cloneAll(c.Removed.Contact, (*ContactPeriod).clone),
		DailyRates:     cloneAll(c.Removed.DailyRates, (*DailyRateAllowance).clone),
		CareCategories: cloneAll(c.Removed.CareCategories, (*CareCategory).clone),
		ActualCosts:    cloneAll(c.Removed.ActualCosts, (*ActualCost).clone),
	}
	return &out
}

func cloneAll[R any](in []*R, clone func(*R) *R) []*R {
	if in == nil {
		return nil
	}
	out := make([]*R, len(in))
	for i, r := range in {
		out[i] = clone(r)
	}
	return out
}
