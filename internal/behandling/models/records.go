package models

import (
	"github.com/shopspring/decimal"

	id "bidrag/pkg/domain"
)

// Family identifies one of the date-ranged record families attached to a
// behandling. The set is closed: every switch over Family must be exhaustive
// and treat an unknown value as a programming error.
type Family string

const (
	FamilyIncome       Family = "inntekt"
	FamilyCustody      Family = "bostatus"
	FamilyContact      Family = "samvaer"
	FamilyDailyRate    Family = "stonad_til_barnetilsyn"
	FamilyCareCategory Family = "tilsynstype"
	FamilyActualCost   Family = "faktisk_tilsynsutgift"
)

// Families lists every family in a fixed order.
func Families() []Family {
	return []Family{
		FamilyIncome,
		FamilyCustody,
		FamilyContact,
		FamilyDailyRate,
		FamilyCareCategory,
		FamilyActualCost,
	}
}

// GroupKey identifies a logical group of records that must be time-ordered and
// non-overlapping. TaggedChild is the zero RoleID when the record names no
// child; Kind further splits a family (income type).
type GroupKey struct {
	Family      Family
	Subject     id.RoleID
	TaggedChild id.RoleID
	Kind        string
}

// Record is implemented by exactly the family types in this file.
type Record interface {
	Family() Family
	GroupKey() GroupKey
	Timeline() *Period
	sealed()
}

// IncomeType is the income kind (inntektstype).
type IncomeType string

const (
	IncomeAInntekt          IncomeType = "AINNTEKT"
	IncomeCapital           IncomeType = "KAPITALINNTEKT"
	IncomeChildSupplement   IncomeType = "BARNETILLEGG"
	IncomeCashBenefit       IncomeType = "KONTANTSTOTTE"
	IncomeExtendedBenefit   IncomeType = "UTVIDET_BARNETRYGD"
	IncomeToddlerSupplement IncomeType = "SMABARNSTILLEGG"
)

// Income is an income period for a party. TaggedChild is set for income that
// is paid on behalf of a specific child (barnetillegg, kontantstøtte).
type Income struct {
	ID          id.RecordID     `json:"id"`
	Subject     id.RoleID       `json:"subject"`
	TaggedChild *id.RoleID      `json:"tagged_child,omitempty"`
	Type        IncomeType      `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Period
}

func NewIncome(subject id.RoleID, taggedChild *id.RoleID, incomeType IncomeType, amount decimal.Decimal, period Period) (*Income, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &Income{
		ID:          id.NewRecordID(),
		Subject:     subject,
		TaggedChild: taggedChild,
		Type:        incomeType,
		Amount:      amount,
		Period:      period,
	}, nil
}

func (r *Income) Family() Family     { return FamilyIncome }
func (r *Income) Timeline() *Period  { return &r.Period }
func (r *Income) sealed()            {}
func (r *Income) GroupKey() GroupKey {
	k := GroupKey{Family: FamilyIncome, Subject: r.Subject, Kind: string(r.Type)}
	if r.TaggedChild != nil {
		k.TaggedChild = *r.TaggedChild
	}
	return k
}

// IsChildTagged reports whether the income names a specific child.
func (r *Income) IsChildTagged() bool {
	return r.TaggedChild != nil && !r.TaggedChild.IsNil()
}

func (r *Income) clone() *Income {
	c := *r
	c.TaggedChild = nil
	if r.TaggedChild != nil {
		tc := *r.TaggedChild
		c.TaggedChild = &tc
	}
	c.Period = r.Period.Clone()
	return &c
}

// CustodyStatus is the household status (bostatus) of a member.
type CustodyStatus string

const (
	CustodyWithParent    CustodyStatus = "MED_FORELDER"
	CustodyNotWithParent CustodyStatus = "IKKE_MED_FORELDER"
	CustodyShared        CustodyStatus = "DELT_BOSTED"
	CustodyAdultInHome   CustodyStatus = "BOR_MED_ANDRE_VOKSNE"
)

// CustodyPeriod is a household-membership period (bostatusperiode) for one
// household member.
type CustodyPeriod struct {
	ID     id.RecordID   `json:"id"`
	Member id.RoleID     `json:"member"`
	Status CustodyStatus `json:"status"`
	Period
}

func NewCustodyPeriod(member id.RoleID, status CustodyStatus, period Period) (*CustodyPeriod, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &CustodyPeriod{ID: id.NewRecordID(), Member: member, Status: status, Period: period}, nil
}

func (r *CustodyPeriod) Family() Family     { return FamilyCustody }
func (r *CustodyPeriod) Timeline() *Period  { return &r.Period }
func (r *CustodyPeriod) sealed()            {}
func (r *CustodyPeriod) GroupKey() GroupKey { return GroupKey{Family: FamilyCustody, Subject: r.Member} }

func (r *CustodyPeriod) clone() *CustodyPeriod {
	c := *r
	c.Period = r.Period.Clone()
	return &c
}

// ContactClass is the contact-time class (samværsklasse).
type ContactClass string

const (
	ContactClass0      ContactClass = "SAMVAERSKLASSE_0"
	ContactClass1      ContactClass = "SAMVAERSKLASSE_1"
	ContactClass2      ContactClass = "SAMVAERSKLASSE_2"
	ContactClass3      ContactClass = "SAMVAERSKLASSE_3"
	ContactClass4      ContactClass = "SAMVAERSKLASSE_4"
	ContactClassShared ContactClass = "DELT_BOSTED"
)

// ContactPeriod is a contact-time period (samværsperiode) for one child.
type ContactPeriod struct {
	ID    id.RecordID  `json:"id"`
	Child id.RoleID    `json:"child"`
	Class ContactClass `json:"class"`
	Period
}

func NewContactPeriod(child id.RoleID, class ContactClass, period Period) (*ContactPeriod, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &ContactPeriod{ID: id.NewRecordID(), Child: child, Class: class, Period: period}, nil
}

func (r *ContactPeriod) Family() Family     { return FamilyContact }
func (r *ContactPeriod) Timeline() *Period  { return &r.Period }
func (r *ContactPeriod) sealed()            {}
func (r *ContactPeriod) GroupKey() GroupKey { return GroupKey{Family: FamilyContact, Subject: r.Child} }

func (r *ContactPeriod) clone() *ContactPeriod {
	c := *r
	c.Period = r.Period.Clone()
	return &c
}

// CareScope is the extent of paid child care.
type CareScope string

const (
	CareFullTime CareScope = "HELTID"
	CarePartTime CareScope = "DELTID"
)

// DailyRateAllowance is the child-care allowance (stønad til barnetilsyn)
// part of the maintenance cost for one child.
type DailyRateAllowance struct {
	ID        id.RecordID     `json:"id"`
	Child     id.RoleID       `json:"child"`
	Scope     CareScope       `json:"scope"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Period
}

func NewDailyRateAllowance(child id.RoleID, scope CareScope, rate decimal.Decimal, period Period) (*DailyRateAllowance, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &DailyRateAllowance{ID: id.NewRecordID(), Child: child, Scope: scope, DailyRate: rate, Period: period}, nil
}

func (r *DailyRateAllowance) Family() Family    { return FamilyDailyRate }
func (r *DailyRateAllowance) Timeline() *Period { return &r.Period }
func (r *DailyRateAllowance) sealed()           {}
func (r *DailyRateAllowance) GroupKey() GroupKey {
	return GroupKey{Family: FamilyDailyRate, Subject: r.Child}
}

func (r *DailyRateAllowance) clone() *DailyRateAllowance {
	c := *r
	c.Period = r.Period.Clone()
	return &c
}

// CareProvider tells who provides child care.
type CareProvider string

const (
	CarePublic  CareProvider = "OFFENTLIG"
	CarePrivate CareProvider = "PRIVAT"
)

// CareCategory is the care-category record (tilsynstype) of the maintenance
// cost for one child.
type CareCategory struct {
	ID        id.RecordID  `json:"id"`
	Child     id.RoleID    `json:"child"`
	Provider  CareProvider `json:"provider"`
	SchoolAge bool         `json:"school_age"`
	Period
}

func NewCareCategory(child id.RoleID, provider CareProvider, schoolAge bool, period Period) (*CareCategory, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &CareCategory{ID: id.NewRecordID(), Child: child, Provider: provider, SchoolAge: schoolAge, Period: period}, nil
}

func (r *CareCategory) Family() Family     { return FamilyCareCategory }
func (r *CareCategory) Timeline() *Period  { return &r.Period }
func (r *CareCategory) sealed()            {}
func (r *CareCategory) GroupKey() GroupKey { return GroupKey{Family: FamilyCareCategory, Subject: r.Child} }

func (r *CareCategory) clone() *CareCategory {
	c := *r
	c.Period = r.Period.Clone()
	return &c
}

// ActualCost is the actual child-care cost reimbursement (faktisk
// tilsynsutgift) of the maintenance cost for one child.
type ActualCost struct {
	ID            id.RecordID     `json:"id"`
	Child         id.RoleID       `json:"child"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Comment       string          `json:"comment,omitempty"`
	Period
}

func NewActualCost(child id.RoleID, monthly decimal.Decimal, comment string, period Period) (*ActualCost, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &ActualCost{ID: id.NewRecordID(), Child: child, MonthlyAmount: monthly, Comment: comment, Period: period}, nil
}

func (r *ActualCost) Family() Family     { return FamilyActualCost }
func (r *ActualCost) Timeline() *Period  { return &r.Period }
func (r *ActualCost) sealed()            {}
func (r *ActualCost) GroupKey() GroupKey { return GroupKey{Family: FamilyActualCost, Subject: r.Child} }

func (r *ActualCost) clone() *ActualCost {
	c := *r
	c.Period = r.Period.Clone()
	return &c
}
