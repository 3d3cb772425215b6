package handler

import (
	"time"

	"bidrag/internal/behandling/models"
)

// CaseResponse is the HTTP view of a behandling.
type CaseResponse struct {
	ID                 string              `json:"id"`
	Virkningstidspunkt string              `json:"virkningstidspunkt"`
	Opphorsdato        *string             `json:"opphorsdato"`
	Version            int64               `json:"version"`
	Barn               []ChildResponse     `json:"barn"`
	Inntekter          []IncomeResponse    `json:"inntekter"`
	Bostatus           []CustodyResponse   `json:"bostatus"`
	Samvaer            []ContactResponse   `json:"samvaer"`
	Underholdskostnad  MaintenanceResponse `json:"underholdskostnad"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ChildResponse struct {
	ID          string  `json:"id"`
	Ident       string  `json:"ident"`
	Opphorsdato *string `json:"opphorsdato"`
}

// PeriodResponse is the temporal part shared by all record views.
type PeriodResponse struct {
	From         *string `json:"from"`
	To           *string `json:"to"`
	OriginalFrom *string `json:"original_from,omitempty"`
	OriginalTo   *string `json:"original_to,omitempty"`
	Active       bool    `json:"active"`
	Suspended    bool    `json:"suspended,omitempty"`
}

type IncomeResponse struct {
	ID          string  `json:"id"`
	Subject     string  `json:"subject"`
	TaggedChild *string `json:"tagged_child,omitempty"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	PeriodResponse
}

type CustodyResponse struct {
	ID     string `json:"id"`
	Member string `json:"member"`
	Status string `json:"status"`
	PeriodResponse
}

type ContactResponse struct {
	ID    string `json:"id"`
	Child string `json:"child"`
	Class string `json:"class"`
	PeriodResponse
}

type MaintenanceResponse struct {
	StonadTilBarnetilsyn []DailyRateResponse    `json:"stonad_til_barnetilsyn"`
	Tilsynstype          []CareCategoryResponse `json:"tilsynstype"`
	FaktiskeUtgifter     []ActualCostResponse   `json:"faktiske_tilsynsutgifter"`
}

type DailyRateResponse struct {
	ID        string `json:"id"`
	Child     string `json:"child"`
	Scope     string `json:"scope"`
	DailyRate string `json:"daily_rate"`
	PeriodResponse
}

type CareCategoryResponse struct {
	ID        string `json:"id"`
	Child     string `json:"child"`
	Provider  string `json:"provider"`
	SchoolAge bool   `json:"school_age"`
	PeriodResponse
}

type ActualCostResponse struct {
	ID            string `json:"id"`
	Child         string `json:"child"`
	MonthlyAmount string `json:"monthly_amount"`
	Comment       string `json:"comment,omitempty"`
	PeriodResponse
}

// FromCase converts a behandling to its HTTP view. Records removed by
// cessation handling are not part of the view.
func FromCase(c *models.Case) *CaseResponse {
	resp := &CaseResponse{
		ID:                 c.ID.String(),
		Virkningstidspunkt: c.EffectiveDate.Format(models.DateLayout),
		Opphorsdato:        formatDate(c.CessationDate),
		Version:            c.Version,
		Barn:               make([]ChildResponse, 0, len(c.Children)),
		Inntekter:          make([]IncomeResponse, 0, len(c.Incomes)),
		Bostatus:           make([]CustodyResponse, 0, len(c.Custody)),
		Samvaer:            make([]ContactResponse, 0, len(c.Contact)),
		Underholdskostnad: MaintenanceResponse{
			StonadTilBarnetilsyn: make([]DailyRateResponse, 0, len(c.DailyRates)),
			Tilsynstype:          make([]CareCategoryResponse, 0, len(c.CareCategories)),
			FaktiskeUtgifter:     make([]ActualCostResponse, 0, len(c.ActualCosts)),
		},
		UpdatedAt: c.UpdatedAt,
	}
	for _, ch := range c.Children {
		resp.Barn = append(resp.Barn, ChildResponse{ID: ch.ID.String(), Ident: ch.Ident, Opphorsdato: formatDate(ch.CessationDate)})
	}
	for _, r := range c.Incomes {
		v := IncomeResponse{ID: r.ID.String(), Subject: r.Subject.String(), Type: string(r.Type), Amount: r.Amount.String(), PeriodResponse: fromPeriod(r.Period)}
		if r.IsChildTagged() {
			tagged := r.TaggedChild.String()
			v.TaggedChild = &tagged
		}
		resp.Inntekter = append(resp.Inntekter, v)
	}
	for _, r := range c.Custody {
		resp.Bostatus = append(resp.Bostatus, CustodyResponse{ID: r.ID.String(), Member: r.Member.String(), Status: string(r.Status), PeriodResponse: fromPeriod(r.Period)})
	}
	for _, r := range c.Contact {
		resp.Samvaer = append(resp.Samvaer, ContactResponse{ID: r.ID.String(), Child: r.Child.String(), Class: string(r.Class), PeriodResponse: fromPeriod(r.Period)})
	}
	m := &resp.Underholdskostnad
	for _, r := range c.DailyRates {
		m.StonadTilBarnetilsyn = append(m.StonadTilBarnetilsyn, DailyRateResponse{ID: r.ID.String(), Child: r.Child.String(), Scope: string(r.Scope), DailyRate: r.DailyRate.String(), PeriodResponse: fromPeriod(r.Period)})
	}
	for _, r := range c.CareCategories {
		m.Tilsynstype = append(m.Tilsynstype, CareCategoryResponse{ID: r.ID.String(), Child: r.Child.String(), Provider: string(r.Provider), SchoolAge: r.SchoolAge, PeriodResponse: fromPeriod(r.Period)})
	}
	for _, r := range c.ActualCosts {
		m.FaktiskeUtgifter = append(m.FaktiskeUtgifter, ActualCostResponse{ID: r.ID.String(), Child: r.Child.String(), MonthlyAmount: r.MonthlyAmount.String(), Comment: r.Comment, PeriodResponse: fromPeriod(r.Period)})
	}
	return resp
}

func fromPeriod(p models.Period) PeriodResponse {
	return PeriodResponse{
		From:         formatDate(p.From),
		To:           formatDate(p.To),
		OriginalFrom: formatDate(p.OriginalFrom),
		OriginalTo:   formatDate(p.OriginalTo),
		Active:       p.Active,
		Suspended:    p.Suspended,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}
