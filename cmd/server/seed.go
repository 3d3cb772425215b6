package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
)

// seedDemoCase stores a two-child behandling with records in every family,
// for local runs against the HTTP API.
func seedDemoCase(ctx context.Context, s caseStore) (id.CaseID, error) {
	c, err := demoCase(time.Now().UTC())
	if err != nil {
		return id.CaseID{}, err
	}
	if err := s.Create(ctx, c); err != nil {
		return id.CaseID{}, err
	}
	return c.ID, nil
}

func demoCase(now time.Time) (*models.Case, error) {
	effective := models.Day(2023, time.January, 1)
	recipient := models.Party{ID: id.NewRoleID(), Ident: "01018012345", Role: models.RoleRecipient}
	liable := models.Party{ID: id.NewRoleID(), Ident: "02027812345", Role: models.RoleLiable}
	older := &models.Child{ID: id.NewRoleID(), Ident: "15011012345", BirthDate: models.Day(2010, time.January, 15)}
	younger := &models.Child{ID: id.NewRoleID(), Ident: "20061512345", BirthDate: models.Day(2015, time.June, 20)}

	c, err := models.NewCase(id.NewCaseID(), effective, []models.Party{recipient, liable}, []*models.Child{older, younger}, now)
	if err != nil {
		return nil, err
	}
	open, err := models.NewPeriod(effective, nil)
	if err != nil {
		return nil, err
	}

	tagged := older.ID
	c.Incomes = []*models.Income{
		{ID: id.NewRecordID(), Subject: recipient.ID, Type: models.IncomeAInntekt, Amount: decimal.NewFromInt(420000), Period: open.Clone()},
		{ID: id.NewRecordID(), Subject: liable.ID, Type: models.IncomeAInntekt, Amount: decimal.NewFromInt(610000), Period: open.Clone()},
		{ID: id.NewRecordID(), Subject: recipient.ID, TaggedChild: &tagged, Type: models.IncomeChildSupplement, Amount: decimal.NewFromInt(18000), Period: open.Clone()},
	}
	c.Custody = []*models.CustodyPeriod{
		{ID: id.NewRecordID(), Member: older.ID, Status: models.CustodyWithParent, Period: open.Clone()},
		{ID: id.NewRecordID(), Member: younger.ID, Status: models.CustodyWithParent, Period: open.Clone()},
	}
	c.Contact = []*models.ContactPeriod{
		{ID: id.NewRecordID(), Child: older.ID, Class: models.ContactClass2, Period: open.Clone()},
		{ID: id.NewRecordID(), Child: younger.ID, Class: models.ContactClass1, Period: open.Clone()},
	}
	c.DailyRates = []*models.DailyRateAllowance{
		{ID: id.NewRecordID(), Child: younger.ID, Scope: models.CareFullTime, DailyRate: decimal.RequireFromString("95.50"), Period: open.Clone()},
	}
	c.CareCategories = []*models.CareCategory{
		{ID: id.NewRecordID(), Child: younger.ID, Provider: models.CarePublic, Period: open.Clone()},
	}
	c.ActualCosts = []*models.ActualCost{
		{ID: id.NewRecordID(), Child: younger.ID, MonthlyAmount: decimal.NewFromInt(3500), Comment: "SFO", Period: open.Clone()},
	}
	return c, nil
}
