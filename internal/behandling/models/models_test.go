package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
)

func TestPeriod_Invariants(t *testing.T) {
	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := NewPeriod(Day(2024, 5, 1), DatePtr(Day(2024, 4, 30)))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("single-day period is valid", func(t *testing.T) {
		p, err := NewPeriod(Day(2024, 5, 1), DatePtr(Day(2024, 5, 1)))
		require.NoError(t, err)
		assert.True(t, p.Covers(Day(2024, 5, 1)))
		assert.False(t, p.Covers(Day(2024, 5, 2)))
	})

	t.Run("ingested period records source bounds", func(t *testing.T) {
		p, err := NewPeriod(Day(2023, 5, 1), nil)
		require.NoError(t, err)
		assert.True(t, p.HasOriginal())
		assert.True(t, p.IsOpen())
		assert.Nil(t, p.OriginalTo)
	})

	t.Run("manual period has no source bounds", func(t *testing.T) {
		p, err := NewManualPeriod(Day(2023, 5, 1), nil)
		require.NoError(t, err)
		assert.False(t, p.HasOriginal())
	})

	t.Run("active period without start is rejected", func(t *testing.T) {
		p := Period{Active: true}
		assert.Error(t, p.Validate())
	})

	t.Run("clock time is dropped", func(t *testing.T) {
		p, err := NewPeriod(time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC), nil)
		require.NoError(t, err)
		assert.Equal(t, Day(2024, 1, 1), *p.From)
	})
}

func TestPeriod_CaptureBaseline(t *testing.T) {
	t.Run("captured once for manual periods", func(t *testing.T) {
		p, _ := NewManualPeriod(Day(2023, 1, 1), nil)
		p.CaptureBaseline()
		p.To = DatePtr(Day(2023, 6, 30))
		p.CaptureBaseline()

		require.NotNil(t, p.Baseline)
		assert.Equal(t, Day(2023, 1, 1), p.Baseline.From)
		assert.Nil(t, p.Baseline.To)
	})

	t.Run("captures current bounds rather than source bounds", func(t *testing.T) {
		p, _ := NewPeriod(Day(2023, 1, 1), nil)
		p.From = DatePtr(Day(2023, 6, 1))
		p.CaptureBaseline()

		require.NotNil(t, p.Baseline)
		assert.Equal(t, Day(2023, 6, 1), p.Baseline.From)
		assert.Equal(t, Day(2023, 1, 1), *p.OriginalFrom)
	})
}

func TestPeriod_RefreshBaseline(t *testing.T) {
	truncated := func() Period {
		p, _ := NewPeriod(Day(2023, 1, 1), DatePtr(Day(2024, 10, 31)))
		p.CaptureBaseline()
		p.To = DatePtr(Day(2024, 6, 30))
		p.Applied = &Span{From: Day(2023, 1, 1), To: DatePtr(Day(2024, 6, 30))}
		return p
	}

	t.Run("unchanged bounds keep the baseline", func(t *testing.T) {
		p := truncated()
		p.RefreshBaseline()

		require.NotNil(t, p.Applied)
		assert.Equal(t, "2024-10-31", FormatDate(p.Baseline.To))
	})

	t.Run("edited start replaces only the baseline start", func(t *testing.T) {
		p := truncated()
		p.From = DatePtr(Day(2023, 3, 1))
		p.RefreshBaseline()

		assert.Nil(t, p.Applied)
		assert.Equal(t, Day(2023, 3, 1), p.Baseline.From)
		assert.Equal(t, "2024-10-31", FormatDate(p.Baseline.To))
	})

	t.Run("edited end replaces the baseline end", func(t *testing.T) {
		p := truncated()
		p.To = nil
		p.RefreshBaseline()

		assert.Equal(t, Day(2023, 1, 1), p.Baseline.From)
		assert.Nil(t, p.Baseline.To)
	})

	t.Run("inactive periods are left alone", func(t *testing.T) {
		p := truncated()
		p.Active = false
		p.To = nil
		p.RefreshBaseline()

		assert.Equal(t, "2024-10-31", FormatDate(p.Baseline.To))
	})
}

func TestDayBefore(t *testing.T) {
	assert.Equal(t, Day(2023, 12, 31), DayBefore(Day(2024, 1, 1)))
	assert.Equal(t, Day(2024, 2, 29), DayBefore(Day(2024, 3, 1)))
}

func TestNewCase_Invariants(t *testing.T) {
	now := time.Now()
	child := &Child{ID: id.NewRoleID(), BirthDate: Day(2015, 3, 1)}

	t.Run("requires at least one child", func(t *testing.T) {
		_, err := NewCase(id.NewCaseID(), Day(2023, 1, 1), nil, nil, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("requires effective date", func(t *testing.T) {
		_, err := NewCase(id.NewCaseID(), time.Time{}, nil, []*Child{child}, now)
		require.Error(t, err)
	})

	t.Run("rejects duplicate children", func(t *testing.T) {
		_, err := NewCase(id.NewCaseID(), Day(2023, 1, 1), nil, []*Child{child, child}, now)
		require.Error(t, err)
	})

	t.Run("finds roles", func(t *testing.T) {
		bm := Party{ID: id.NewRoleID(), Role: RoleRecipient}
		c, err := NewCase(id.NewCaseID(), Day(2023, 1, 1), []Party{bm}, []*Child{child}, now)
		require.NoError(t, err)

		found, ok := c.Child(child.ID)
		require.True(t, ok)
		assert.Same(t, child, found)

		party, ok := c.Party(RoleRecipient)
		require.True(t, ok)
		assert.Equal(t, bm.ID, party.ID)

		_, ok = c.Party(RoleLiable)
		assert.False(t, ok)
	})
}

func TestCase_CloneIsIndependent(t *testing.T) {
	child := &Child{ID: id.NewRoleID()}
	c, err := NewCase(id.NewCaseID(), Day(2023, 1, 1), nil, []*Child{child}, time.Now())
	require.NoError(t, err)

	p, _ := NewPeriod(Day(2023, 1, 1), nil)
	inc, err := NewIncome(id.NewRoleID(), &child.ID, IncomeChildSupplement, decimal.NewFromInt(1200), p)
	require.NoError(t, err)
	inc.CaptureBaseline()
	inc.Applied = &Span{From: Day(2023, 1, 1)}
	c.Incomes = append(c.Incomes, inc)
	cp, _ := NewPeriod(Day(2023, 1, 1), nil)
	contact, _ := NewContactPeriod(child.ID, ContactClass2, cp)
	c.Removed.Contact = append(c.Removed.Contact, contact)

	clone := c.Clone()
	clone.Children[0].CessationDate = DatePtr(Day(2024, 1, 1))
	clone.Incomes[0].To = DatePtr(Day(2023, 12, 31))
	*clone.Incomes[0].TaggedChild = id.NewRoleID()
	clone.Removed.Contact[0].From = DatePtr(Day(2023, 6, 1))
	clone.Incomes[0].Baseline.To = DatePtr(Day(2023, 12, 31))
	clone.Incomes[0].Applied.To = DatePtr(Day(2023, 12, 31))

	assert.Nil(t, c.Children[0].CessationDate)
	assert.Nil(t, c.Incomes[0].Baseline.To)
	assert.Nil(t, c.Incomes[0].Applied.To)
	assert.Nil(t, c.Incomes[0].To)
	assert.Equal(t, child.ID, *c.Incomes[0].TaggedChild)
	assert.Equal(t, Day(2023, 1, 1), *c.Removed.Contact[0].From)
}

func TestGroupKeys(t *testing.T) {
	party := id.NewRoleID()
	child := id.NewRoleID()
	p, _ := NewPeriod(Day(2023, 1, 1), nil)

	general, _ := NewIncome(party, nil, IncomeAInntekt, decimal.NewFromInt(500000), p)
	tagged, _ := NewIncome(party, &child, IncomeChildSupplement, decimal.NewFromInt(12000), p)

	assert.False(t, general.IsChildTagged())
	assert.True(t, tagged.IsChildTagged())
	assert.NotEqual(t, general.GroupKey(), tagged.GroupKey())
	assert.Equal(t, child, tagged.GroupKey().TaggedChild)

	var records []Record = []Record{general, tagged}
	for _, r := range records {
		assert.Equal(t, FamilyIncome, r.Family())
	}
}
