package cessation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/requestcontext"
)

var effectiveDate = day(2023, 1, 1)

type EngineSuite struct {
	suite.Suite
	ctx    context.Context
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	s.engine = New()
}

// newCase builds a behandling with a recipient, a liable party and n children
// without cessation dates.
func (s *EngineSuite) newCase(n int) *models.Case {
	children := make([]*models.Child, n)
	for i := range children {
		children[i] = &models.Child{
			ID:        id.NewRoleID(),
			Ident:     fmt.Sprintf("1501201%d12345", i),
			BirthDate: day(2012+i, 1, 15),
		}
	}
	parties := []models.Party{
		{ID: id.NewRoleID(), Ident: "01018012345", Role: models.RoleRecipient},
		{ID: id.NewRoleID(), Ident: "02027812345", Role: models.RoleLiable},
	}
	c, err := models.NewCase(id.NewCaseID(), effectiveDate, parties, children, time.Now())
	s.Require().NoError(err)
	return c
}

func (s *EngineSuite) period(from time.Time, to *time.Time) models.Period {
	p, err := models.NewPeriod(from, to)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) addIncome(c *models.Case, subject id.RoleID, tagged *id.RoleID, t models.IncomeType, from time.Time, to *time.Time) *models.Income {
	rec, err := models.NewIncome(subject, tagged, t, decimal.NewFromInt(100000), s.period(from, to))
	s.Require().NoError(err)
	c.Incomes = append(c.Incomes, rec)
	return rec
}

func (s *EngineSuite) addCustody(c *models.Case, member id.RoleID, from time.Time, to *time.Time) *models.CustodyPeriod {
	rec, err := models.NewCustodyPeriod(member, models.CustodyWithParent, s.period(from, to))
	s.Require().NoError(err)
	c.Custody = append(c.Custody, rec)
	return rec
}

func (s *EngineSuite) addContact(c *models.Case, child id.RoleID, from time.Time, to *time.Time) *models.ContactPeriod {
	rec, err := models.NewContactPeriod(child, models.ContactClass2, s.period(from, to))
	s.Require().NoError(err)
	c.Contact = append(c.Contact, rec)
	return rec
}

func (s *EngineSuite) addMaintenance(c *models.Case, child id.RoleID, from time.Time, to *time.Time) {
	rate, err := models.NewDailyRateAllowance(child, models.CareFullTime, decimal.RequireFromString("152.50"), s.period(from, to))
	s.Require().NoError(err)
	category, err := models.NewCareCategory(child, models.CarePublic, false, s.period(from, to))
	s.Require().NoError(err)
	cost, err := models.NewActualCost(child, decimal.NewFromInt(3200), "SFO", s.period(from, to))
	s.Require().NoError(err)
	c.DailyRates = append(c.DailyRates, rate)
	c.CareCategories = append(c.CareCategories, category)
	c.ActualCosts = append(c.ActualCosts, cost)
}

// setDate is what the service does inside its transaction.
func (s *EngineSuite) setDate(c *models.Case, child *models.Child, d *time.Time) Outcome {
	child.CessationDate = models.CopyDate(d)
	out, err := s.engine.Apply(s.ctx, c)
	s.Require().NoError(err)
	return out
}

func (s *EngineSuite) assertSpan(p *models.Period, from time.Time, to *time.Time) {
	s.Require().True(p.Active, "record should be active")
	s.Require().NotNil(p.From)
	s.Equal(from, *p.From, "from")
	s.Equal(models.FormatDate(to), models.FormatDate(p.To), "to")
}

// snapshot renders every record, live and archived, keyed by ID.
func snapshot(c *models.Case) map[id.RecordID]string {
	out := map[id.RecordID]string{}
	render := func(where string, recID id.RecordID, r models.Record) {
		p := r.Timeline()
		out[recID] = fmt.Sprintf("%s %s [%s, %s] active=%t", where, r.Family(), models.FormatDate(p.From), models.FormatDate(p.To), p.Active)
	}
	for _, r := range c.Incomes {
		render("live", r.ID, r)
	}
	for _, r := range c.Custody {
		render("live", r.ID, r)
	}
	for _, r := range c.Contact {
		render("live", r.ID, r)
	}
	for _, r := range c.DailyRates {
		render("live", r.ID, r)
	}
	for _, r := range c.CareCategories {
		render("live", r.ID, r)
	}
	for _, r := range c.ActualCosts {
		render("live", r.ID, r)
	}
	for _, r := range c.Removed.Custody {
		render("removed", r.ID, r)
	}
	for _, r := range c.Removed.Contact {
		render("removed", r.ID, r)
	}
	for _, r := range c.Removed.DailyRates {
		render("removed", r.ID, r)
	}
	for _, r := range c.Removed.CareCategories {
		render("removed", r.ID, r)
	}
	for _, r := range c.Removed.ActualCosts {
		render("removed", r.ID, r)
	}
	return out
}

func (s *EngineSuite) TestScenarios() {
	s.Run("single child truncates open general income", func() {
		c := s.newCase(1)
		bm, _ := c.Party(models.RoleRecipient)
		inc := s.addIncome(c, bm.ID, nil, models.IncomeAInntekt, effectiveDate, nil)

		s.setDate(c, c.Children[0], on(2024, 1, 1))

		s.Require().NotNil(c.CessationDate)
		s.Equal(day(2024, 1, 1), *c.CessationDate)
		s.assertSpan(&inc.Period, effectiveDate, on(2023, 12, 31))
	})

	s.Run("two children resolve the case-wide date to the latest", func() {
		c := s.newCase(2)
		s.setDate(c, c.Children[0], on(2024, 1, 1))
		s.Nil(c.CessationDate, "case continues while a child lacks a date")

		out := s.setDate(c, c.Children[1], on(2025, 1, 1))
		s.Require().NotNil(c.CessationDate)
		s.Equal(day(2025, 1, 1), *c.CessationDate)
		s.Equal(models.FormatDate(c.CessationDate), models.FormatDate(out.CessationDate))
	})

	s.Run("general income after the case-wide cutoff is disabled", func() {
		c := s.newCase(1)
		bp, _ := c.Party(models.RoleLiable)
		inc := s.addIncome(c, bp.ID, nil, models.IncomeAInntekt, day(2024, 10, 1), on(2024, 12, 31))

		out := s.setDate(c, c.Children[0], on(2024, 7, 1))

		s.Require().Len(c.Incomes, 1)
		s.False(inc.Active)
		s.Nil(inc.From)
		s.Nil(inc.To)
		s.Equal(1, out.Families[models.FamilyIncome].Removed)
	})

	s.Run("child-tagged income follows its own child", func() {
		c := s.newCase(2)
		bm, _ := c.Party(models.RoleRecipient)
		childA := c.Children[0]
		tagged := s.addIncome(c, bm.ID, &childA.ID, models.IncomeChildSupplement, day(2023, 5, 1), on(2024, 2, 29))
		general := s.addIncome(c, bm.ID, nil, models.IncomeAInntekt, effectiveDate, nil)

		s.setDate(c, childA, on(2024, 1, 1))

		s.assertSpan(&tagged.Period, day(2023, 5, 1), on(2023, 12, 31))
		s.assertSpan(&general.Period, effectiveDate, nil)
	})

	s.Run("custody period spanning the cutoff survives and later ones are deleted", func() {
		c := s.newCase(1)
		child := c.Children[0]
		first := s.addCustody(c, child.ID, effectiveDate, on(2024, 10, 31))
		second := s.addCustody(c, child.ID, day(2024, 11, 1), nil)

		s.setDate(c, child, on(2024, 7, 1))

		s.Equal([]*models.CustodyPeriod{first}, c.Custody)
		s.assertSpan(&first.Period, effectiveDate, on(2024, 6, 30))
		s.Equal([]*models.CustodyPeriod{second}, c.Removed.Custody)
	})

	s.Run("moving the cutoff past every period restores them", func() {
		c := s.newCase(1)
		child := c.Children[0]
		first := s.addCustody(c, child.ID, effectiveDate, on(2024, 10, 31))
		second := s.addCustody(c, child.ID, day(2024, 11, 1), nil)
		s.setDate(c, child, on(2024, 7, 1))

		out := s.setDate(c, child, on(2026, 1, 1))

		s.Empty(c.Removed.Custody)
		s.Equal([]*models.CustodyPeriod{first, second}, c.Custody)
		s.assertSpan(&first.Period, effectiveDate, on(2024, 10, 31))
		s.assertSpan(&second.Period, day(2024, 11, 1), on(2025, 12, 31))
		s.Equal(Stats{Restored: 2}, out.Families[models.FamilyCustody])

		s.setDate(c, child, nil)
		s.assertSpan(&second.Period, day(2024, 11, 1), nil)
	})

	s.Run("future cutoffs keep open periods open when configured", func() {
		s.engine = New(WithKeepFutureOpenEnds())
		defer func() { s.engine = New() }()

		c := s.newCase(1)
		child := c.Children[0]
		first := s.addCustody(c, child.ID, effectiveDate, on(2024, 10, 31))
		second := s.addCustody(c, child.ID, day(2024, 11, 1), nil)
		s.setDate(c, child, on(2023, 7, 1))
		s.Len(c.Removed.Custody, 1)

		s.setDate(c, child, on(2026, 1, 1))

		s.assertSpan(&first.Period, effectiveDate, on(2024, 10, 31))
		s.assertSpan(&second.Period, day(2024, 11, 1), nil)
	})

	s.Run("keeping future open ends leaves other families closing at the cutoff", func() {
		s.engine = New(WithKeepFutureOpenEnds())
		defer func() { s.engine = New() }()

		c := s.newCase(1)
		child := c.Children[0]
		bm, _ := c.Party(models.RoleRecipient)
		inc := s.addIncome(c, bm.ID, nil, models.IncomeAInntekt, effectiveDate, nil)
		contact := s.addContact(c, child.ID, effectiveDate, nil)
		custody := s.addCustody(c, child.ID, effectiveDate, nil)

		s.setDate(c, child, on(2026, 1, 1))

		s.assertSpan(&inc.Period, effectiveDate, on(2025, 12, 31))
		s.assertSpan(&contact.Period, effectiveDate, on(2025, 12, 31))
		s.assertSpan(&custody.Period, effectiveDate, nil)
	})

	s.Run("records adjusted after ingestion keep their live start", func() {
		c := s.newCase(1)
		c.EffectiveDate = day(2023, 6, 1)
		child := c.Children[0]
		bm, _ := c.Party(models.RoleRecipient)
		inc := s.addIncome(c, bm.ID, nil, models.IncomeAInntekt, day(2023, 1, 1), nil)
		inc.From = models.DatePtr(day(2023, 6, 1))
		contact := s.addContact(c, child.ID, day(2023, 6, 1), nil)
		contact.From, contact.To = models.DatePtr(day(2023, 8, 1)), on(2023, 9, 30)

		out := s.setDate(c, child, on(2024, 1, 1))

		s.assertSpan(&inc.Period, day(2023, 6, 1), on(2023, 12, 31))
		s.assertSpan(&contact.Period, day(2023, 8, 1), on(2023, 9, 30))
		s.Equal(Stats{Truncated: 1}, out.Families[models.FamilyIncome])
		s.Equal(Stats{}, out.Families[models.FamilyContact])

		s.setDate(c, child, nil)
		s.assertSpan(&inc.Period, day(2023, 6, 1), nil)
		s.assertSpan(&contact.Period, day(2023, 8, 1), on(2023, 9, 30))
	})
}

func (s *EngineSuite) TestProperties() {
	build := func() *models.Case {
		c := s.newCase(2)
		bm, _ := c.Party(models.RoleRecipient)
		bp, _ := c.Party(models.RoleLiable)
		for _, child := range c.Children {
			s.addIncome(c, bm.ID, &child.ID, models.IncomeChildSupplement, day(2023, 5, 1), on(2024, 2, 29))
			s.addCustody(c, child.ID, effectiveDate, on(2024, 10, 31))
			s.addCustody(c, child.ID, day(2024, 11, 1), nil)
			s.addContact(c, child.ID, effectiveDate, on(2023, 12, 31))
			s.addContact(c, child.ID, day(2024, 1, 1), nil)
			s.addMaintenance(c, child.ID, day(2023, 8, 1), nil)
		}
		s.addIncome(c, bp.ID, nil, models.IncomeAInntekt, effectiveDate, on(2023, 12, 31))
		s.addIncome(c, bp.ID, nil, models.IncomeAInntekt, day(2024, 1, 1), nil)
		s.addIncome(c, bm.ID, nil, models.IncomeCapital, day(2024, 10, 1), on(2024, 12, 31))
		return c
	}

	s.Run("idempotence", func() {
		c := build()
		s.setDate(c, c.Children[1], on(2024, 9, 1))
		s.setDate(c, c.Children[0], on(2024, 7, 1))
		once := snapshot(c)

		out := s.setDate(c, c.Children[0], on(2024, 7, 1))

		s.Equal(once, snapshot(c))
		s.False(out.Total().Changed())
	})

	s.Run("reversibility", func() {
		base := build()
		base.Children[1].CessationDate = on(2025, 6, 1)
		direct := base.Clone()
		roundTrip := base.Clone()

		s.setDate(direct, direct.Children[0], on(2024, 7, 1))

		s.setDate(roundTrip, roundTrip.Children[0], on(2024, 7, 1))
		s.setDate(roundTrip, roundTrip.Children[0], on(2023, 3, 1))
		s.setDate(roundTrip, roundTrip.Children[0], on(2026, 1, 1))
		s.setDate(roundTrip, roundTrip.Children[0], nil)
		s.setDate(roundTrip, roundTrip.Children[0], on(2024, 7, 1))

		s.Equal(snapshot(direct), snapshot(roundTrip))
	})

	s.Run("sibling isolation", func() {
		c := build()
		childA, childB := c.Children[0], c.Children[1]
		before := c.Clone()

		s.setDate(c, childA, on(2023, 6, 1))

		s.Equal(recordsOf(before, childB.ID), recordsOf(c, childB.ID))
		s.NotEqual(recordsOf(before, childA.ID), recordsOf(c, childA.ID))
	})

	s.Run("case-wide records wait for the last child", func() {
		c := build()
		s.setDate(c, c.Children[0], on(2024, 3, 1))
		for _, inc := range c.Incomes {
			if !inc.IsChildTagged() {
				s.True(inc.Active)
				s.True(models.SameDate(inc.To, inc.OriginalTo), "general income untouched")
			}
		}
		for _, cp := range c.Custody {
			s.True(models.SameDate(cp.To, cp.OriginalTo), "custody untouched")
		}
	})
}

// recordsOf renders the per-child records (contact and maintenance cost) of
// one child, live and archived.
func recordsOf(c *models.Case, child id.RoleID) []string {
	var out []string
	add := func(where string, r models.Record) {
		if r.GroupKey().Subject != child {
			return
		}
		p := r.Timeline()
		out = append(out, fmt.Sprintf("%s %s [%s, %s] %t", where, r.Family(), models.FormatDate(p.From), models.FormatDate(p.To), p.Active))
	}
	for _, r := range c.Contact {
		add("live", r)
	}
	for _, r := range c.DailyRates {
		add("live", r)
	}
	for _, r := range c.CareCategories {
		add("live", r)
	}
	for _, r := range c.ActualCosts {
		add("live", r)
	}
	for _, r := range c.Removed.Contact {
		add("removed", r)
	}
	for _, r := range c.Removed.DailyRates {
		add("removed", r)
	}
	for _, r := range c.Removed.CareCategories {
		add("removed", r)
	}
	for _, r := range c.Removed.ActualCosts {
		add("removed", r)
	}
	sort.Strings(out)
	return out
}

func (s *EngineSuite) TestCustodyScope() {
	build := func() (*models.Case, *models.CustodyPeriod, *models.CustodyPeriod) {
		c := s.newCase(2)
		bm, _ := c.Party(models.RoleRecipient)
		childCustody := s.addCustody(c, c.Children[0].ID, effectiveDate, nil)
		partyCustody := s.addCustody(c, bm.ID, effectiveDate, nil)
		c.Children[0].CessationDate = on(2024, 1, 1)
		return c, childCustody, partyCustody
	}

	s.Run("case scope waits for the case-wide date", func() {
		c, childCustody, partyCustody := build()
		_, err := New().Apply(s.ctx, c)
		s.Require().NoError(err)
		s.assertSpan(&childCustody.Period, effectiveDate, nil)
		s.assertSpan(&partyCustody.Period, effectiveDate, nil)
	})

	s.Run("member scope uses the child's own date", func() {
		c, childCustody, partyCustody := build()
		_, err := New(WithCustodyScope(CustodyScopeMember)).Apply(s.ctx, c)
		s.Require().NoError(err)
		s.assertSpan(&childCustody.Period, effectiveDate, on(2023, 12, 31))
		s.assertSpan(&partyCustody.Period, effectiveDate, nil)
	})

	s.Run("parse", func() {
		scope, err := ParseCustodyScope(" Member ")
		s.Require().NoError(err)
		s.Equal(CustodyScopeMember, scope)

		scope, err = ParseCustodyScope("")
		s.Require().NoError(err)
		s.Equal(CustodyScopeCase, scope)

		_, err = ParseCustodyScope("household")
		s.Error(err)
	})
}

func (s *EngineSuite) TestInvariantViolation() {
	c := s.newCase(1)
	child := c.Children[0]
	s.addContact(c, child.ID, effectiveDate, nil)
	s.addContact(c, child.ID, day(2023, 6, 1), nil)
	child.CessationDate = on(2024, 1, 1)

	_, err := s.engine.Apply(s.ctx, c)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

// stampedTracer hands out non-recording spans with a fixed span ID so a test
// can tell which context a callee received.
type stampedTracer struct {
	embedded.Tracer
	id trace.SpanID
}

func (t *stampedTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  t.id,
	})
	ctx = trace.ContextWithSpanContext(ctx, sc)
	return ctx, trace.SpanFromContext(ctx)
}

type stampedProvider struct {
	embedded.TracerProvider
	tracer *stampedTracer
}

func (p stampedProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

type ctxRecorder struct {
	slog.Handler
	ctxs []context.Context
}

func (h *ctxRecorder) Handle(ctx context.Context, _ slog.Record) error {
	h.ctxs = append(h.ctxs, ctx)
	return nil
}

func (s *EngineSuite) TestFailureLogCarriesApplySpan() {
	tr := &stampedTracer{id: trace.SpanID{7}}
	otel.SetTracerProvider(stampedProvider{tracer: tr})

	rec := &ctxRecorder{Handler: slog.NewTextHandler(io.Discard, nil)}
	s.engine = New(WithLogger(slog.New(rec)))
	defer func() { s.engine = New() }()

	c := s.newCase(1)
	child := c.Children[0]
	s.addContact(c, child.ID, effectiveDate, nil)
	s.addContact(c, child.ID, day(2023, 6, 1), nil)
	child.CessationDate = on(2024, 1, 1)

	_, err := s.engine.Apply(s.ctx, c)
	s.Require().Error(err)

	s.Require().Len(rec.ctxs, 1)
	s.Equal(tr.id, trace.SpanContextFromContext(rec.ctxs[0]).SpanID())
}
