// Package cessation propagates subject children's cessation dates
// (opphørsdato) to every date-ranged record of a behandling.
//
// The engine is pure and synchronous: it mutates the aggregate it is given and
// performs no I/O. Callers own loading, locking and persistence.
package cessation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bidrag/internal/behandling/models"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/requestcontext"
)

var tracer = otel.Tracer("bidrag/internal/behandling/cessation")

// Outcome summarises one recomputation.
type Outcome struct {
	CessationDate *time.Time              `json:"cessation_date,omitempty"`
	Families      map[models.Family]Stats `json:"families"`
}

// Total sums the stats over all families.
func (o Outcome) Total() Stats {
	var total Stats
	for _, s := range o.Families {
		total.add(s)
	}
	return total
}

// Engine recomputes a behandling after a cessation date change.
type Engine struct {
	custodyScope       CustodyScope
	keepFutureOpenEnds bool
	logger             *slog.Logger
}

type Option func(*Engine)

// WithCustodyScope selects the cutoff used for household-membership periods.
func WithCustodyScope(scope CustodyScope) Option {
	return func(e *Engine) {
		e.custodyScope = scope
	}
}

// WithKeepFutureOpenEnds leaves open-ended household-membership periods open
// when the cutoff lies after the request day. Other families always close at
// the cutoff. Results for custody then depend on the day a request runs, so
// re-applying an unchanged date on a later day may close a period that an
// earlier run left open.
func WithKeepFutureOpenEnds() Option {
	return func(e *Engine) {
		e.keepFutureOpenEnds = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{custodyScope: CustodyScopeCase}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply re-derives the case-wide cessation date from the children and
// reconciles every record family. On error the aggregate may be partially
// rewritten and must be discarded.
func (e *Engine) Apply(ctx context.Context, c *models.Case) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "cessation.Apply")
	defer span.End()

	c.CessationDate = ResolveCaseCessation(c.Children)
	cs := cutoffsOf(c)
	r := Reconciler{EffectiveDate: c.EffectiveDate}
	custodyR := r
	if e.keepFutureOpenEnds {
		custodyR.OpenHorizon = models.DatePtr(requestcontext.Now(ctx))
	}

	out := Outcome{
		CessationDate: models.CopyDate(c.CessationDate),
		Families:      make(map[models.Family]Stats, len(models.Families())),
	}
	var maintenance map[models.Family]Stats
	for _, family := range models.Families() {
		var (
			stats Stats
			err   error
		)
		switch family {
		case models.FamilyIncome:
			stats, err = reconcileIncome(r, c, cs)
		case models.FamilyCustody:
			stats, err = reconcileCustody(custodyR, c, cs, e.custodyScope)
		case models.FamilyContact:
			stats, err = reconcileContact(r, c, cs)
		case models.FamilyDailyRate, models.FamilyCareCategory, models.FamilyActualCost:
			if maintenance == nil {
				maintenance, err = reconcileMaintenance(r, c, cs)
			}
			stats = maintenance[family]
		default:
			err = dErrors.New(dErrors.CodeInvariantViolation, "unhandled record family "+string(family))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reconciliation failed")
			if e.logger != nil {
				e.logger.ErrorContext(ctx, "cessation reconciliation failed",
					"behandling_id", c.ID,
					"family", family,
					"error", err,
				)
			}
			return Outcome{}, err
		}
		out.Families[family] = stats
	}

	total := out.Total()
	span.SetAttributes(
		attribute.String("behandling_id", c.ID.String()),
		attribute.String("cessation_date", models.FormatDate(c.CessationDate)),
		attribute.Int("records.truncated", total.Truncated),
		attribute.Int("records.removed", total.Removed),
		attribute.Int("records.restored", total.Restored),
	)
	return out, nil
}
