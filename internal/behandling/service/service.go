package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bidrag/internal/behandling/cessation"
	"bidrag/internal/behandling/metrics"
	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/platform/audit"
	"bidrag/pkg/platform/sentinel"
	"bidrag/pkg/requestcontext"
)

var tracer = otel.Tracer("bidrag/internal/behandling/service")

// Store loads and persists behandling aggregates. Save must reject a stale
// aggregate with sentinel.ErrConflict and bump Version on success.
type Store interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	Save(ctx context.Context, c *models.Case) error
}

// Engine recomputes a behandling's records after a cessation date change.
type Engine interface {
	Apply(ctx context.Context, c *models.Case) (cessation.Outcome, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service sets and clears cessation dates (opphørsdato) on subject children
// and persists the recomputed behandling.
type Service struct {
	store          Store
	tx             CaseStoreTx
	engine         Engine
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx replaces the in-process transaction with a store-backed one.
func WithTx(tx CaseStoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithEngine(engine Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// New constructs a Service. Without WithTx, mutations are serialised with an
// in-process lock per behandling.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx(store, 0)
	}
	if s.engine == nil {
		s.engine = cessation.New(cessation.WithLogger(s.logger))
	}
	return s
}

// SetCessationDate sets, moves or (with a nil date) clears a subject child's
// cessation date and recomputes every record of the behandling.
//
// The behandling is recomputed on a copy; validation, reconciliation and
// persistence errors all leave the stored behandling untouched.
func (s *Service) SetCessationDate(ctx context.Context, caseID id.CaseID, childID id.RoleID, date *time.Time) (*models.Case, error) {
	start := time.Now()
	defer s.metrics.ObserveSetCessation(start)

	var day *time.Time
	if date != nil {
		day = models.DatePtr(*date)
	}

	ctx, span := tracer.Start(ctx, "behandling.SetCessationDate", trace.WithAttributes(
		attribute.String("behandling_id", caseID.String()),
		attribute.String("child_id", childID.String()),
		attribute.String("opphorsdato", models.FormatDate(day)),
	))
	defer span.End()

	var (
		result   *models.Case
		outcome  cessation.Outcome
		previous *time.Time
		changed  bool
	)
	err := s.tx.RunInTx(ctx, caseID, func(ctx context.Context, store Store) error {
		current, err := store.FindByID(ctx, caseID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "behandling not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load behandling")
		}
		child, ok := current.Child(childID)
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "søknadsbarn not found in behandling")
		}
		if day != nil && day.Before(current.EffectiveDate) {
			return dErrors.New(dErrors.CodeValidation, "opphørsdato cannot be before virkningstidspunkt")
		}
		previous = models.CopyDate(child.CessationDate)

		next := current.Clone()
		nextChild, _ := next.Child(childID)
		nextChild.CessationDate = models.CopyDate(day)
		outcome, err = s.engine.Apply(ctx, next)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to recompute behandling")
		}

		if models.SameDate(previous, day) && !outcome.Total().Changed() {
			result = current
			return nil
		}
		changed = true
		next.UpdatedAt = requestcontext.Now(ctx)
		if err := store.Save(ctx, next); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "behandling was modified concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save behandling")
		}
		if err := s.emitAudit(ctx, next.ID, childID, day, previous); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		result = next
		return nil
	})
	if err != nil {
		code := dErrors.CodeOf(err)
		s.metrics.IncrementFailure(string(code))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		s.logFailure(ctx, err, "behandling_id", caseID, "child_id", childID)
		return nil, err
	}

	if !changed {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "cessation date unchanged",
				"behandling_id", caseID,
				"child_id", childID,
			)
		}
		return result, nil
	}

	s.metrics.IncrementCessationDate(day == nil)
	for family, stats := range outcome.Families {
		s.metrics.AddReconciled(string(family), stats.Truncated, stats.Removed, stats.Restored)
	}
	total := outcome.Total()
	s.logAudit(ctx, string(eventFor(day)),
		"behandling_id", caseID,
		"child_id", childID,
		"opphorsdato", models.FormatDate(day),
		"previous_opphorsdato", models.FormatDate(previous),
		"case_opphorsdato", models.FormatDate(outcome.CessationDate),
		"truncated", total.Truncated,
		"removed", total.Removed,
		"restored", total.Restored,
	)
	return result, nil
}

// GetCase returns the stored behandling.
func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	start := time.Now()
	defer s.metrics.ObserveGetCase(start)

	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "behandling not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load behandling")
	}
	if s.auditPublisher != nil {
		// Access events are operational; a failed emit does not fail the read.
		err := s.auditPublisher.Emit(ctx, audit.Event{
			Category:  audit.EventCaseViewed.Category(),
			Timestamp: requestcontext.Now(ctx),
			CaseID:    c.ID,
			Action:    string(audit.EventCaseViewed),
			RequestID: requestcontext.RequestID(ctx),
			ActorID:   requestcontext.Caseworker(ctx),
		})
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to emit case viewed event", "behandling_id", caseID, "error", err)
		}
	}
	return c, nil
}

func eventFor(day *time.Time) audit.AuditEvent {
	if day == nil {
		return audit.EventCessationDateCleared
	}
	return audit.EventCessationDateSet
}

// emitAudit records the change through the publisher inside the transaction,
// so a store-backed outbox commits with the behandling.
func (s *Service) emitAudit(ctx context.Context, caseID id.CaseID, childID id.RoleID, day, previous *time.Time) error {
	if s.auditPublisher == nil {
		return nil
	}
	event := eventFor(day)
	return s.auditPublisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		CaseID:    caseID,
		Subject:   childID.String(),
		Action:    string(event),
		Decision:  models.FormatDate(day),
		Reason:    models.FormatDate(previous),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.Caseworker(ctx),
	})
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if caseworker := requestcontext.Caseworker(ctx); caseworker != "" {
		attributes = append(attributes, "saksbehandler", caseworker)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logFailure(ctx context.Context, err error, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "error", err, "code", dErrors.CodeOf(err))
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvariantViolation, dErrors.CodeInternal:
		s.logger.ErrorContext(ctx, "set cessation date failed", args...)
	default:
		s.logger.WarnContext(ctx, "set cessation date rejected", args...)
	}
}
