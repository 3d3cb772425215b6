// Package fallback routes audit events to a secondary sink while the primary
// is failing.
package fallback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "bidrag/pkg/platform/audit"
	"bidrag/pkg/platform/circuit"
)

// Metrics tracks how events are routed.
type Metrics struct {
	FallbackWrites  prometheus.Counter
	PrimaryFailures prometheus.Counter
	BreakerState    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FallbackWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "bidrag_audit_fallback_writes_total",
			Help: "Audit events written to the fallback sink",
		}),
		PrimaryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bidrag_audit_primary_failures_total",
			Help: "Failed writes to the primary audit sink",
		}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bidrag_audit_breaker_state",
			Help: "Primary audit sink breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) incFallback() {
	if m != nil {
		m.FallbackWrites.Inc()
	}
}

func (m *Metrics) incPrimaryFailure() {
	if m != nil {
		m.PrimaryFailures.Inc()
	}
}

func (m *Metrics) setOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}

// Store writes to primary while its breaker allows it and to fallback
// otherwise. An event is only lost if both sinks fail, in which case Append
// returns an error.
type Store struct {
	primary  audit.Store
	fallback audit.Store
	breaker  *circuit.Breaker
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Store)

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(primary, fallback audit.Store, breaker *circuit.Breaker, opts ...Option) *Store {
	s := &Store{primary: primary, fallback: fallback, breaker: breaker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if s.breaker.Allow() {
		err := s.primary.Append(ctx, event)
		if err == nil {
			if _, change := s.breaker.RecordSuccess(); change.Closed {
				s.metrics.setOpen(false)
				s.log(ctx, slog.LevelInfo, "primary audit sink recovered")
			}
			return nil
		}
		s.metrics.incPrimaryFailure()
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.metrics.setOpen(true)
			s.log(ctx, slog.LevelWarn, "primary audit sink failing, using fallback", "error", err)
		}
	}

	if err := s.fallback.Append(ctx, event); err != nil {
		return fmt.Errorf("append to fallback audit sink: %w", err)
	}
	s.metrics.incFallback()
	return nil
}

func (s *Store) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Log(ctx, level, msg, append([]any{"breaker", s.breaker.Name()}, args...)...)
}
