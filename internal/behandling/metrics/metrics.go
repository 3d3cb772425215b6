package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for cessation handling.
// Tracks date changes, record rewrites per family and the duration of the
// critical path (load, recompute, persist).
type Metrics struct {
	CessationDatesSet    *prometheus.CounterVec
	RecordsReconciled    *prometheus.CounterVec
	SetCessationFailures *prometheus.CounterVec
	SetCessationDuration prometheus.Histogram
	GetCaseDuration      prometheus.Histogram
}

// New registers all behandling metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CessationDatesSet: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrag_cessation_dates_total",
			Help: "Total number of cessation date changes, by whether the date was set or cleared",
		}, []string{"change"}),
		RecordsReconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrag_cessation_records_reconciled_total",
			Help: "Records rewritten by cessation handling, by family and outcome",
		}, []string{"family", "outcome"}),
		SetCessationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrag_cessation_failures_total",
			Help: "Failed cessation date changes, by error code",
		}, []string{"code"}),
		SetCessationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidrag_set_cessation_duration_seconds",
			Help:    "Duration of SetCessationDate operations (load, recompute, persist)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GetCaseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidrag_get_case_duration_seconds",
			Help:    "Duration of GetCase operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCessationDate records a successful change; cleared is true when
// the date was removed.
func (m *Metrics) IncrementCessationDate(cleared bool) {
	if m == nil {
		return
	}
	change := "set"
	if cleared {
		change = "cleared"
	}
	m.CessationDatesSet.WithLabelValues(change).Inc()
}

// AddReconciled records rewritten records for one family.
func (m *Metrics) AddReconciled(family string, truncated, removed, restored int) {
	if m == nil {
		return
	}
	m.RecordsReconciled.WithLabelValues(family, "truncated").Add(float64(truncated))
	m.RecordsReconciled.WithLabelValues(family, "removed").Add(float64(removed))
	m.RecordsReconciled.WithLabelValues(family, "restored").Add(float64(restored))
}

// IncrementFailure records a failed change by error code.
func (m *Metrics) IncrementFailure(code string) {
	if m == nil {
		return
	}
	m.SetCessationFailures.WithLabelValues(code).Inc()
}

// ObserveSetCessation records the duration of a SetCessationDate operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSetCessation(start time.Time) {
	if m == nil {
		return
	}
	m.SetCessationDuration.Observe(time.Since(start).Seconds())
}

// ObserveGetCase records the duration of a GetCase operation.
func (m *Metrics) ObserveGetCase(start time.Time) {
	if m == nil {
		return
	}
	m.GetCaseDuration.Observe(time.Since(start).Seconds())
}
