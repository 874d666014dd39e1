package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Services accept
// a nil *Metrics so unit tests need no registry.
type Metrics struct {
	MovementsApplied   *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	CommitRetries      prometheus.Counter
	CommitDuration     prometheus.Histogram
	SlotsExhausted     prometheus.Counter
}

// New creates and registers all Prometheus metrics. Call once from main.
func New() *Metrics {
	return &Metrics{
		MovementsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kitstock_ledger_movements_total",
			Help: "Ledger movements applied, labelled by direction.",
		}, []string{"direction"}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kitstock_reconcile_validation_failures_total",
			Help: "Count lines rejected during reconciliation validation.",
		}),
		CommitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kitstock_commit_retries_total",
			Help: "Persistence retries during reconciliation commits.",
		}),
		CommitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kitstock_commit_duration_seconds",
			Help:    "Wall time of reconciliation commits.",
			Buckets: prometheus.DefBuckets,
		}),
		SlotsExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kitstock_treecode_slots_exhausted_total",
			Help: "Treecode allocations that failed because a scope was full.",
		}),
	}
}

// ObserveMovement records one applied ledger movement.
func (m *Metrics) ObserveMovement(direction string) {
	if m != nil {
		m.MovementsApplied.WithLabelValues(direction).Inc()
	}
}

// ObserveValidationFailures records rejected lines from one commit attempt.
func (m *Metrics) ObserveValidationFailures(n int) {
	if m != nil && n > 0 {
		m.ValidationFailures.Add(float64(n))
	}
}

// ObserveCommitRetry records one persistence retry.
func (m *Metrics) ObserveCommitRetry() {
	if m != nil {
		m.CommitRetries.Inc()
	}
}

// ObserveCommitDuration records one finished commit.
func (m *Metrics) ObserveCommitDuration(d time.Duration) {
	if m != nil {
		m.CommitDuration.Observe(d.Seconds())
	}
}

// ObserveSlotExhausted records one failed allocation.
func (m *Metrics) ObserveSlotExhausted() {
	if m != nil {
		m.SlotsExhausted.Inc()
	}
}
