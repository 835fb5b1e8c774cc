// Package observability exposes Prometheus collectors for the database
// resilience layer: query timings, error counts, pool gauges and circuit
// breaker state.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker state gauge values.
const (
	BreakerStateClosed   = 0
	BreakerStateHalfOpen = 1
	BreakerStateOpen     = 2
)

// DBMetrics bundles the database collectors. Construct once per process via
// NewDBMetrics; tests use NewDBMetricsWith and a private registry.
type DBMetrics struct {
	queriesTotal       *prometheus.CounterVec
	queryDuration      *prometheus.HistogramVec
	queryErrors        *prometheus.CounterVec
	statementDuration  *prometheus.HistogramVec
	poolOpenConns      prometheus.Gauge
	poolInUseConns     prometheus.Gauge
	poolIdleConns      prometheus.Gauge
	breakerState       prometheus.Gauge
	breakerTransitions *prometheus.CounterVec
	probesTotal        *prometheus.CounterVec
}

// NewDBMetrics registers the collectors on the default registry.
func NewDBMetrics() *DBMetrics {
	return NewDBMetricsWith(prometheus.DefaultRegisterer)
}

// NewDBMetricsWith registers the collectors on reg.
func NewDBMetricsWith(reg prometheus.Registerer) *DBMetrics {
	factory := promauto.With(reg)

	return &DBMetrics{
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofline_db_queries_total",
				Help: "Total number of completed database operations.",
			},
			[]string{"category", "status"}, // status: "optimal", "warning", "critical"
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proofline_db_query_duration_seconds",
				Help:    "Duration of database operations in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"category"},
		),
		queryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofline_db_query_errors_total",
				Help: "Total number of failed database operations.",
			},
			[]string{"kind"}, // kind: "query", "timeout", "circuit_open", "probe"
		),
		statementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proofline_db_statement_duration_seconds",
				Help:    "Duration of individual SQL statements in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"}, // gorm callback kind: "query", "create", "update", "delete", "raw", "row"
		),
		poolOpenConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_db_pool_open_conns",
			Help: "Open connections in the pool.",
		}),
		poolInUseConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_db_pool_in_use_conns",
			Help: "Connections currently in use.",
		}),
		poolIdleConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_db_pool_idle_conns",
			Help: "Idle connections in the pool.",
		}),
		breakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_db_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		breakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofline_db_circuit_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions.",
			},
			[]string{"from", "to"},
		),
		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofline_db_health_probes_total",
				Help: "Total number of database health probes.",
			},
			[]string{"outcome"}, // outcome: "success", "failure"
		),
	}
}

// ObserveQuery records one completed operation.
func (m *DBMetrics) ObserveQuery(category, status string, seconds float64) {
	m.queriesTotal.WithLabelValues(category, status).Inc()
	m.queryDuration.WithLabelValues(category).Observe(seconds)
}

// IncError counts one failed operation by failure kind.
func (m *DBMetrics) IncError(kind string) {
	m.queryErrors.WithLabelValues(kind).Inc()
}

// ObserveStatement records one SQL statement timing from the ORM callbacks.
func (m *DBMetrics) ObserveStatement(operation string, seconds float64) {
	m.statementDuration.WithLabelValues(operation).Observe(seconds)
}

// SetPool updates the connection pool gauges.
func (m *DBMetrics) SetPool(open, inUse, idle int) {
	m.poolOpenConns.Set(float64(open))
	m.poolInUseConns.Set(float64(inUse))
	m.poolIdleConns.Set(float64(idle))
}

// SetBreakerState updates the breaker state gauge.
func (m *DBMetrics) SetBreakerState(state float64) {
	m.breakerState.Set(state)
}

// IncBreakerTransition counts a breaker state transition.
func (m *DBMetrics) IncBreakerTransition(from, to string) {
	m.breakerTransitions.WithLabelValues(from, to).Inc()
}

// IncProbe counts one health probe by outcome.
func (m *DBMetrics) IncProbe(outcome string) {
	m.probesTotal.WithLabelValues(outcome).Inc()
}
