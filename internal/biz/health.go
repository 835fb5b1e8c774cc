package biz

import (
	"time"

	"Proofline/internal/model"
	"Proofline/pkg/breaker"

	"github.com/go-kratos/kratos/v2/log"
)

// Recommendation thresholds. The score's high-average bar is deliberately
// higher than the recommendation bar: a 600ms average earns advice before it
// costs score points.
const (
	slowAverageMs      = 500
	scoreSlowAverageMs = 1000
	poolUtilizationMax = 0.7
	errorRateMax       = 10
)

// Health score penalty weights.
const (
	penaltyWarningObservation  = 15
	penaltyCriticalObservation = 30
	penaltyUnhealthy           = 25
	penaltyBreakerOpen         = 40
	penaltySlowAverage         = 20
)

// Operator recommendation texts. Generation is deterministic: the same
// snapshot always yields the same list in the same order.
const (
	recSlowQueries  = "Average query time exceeds 500ms - review slow queries and index coverage"
	recPoolPressure = "Connection pool utilization above 70% - consider increasing the connection limit"
	recErrorRate    = "Elevated recent error rate - investigate database errors"
	recBreakerOpen  = "Circuit breaker is open - database operations are currently blocked"
	recBreakerShaky = "Circuit breaker has recorded recent failures - monitor database stability"
	recAllGood      = "Database is operating normally"
)

// HealthSource is the read side of the resilient database client: tracker
// snapshot, breaker internals, and the operator reset.
type HealthSource interface {
	Metrics() model.HealthMetrics
	BreakerStats() breaker.Stats
	ResetBreaker()
}

// HealthUsecase projects resilience state into operator-facing health
// reports. It performs no I/O; every report is a pure function of one
// snapshot.
type HealthUsecase struct {
	source HealthSource
	logger *log.Helper
}

// NewHealthUsecase creates a new health usecase.
func NewHealthUsecase(source HealthSource, logger log.Logger) *HealthUsecase {
	return &HealthUsecase{
		source: source,
		logger: log.NewHelper(logger),
	}
}

// BuildReport snapshots the tracker and breaker and derives status,
// recommendations and score.
func (uc *HealthUsecase) BuildReport() *model.HealthReport {
	metrics := uc.source.Metrics()
	stats := uc.source.BreakerStats()

	recommendations := buildRecommendations(metrics, stats)

	return &model.HealthReport{
		Status:    overallStatus(metrics, stats, recommendations),
		Timestamp: time.Now(),
		Database: model.DatabaseReport{
			IsHealthy: metrics.IsHealthy,
			ConnectionPool: model.ConnectionPoolReport{
				Open: metrics.OpenConnections,
				Busy: metrics.BusyConnections,
				Idle: metrics.IdleConnections,
			},
			Performance: model.PerformanceReport{
				TotalQueries:     metrics.TotalQueries,
				AverageQueryTime: metrics.AverageQueryTimeMs,
				RecentErrorCount: len(metrics.RecentErrors),
			},
		},
		CircuitBreaker: model.BreakerReport{
			State:         stats.State.String(),
			FailureCount:  stats.ConsecutiveFailures,
			IsOperational: stats.State != breaker.StateOpen,
		},
		Recommendations: recommendations,
		HealthScore:     healthScore(metrics, stats),
	}
}

// buildRecommendations evaluates every rule independently; all matching
// rules appear, in a stable order. A clean snapshot gets exactly one
// all-clear entry.
func buildRecommendations(metrics model.HealthMetrics, stats breaker.Stats) []string {
	var recs []string

	if metrics.AverageQueryTimeMs > slowAverageMs {
		recs = append(recs, recSlowQueries)
	}
	if metrics.OpenConnections > 0 &&
		float64(metrics.BusyConnections)/float64(metrics.OpenConnections) > poolUtilizationMax {
		recs = append(recs, recPoolPressure)
	}
	if len(metrics.RecentErrors) > errorRateMax {
		recs = append(recs, recErrorRate)
	}
	if stats.State == breaker.StateOpen {
		recs = append(recs, recBreakerOpen)
	} else if stats.ConsecutiveFailures > 0 {
		recs = append(recs, recBreakerShaky)
	}

	if len(recs) == 0 {
		recs = append(recs, recAllGood)
	}
	return recs
}

// healthScore starts at 100 and subtracts weighted penalties, clamped at 0.
func healthScore(metrics model.HealthMetrics, stats breaker.Stats) int {
	score := 100
	score -= metrics.WarningObservations * penaltyWarningObservation
	score -= metrics.CriticalObservations * penaltyCriticalObservation
	if !metrics.IsHealthy {
		score -= penaltyUnhealthy
	}
	if stats.State == breaker.StateOpen {
		score -= penaltyBreakerOpen
	}
	if metrics.AverageQueryTimeMs > scoreSlowAverageMs {
		score -= penaltySlowAverage
	}
	if score < 0 {
		score = 0
	}
	return score
}

// overallStatus grades the system: critical when the breaker blocks traffic
// or connectivity is down, degraded when any advisory rule fired, healthy
// otherwise.
func overallStatus(metrics model.HealthMetrics, stats breaker.Stats, recommendations []string) string {
	if stats.State == breaker.StateOpen || !metrics.IsHealthy {
		return model.HealthStatusCritical
	}
	for _, rec := range recommendations {
		if rec != recAllGood {
			return model.HealthStatusDegraded
		}
	}
	return model.HealthStatusHealthy
}

// ResetCircuitBreaker re-arms a tripped breaker. Operator action, logged for
// the audit trail.
func (uc *HealthUsecase) ResetCircuitBreaker() {
	before := uc.source.BreakerStats()
	uc.source.ResetBreaker()
	uc.logger.Warnw(
		"msg", "circuit breaker reset by operator",
		"previous_state", before.State.String(),
		"previous_failures", before.ConsecutiveFailures,
	)
}
