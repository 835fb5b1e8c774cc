package data

import (
	"sync"
	"time"

	"Proofline/internal/model"
)

// Window sizes for the in-memory health tracker. Oldest entries are evicted
// first once a window is full.
const (
	durationWindowSize = 100
	errorHistorySize   = 50
)

// queryObservation is one completed operation folded into the window.
type queryObservation struct {
	durationMs float64
	status     QueryStatus
}

// healthTracker accumulates recent database telemetry: a bounded window of
// query durations, a bounded error history, pool gauges and a health flag.
// All methods are safe for concurrent use; each call folds its update under a
// single lock acquisition so a reader never sees a half-applied record.
type healthTracker struct {
	mu                 sync.Mutex
	healthy            bool
	openConnections    int
	busyConnections    int
	idleConnections    int
	totalQueries       int64
	averageQueryTimeMs float64
	observations       []queryObservation
	errors             []model.ErrorEntry
	lastHealthCheck    time.Time
}

func newHealthTracker() *healthTracker {
	return &healthTracker{healthy: true}
}

// RecordObservation folds one completed operation into the duration window,
// bumps the total counter and recomputes the window average.
func (t *healthTracker) RecordObservation(durationMs float64, status QueryStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observations = append(t.observations, queryObservation{durationMs: durationMs, status: status})
	if len(t.observations) > durationWindowSize {
		t.observations = t.observations[1:]
	}
	t.totalQueries++
	t.recomputeAverage()
}

// recomputeAverage takes the full mean over the current window. The window is
// capped at durationWindowSize entries, so the recompute stays cheap and the
// average reflects exactly the retained samples.
func (t *healthTracker) recomputeAverage() {
	if len(t.observations) == 0 {
		t.averageQueryTimeMs = 0
		return
	}
	var sum float64
	for _, o := range t.observations {
		sum += o.durationMs
	}
	t.averageQueryTimeMs = sum / float64(len(t.observations))
}

// RecordError appends an error entry and marks the database unhealthy until
// the next successful probe.
func (t *healthTracker) RecordError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.errors = append(t.errors, model.ErrorEntry{Timestamp: time.Now(), Message: message})
	if len(t.errors) > errorHistorySize {
		t.errors = t.errors[1:]
	}
	t.healthy = false
}

// RecordProbe updates the pool gauges and the health flag from a probe round.
func (t *healthTracker) RecordProbe(open, busy, idle int, healthy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.openConnections = open
	t.busyConnections = busy
	t.idleConnections = idle
	t.healthy = healthy
	t.lastHealthCheck = time.Now()
}

// Snapshot returns an isolated copy of the tracker state. Callers may mutate
// the returned value freely.
func (t *healthTracker) Snapshot() model.HealthMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	durations := make([]float64, len(t.observations))
	var warning, critical int
	for i, o := range t.observations {
		durations[i] = o.durationMs
		switch o.status {
		case StatusWarning:
			warning++
		case StatusCritical:
			critical++
		}
	}

	errs := make([]model.ErrorEntry, len(t.errors))
	copy(errs, t.errors)

	return model.HealthMetrics{
		IsHealthy:            t.healthy,
		OpenConnections:      t.openConnections,
		BusyConnections:      t.busyConnections,
		IdleConnections:      t.idleConnections,
		TotalQueries:         t.totalQueries,
		AverageQueryTimeMs:   t.averageQueryTimeMs,
		RecentQueryDurations: durations,
		WarningObservations:  warning,
		CriticalObservations: critical,
		RecentErrors:         errs,
		LastHealthCheck:      t.lastHealthCheck,
	}
}
