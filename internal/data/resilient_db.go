package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"Proofline/internal/conf"
	"Proofline/internal/model"
	"Proofline/internal/observability"
	"Proofline/pkg/breaker"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second

	// alertDeliveryTimeout bounds the asynchronous webhook call that
	// announces a breaker state change.
	alertDeliveryTimeout = 10 * time.Second
)

// ResilientDB wraps the GORM client with a circuit breaker, per-category
// timeouts and continuous health tracking. Repositories funnel every
// operation through Execute so each one is classified, timed and recorded.
//
// A background probe pings the database every probe interval. The probe runs
// through the breaker, so while the circuit is open it doubles as the
// periodic recovery trial.
type ResilientDB struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	breaker *breaker.CircuitBreaker
	tracker *healthTracker
	metrics *observability.DBMetrics
	alerts  *AlertWebhook
	log     *log.Helper

	probeInterval time.Duration
	probeTimeout  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewResilientDB builds the resilient client around an established GORM
// connection and starts the background health probe. The returned cleanup
// stops the probe and waits for in-flight notifications.
func NewResilientDB(
	c *conf.Health,
	db *gorm.DB,
	metrics *observability.DBMetrics,
	alerts *AlertWebhook,
	logger log.Logger,
) (*ResilientDB, func(), error) {
	helper := log.NewHelper(logger)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("resilient db: obtain sql.DB: %w", err)
	}

	rdb := &ResilientDB{
		db:            db,
		sqlDB:         sqlDB,
		tracker:       newHealthTracker(),
		metrics:       metrics,
		alerts:        alerts,
		log:           helper,
		probeInterval: defaultProbeInterval,
		probeTimeout:  defaultProbeTimeout,
	}

	var bcfg breaker.Config
	if c != nil && c.Breaker != nil {
		bcfg.FailureThreshold = int(c.Breaker.FailureThreshold)
		if c.Breaker.RecoveryTimeout != nil {
			bcfg.RecoveryTimeout = c.Breaker.RecoveryTimeout.AsDuration()
		}
		if c.Breaker.MonitorWindow != nil {
			bcfg.MonitorWindow = c.Breaker.MonitorWindow.AsDuration()
		}
	}
	bcfg.OnStateChange = rdb.onBreakerStateChange
	rdb.breaker = breaker.New(bcfg)

	if c != nil && c.Probe != nil {
		if c.Probe.Interval != nil && c.Probe.Interval.AsDuration() > 0 {
			rdb.probeInterval = c.Probe.Interval.AsDuration()
		}
		if c.Probe.Timeout != nil && c.Probe.Timeout.AsDuration() > 0 {
			rdb.probeTimeout = c.Probe.Timeout.AsDuration()
		}
	}

	if err := db.Use(newInstrumentation(rdb)); err != nil {
		return nil, nil, fmt.Errorf("resilient db: register instrumentation: %w", err)
	}

	metrics.SetBreakerState(observability.BreakerStateClosed)
	rdb.stop = make(chan struct{})
	rdb.startMonitor()

	helper.Infow(
		"msg", "resilient database client started",
		"probe_interval", rdb.probeInterval.String(),
		"probe_timeout", rdb.probeTimeout.String(),
	)

	return rdb, rdb.Close, nil
}

// DB exposes the underlying GORM handle for schema migration and tests.
// Application queries should go through Execute instead.
func (c *ResilientDB) DB() *gorm.DB {
	return c.db
}

// Execute runs fn under the circuit breaker with the timeout of the
// operation's performance category. The operation name drives
// classification, so repositories name operations after what they do
// ("get-recipe", "recall-lot", "export-production-csv").
//
// Record-not-found and caller cancellation pass through unchanged without
// counting as database faults. Everything else that fails feeds the breaker
// and the health tracker.
func (c *ResilientDB) Execute(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	category := CategorizeOperation(operation)
	th := ThresholdsFor(category)

	start := time.Now()
	var opErr error
	brkErr := c.breaker.Execute(func() error {
		opErr = c.runWithTimeout(ctx, operation, th.Timeout, fn)
		if isPassThrough(opErr) {
			return nil
		}
		return opErr
	})
	elapsed := time.Since(start)

	if brkErr != nil {
		c.recordFailure(operation, category, brkErr)
		return brkErr
	}

	// A completed round trip keeps its duration even when a domain rule
	// aborted it. Cancellations are not recorded: the measured time reflects
	// the caller's patience, not the database.
	if opErr == nil || isCompletedOutcome(opErr) {
		c.recordSuccess(operation, category, th, elapsed)
	}
	return opErr
}

// isCompletedOutcome reports whether err is the database doing its job:
// missing rows and domain-rule aborts raised inside an otherwise healthy
// round trip. These belong to the caller and never feed the breaker.
func isCompletedOutcome(err error) bool {
	var stockErr *InsufficientStockError
	var stateErr *InvalidRunStateError
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &stateErr)
}

// isPassThrough reports whether err is a completed-call outcome that belongs
// to the caller rather than a database fault, including caller cancellation
// and expired parent deadlines. Deadlines set by Execute itself surface as
// QueryTimeoutError before this check applies.
func isPassThrough(err error) bool {
	if err == nil {
		return false
	}
	return isCompletedOutcome(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// runWithTimeout executes fn with a category deadline layered on the caller
// context. When the deadline fires the statement context is cancelled, so
// the orphaned call aborts inside the driver instead of leaking.
func (c *ResilientDB) runWithTimeout(ctx context.Context, operation string, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(c.db.WithContext(tctx))
	}()

	select {
	case err := <-done:
		return err
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return &QueryTimeoutError{Operation: operation, Timeout: timeout}
		}
		return ctx.Err()
	}
}

func (c *ResilientDB) recordSuccess(operation string, category PerformanceCategory, th CategoryThresholds, elapsed time.Duration) {
	durationMs := float64(elapsed) / float64(time.Millisecond)
	status := statusForDuration(elapsed, th)

	c.tracker.RecordObservation(durationMs, status)
	c.metrics.ObserveQuery(string(category), string(status), elapsed.Seconds())

	switch status {
	case StatusCritical:
		c.log.Warnw(
			"msg", "query exceeded critical threshold",
			"operation", operation,
			"category", string(category),
			"duration_ms", durationMs,
			"critical_ms", th.Critical.Milliseconds(),
		)
	case StatusWarning:
		c.log.Debugw(
			"msg", "query slower than target",
			"operation", operation,
			"category", string(category),
			"duration_ms", durationMs,
			"target_ms", th.Target.Milliseconds(),
		)
	}
}

func (c *ResilientDB) recordFailure(operation string, category PerformanceCategory, err error) {
	kind := "query"
	var timeoutErr *QueryTimeoutError
	switch {
	case errors.Is(err, breaker.ErrCircuitOpen):
		kind = "circuit_open"
	case errors.As(err, &timeoutErr):
		kind = "timeout"
	}

	c.tracker.RecordError(fmt.Sprintf("%s: %v", operation, err))
	c.metrics.IncError(kind)
	c.log.Warnw(
		"msg", "database operation failed",
		"operation", operation,
		"category", string(category),
		"kind", kind,
		"error", err,
	)
}

// OnQueryCompleted implements QueryObserver for statement-level timings from
// the ORM instrumentation. Statements feed the per-statement histogram only;
// operation-level accounting happens in Execute so nothing double counts.
func (c *ResilientDB) OnQueryCompleted(operation string, d time.Duration, succeeded bool) {
	c.metrics.ObserveStatement(operation, d.Seconds())
}

// OnError implements QueryObserver for statement-level database errors.
func (c *ResilientDB) OnError(message string) {
	c.metrics.IncError("statement")
	c.log.Debugw("msg", "statement error", "error", message)
}

// OnPoolInfo implements QueryObserver for pool snapshots taken by a
// successful probe.
func (c *ResilientDB) OnPoolInfo(open, busy, idle int) {
	c.tracker.RecordProbe(open, busy, idle, true)
	c.metrics.SetPool(open, busy, idle)
}

func (c *ResilientDB) startMonitor() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// Prime the pool gauges and health flag at startup instead of
		// waiting a full interval.
		c.probe(context.Background())

		ticker := time.NewTicker(c.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.probe(context.Background())
			case <-c.stop:
				return
			}
		}
	}()
}

// probe pings the database through the breaker and records the outcome.
// Pool statistics come from the in-process driver, so they stay fresh even
// while the database itself is unreachable.
func (c *ResilientDB) probe(ctx context.Context) {
	stats := c.sqlDB.Stats()

	err := c.breaker.Execute(func() error {
		pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
		return c.sqlDB.PingContext(pctx)
	})
	if err != nil {
		perr := &ProbeFailureError{Err: err}
		c.tracker.RecordError(perr.Error())
		c.tracker.RecordProbe(stats.OpenConnections, stats.InUse, stats.Idle, false)
		c.metrics.SetPool(stats.OpenConnections, stats.InUse, stats.Idle)
		c.metrics.IncError("probe")
		c.metrics.IncProbe("failure")
		c.log.Errorw(
			"msg", "database health probe failed",
			"error", err,
			"breaker_state", c.breaker.State().String(),
		)
		return
	}

	c.OnPoolInfo(stats.OpenConnections, stats.InUse, stats.Idle)
	c.metrics.IncProbe("success")
}

// onBreakerStateChange runs inside the breaker's transition, so it must not
// call back into the breaker synchronously. The webhook notification is
// delivered from a separate goroutine for the same reason.
func (c *ResilientDB) onBreakerStateChange(from, to breaker.State) {
	c.metrics.SetBreakerState(breakerStateGauge(to))
	c.metrics.IncBreakerTransition(from.String(), to.String())
	c.log.Warnw(
		"msg", "circuit breaker state changed",
		"from", from.String(),
		"to", to.String(),
	)

	if c.alerts == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		stats := c.breaker.Stats()
		event := model.BreakerStateChange{
			Service:             "Proofline",
			From:                from.String(),
			To:                  to.String(),
			ConsecutiveFailures: stats.ConsecutiveFailures,
			OccurredAt:          time.Now(),
		}
		nctx, cancel := context.WithTimeout(context.Background(), alertDeliveryTimeout)
		defer cancel()
		_ = c.alerts.NotifyStateChange(nctx, event)
	}()
}

func breakerStateGauge(s breaker.State) float64 {
	switch s {
	case breaker.StateOpen:
		return observability.BreakerStateOpen
	case breaker.StateHalfOpen:
		return observability.BreakerStateHalfOpen
	default:
		return observability.BreakerStateClosed
	}
}

// Metrics returns a snapshot of the tracked health state.
func (c *ResilientDB) Metrics() model.HealthMetrics {
	return c.tracker.Snapshot()
}

// BreakerStats returns a snapshot of circuit breaker internals.
func (c *ResilientDB) BreakerStats() breaker.Stats {
	return c.breaker.Stats()
}

// ResetBreaker forces the circuit closed. Exposed for operator use through
// the admin endpoint.
func (c *ResilientDB) ResetBreaker() {
	c.breaker.Reset()
	c.log.Infow("msg", "circuit breaker manually reset")
}

// Close stops the background probe and waits for in-flight alert
// notifications to finish. Safe to call more than once.
func (c *ResilientDB) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
	c.log.Info("resilient database client stopped")
}
