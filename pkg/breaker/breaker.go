// Package breaker provides an in-memory three-state circuit breaker used to
// guard database access. It is deliberately self-contained so it can wrap any
// error-returning call.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call without
// invoking the protected operation.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker.
type State int32

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected immediately.
	StateOpen
	// StateHalfOpen means a single trial call is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Default configuration values applied by New when a field is unset.
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
	DefaultMonitorWindow    = 60 * time.Second
)

// Config configures a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips the
	// breaker open.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before a single
	// trial call is admitted.
	RecoveryTimeout time.Duration
	// MonitorWindow is the advisory reporting window surfaced in Stats.
	MonitorWindow time.Duration
	// OnStateChange is invoked once per state transition. It runs with the
	// breaker lock held and must not call back into the breaker.
	OnStateChange func(from, to State)
}

// CircuitBreaker tracks consecutive failures and cuts off calls once a
// threshold is reached. Recovery is lazy: the first call arriving after the
// recovery timeout becomes the half-open trial.
type CircuitBreaker struct {
	mu                  sync.Mutex
	cfg                 Config
	state               State
	consecutiveFailures int
	lastFailureTime     time.Time
	trialInFlight       bool
}

// New creates a circuit breaker, filling unset config fields with defaults.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.MonitorWindow <= 0 {
		cfg.MonitorWindow = DefaultMonitorWindow
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs op under breaker protection. When the breaker is open the call
// is rejected with ErrCircuitOpen and op is never invoked. The breaker lock is
// not held while op runs.
func (b *CircuitBreaker) Execute(op func() error) error {
	trial, err := b.beforeCall()
	if err != nil {
		return err
	}
	err = op()
	b.afterCall(trial, err)
	return err
}

// beforeCall decides whether the call may proceed and whether it is the
// half-open trial.
func (b *CircuitBreaker) beforeCall() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailureTime) > b.cfg.RecoveryTimeout {
			b.transitionTo(StateHalfOpen)
			b.trialInFlight = true
			return true, nil
		}
		return false, ErrCircuitOpen
	case StateHalfOpen:
		// Exactly one trial call at a time; everyone else waits out the trial.
		if b.trialInFlight {
			return false, ErrCircuitOpen
		}
		b.trialInFlight = true
		return true, nil
	default:
		return false, nil
	}
}

// afterCall records the outcome of a completed call.
func (b *CircuitBreaker) afterCall(trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
	}

	if err == nil {
		b.consecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.transitionTo(StateClosed)
		}
		return
	}

	b.consecutiveFailures++
	b.lastFailureTime = time.Now()
	if b.consecutiveFailures >= b.cfg.FailureThreshold {
		// Trips from closed; a failed half-open trial lands here too because
		// the failure count is never reset on the way into half-open.
		b.transitionTo(StateOpen)
	}
}

// transitionTo switches state and fires the callback once per change.
func (b *CircuitBreaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(prev, next)
	}
}

// State returns the current state without triggering lazy recovery.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a point-in-time snapshot of breaker internals.
type Stats struct {
	State               State
	ConsecutiveFailures int
	LastFailureTime     time.Time
	MonitorWindow       time.Duration
}

// Stats returns current statistics.
func (b *CircuitBreaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailureTime:     b.lastFailureTime,
		MonitorWindow:       b.cfg.MonitorWindow,
	}
}

// Reset forces the breaker back to its zero state: closed, no recorded
// failures. Intended for operator intervention after an incident.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.lastFailureTime = time.Time{}
	b.trialInFlight = false
	b.transitionTo(StateClosed)
}
