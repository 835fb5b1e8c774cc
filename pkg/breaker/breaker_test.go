package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestExecuteClosedSuccess(t *testing.T) {
	b := New(Config{})

	calls := 0
	err := b.Execute(func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Stats().ConsecutiveFailures)
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(Config{FailureThreshold: 5, RecoveryTimeout: time.Minute})

	calls := 0
	fail := func() error {
		calls++
		return errBoom
	}

	for i := 0; i < 5; i++ {
		err := b.Execute(fail)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	// The sixth call is rejected without invoking the operation.
	err := b.Execute(fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, b.Stats().ConsecutiveFailures)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errBoom })
	}
	assert.Equal(t, 2, b.Stats().ConsecutiveFailures)

	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, 0, b.Stats().ConsecutiveFailures)

	// Two more failures stay under the threshold after the reset.
	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errBoom })
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestOpenRejectsUntilRecoveryTimeout(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	err := b.Execute(func() error {
		t.Fatal("operation must not run while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHalfOpenTrialSuccessCloses(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond})

	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)

	err := b.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Stats().ConsecutiveFailures)
}

func TestHalfOpenTrialFailureReopens(t *testing.T) {
	b := New(Config{FailureThreshold: 2, RecoveryTimeout: 20 * time.Millisecond})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errBoom })
	}
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)

	err := b.Execute(func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, b.State())

	// Back to rejecting immediately.
	err = b.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHalfOpenAdmitsSingleTrial(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	require.Equal(t, StateHalfOpen, b.State())

	// A second caller during the trial is rejected, not queued.
	err := b.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestReset(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	_ = b.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	b.Reset()

	stats := b.Stats()
	assert.Equal(t, StateClosed, stats.State)
	assert.Equal(t, 0, stats.ConsecutiveFailures)
	assert.True(t, stats.LastFailureTime.IsZero())
	require.NoError(t, b.Execute(func() error { return nil }))
}

func TestOnStateChangeCallback(t *testing.T) {
	type change struct{ from, to State }
	var changes []change

	b := New(Config{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		OnStateChange: func(from, to State) {
			changes = append(changes, change{from, to})
		},
	})

	_ = b.Execute(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)
	_ = b.Execute(func() error { return nil })

	require.Len(t, changes, 3)
	assert.Equal(t, change{StateClosed, StateOpen}, changes[0])
	assert.Equal(t, change{StateOpen, StateHalfOpen}, changes[1])
	assert.Equal(t, change{StateHalfOpen, StateClosed}, changes[2])
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(Config{})

	assert.Equal(t, DefaultFailureThreshold, b.cfg.FailureThreshold)
	assert.Equal(t, DefaultRecoveryTimeout, b.cfg.RecoveryTimeout)
	assert.Equal(t, DefaultMonitorWindow, b.Stats().MonitorWindow)
}
