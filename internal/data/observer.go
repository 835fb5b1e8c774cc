package data

import "time"

// QueryObserver receives telemetry from the database layer as typed
// callbacks: per-statement timings from the ORM instrumentation,
// statement-level errors, and pool snapshots from the health probe.
type QueryObserver interface {
	// OnQueryCompleted reports a finished SQL statement. operation is the
	// statement kind (create, query, update, delete, row, raw).
	OnQueryCompleted(operation string, d time.Duration, succeeded bool)

	// OnError reports a statement-level database error.
	OnError(message string)

	// OnPoolInfo reports a connection pool snapshot taken during a
	// successful health probe.
	OnPoolInfo(open, busy, idle int)
}

// NopObserver discards all telemetry. Useful as a default and in tests.
type NopObserver struct{}

func (NopObserver) OnQueryCompleted(string, time.Duration, bool) {}
func (NopObserver) OnError(string)                               {}
func (NopObserver) OnPoolInfo(int, int, int)                     {}
