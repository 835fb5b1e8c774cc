package data

import (
	"fmt"
	"time"
)

// QueryTimeoutError reports that an operation exceeded the timeout of its
// performance category. The underlying statement is cancelled through the
// context, so the error surfaces before the driver gives up on its own.
type QueryTimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Timeout)
}

// ProbeFailureError wraps a failed background health probe.
type ProbeFailureError struct {
	Err error
}

func (e *ProbeFailureError) Error() string {
	return fmt.Sprintf("database health probe failed: %v", e.Err)
}

func (e *ProbeFailureError) Unwrap() error {
	return e.Err
}
