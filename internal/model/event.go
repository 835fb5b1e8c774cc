package model

import "time"

// BreakerStateChange represents a circuit breaker state transition event.
// It is the payload posted to the alert webhook.
type BreakerStateChange struct {
	Service             string    `json:"service"`
	From                string    `json:"from"`
	To                  string    `json:"to"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	OccurredAt          time.Time `json:"occurredAt"`
}
