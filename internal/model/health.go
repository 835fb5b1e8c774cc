package model

import "time"

// Health report status values.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
	HealthStatusCritical = "critical"
)

// ErrorEntry is one recorded database error.
type ErrorEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// HealthMetrics is an isolated snapshot of the health tracker. Mutating a
// snapshot never affects the tracker it came from.
type HealthMetrics struct {
	IsHealthy            bool
	OpenConnections      int
	BusyConnections      int
	IdleConnections      int
	TotalQueries         int64
	AverageQueryTimeMs   float64
	RecentQueryDurations []float64
	WarningObservations  int
	CriticalObservations int
	RecentErrors         []ErrorEntry
	LastHealthCheck      time.Time
}

// ConnectionPoolReport describes pool usage in a health report.
type ConnectionPoolReport struct {
	Open int `json:"open"`
	Busy int `json:"busy"`
	Idle int `json:"idle"`
}

// PerformanceReport summarizes recent query performance.
type PerformanceReport struct {
	TotalQueries     int64   `json:"totalQueries"`
	AverageQueryTime float64 `json:"averageQueryTime"`
	RecentErrorCount int     `json:"recentErrorCount"`
}

// DatabaseReport is the database section of a health report.
type DatabaseReport struct {
	IsHealthy      bool                 `json:"isHealthy"`
	ConnectionPool ConnectionPoolReport `json:"connectionPool"`
	Performance    PerformanceReport    `json:"performance"`
}

// BreakerReport is the circuit breaker section of a health report.
type BreakerReport struct {
	State         string `json:"state"`
	FailureCount  int    `json:"failureCount"`
	IsOperational bool   `json:"isOperational"`
}

// HealthReport is the full database health report served to operators.
type HealthReport struct {
	Status          string         `json:"status"`
	Timestamp       time.Time      `json:"timestamp"`
	Database        DatabaseReport `json:"database"`
	CircuitBreaker  BreakerReport  `json:"circuitBreaker"`
	Recommendations []string       `json:"recommendations"`
	HealthScore     int            `json:"healthScore"`
}
