package data

import (
	"strings"
	"time"
)

// PerformanceCategory is the performance tier assigned to a database
// operation based on its name.
type PerformanceCategory string

const (
	// CategoryCritical covers hot-path lookups that must stay fast:
	// health checks, traceability and recall queries.
	CategoryCritical PerformanceCategory = "critical"
	// CategoryStandard covers regular CRUD.
	CategoryStandard PerformanceCategory = "standard"
	// CategoryAnalytical covers aggregation and statistics queries.
	CategoryAnalytical PerformanceCategory = "analytical"
	// CategoryReporting covers slow bulk exports.
	CategoryReporting PerformanceCategory = "reporting"
)

// QueryStatus grades a completed operation against its category thresholds.
type QueryStatus string

const (
	StatusOptimal  QueryStatus = "optimal"
	StatusWarning  QueryStatus = "warning"
	StatusCritical QueryStatus = "critical"
)

// CategoryThresholds holds the latency expectations for one category.
// Target < Warning < Critical <= Timeout.
type CategoryThresholds struct {
	Target   time.Duration
	Warning  time.Duration
	Critical time.Duration
	Timeout  time.Duration
}

var categoryThresholds = map[PerformanceCategory]CategoryThresholds{
	CategoryCritical: {
		Target:   25 * time.Millisecond,
		Warning:  50 * time.Millisecond,
		Critical: 100 * time.Millisecond,
		Timeout:  2 * time.Second,
	},
	CategoryStandard: {
		Target:   100 * time.Millisecond,
		Warning:  250 * time.Millisecond,
		Critical: 500 * time.Millisecond,
		Timeout:  10 * time.Second,
	},
	CategoryAnalytical: {
		Target:   500 * time.Millisecond,
		Warning:  1500 * time.Millisecond,
		Critical: 3 * time.Second,
		Timeout:  15 * time.Second,
	},
	CategoryReporting: {
		Target:   2 * time.Second,
		Warning:  5 * time.Second,
		Critical: 10 * time.Second,
		Timeout:  30 * time.Second,
	},
}

// categoryKeywords maps name fragments to categories. Order matters: the
// first matching group wins, so an operation named "health-export" is
// critical, not reporting.
var categoryKeywords = []struct {
	category PerformanceCategory
	keywords []string
}{
	{CategoryCritical, []string{"health", "traceability", "recall"}},
	{CategoryReporting, []string{"export", "report", "csv"}},
	{CategoryAnalytical, []string{"stats", "analytics", "aggregate"}},
}

// CategorizeOperation assigns a performance category by case-insensitive
// substring match on the operation name. Unmatched names are standard.
func CategorizeOperation(name string) PerformanceCategory {
	lower := strings.ToLower(name)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return CategoryStandard
}

// ThresholdsFor returns the thresholds for a category. Unknown categories get
// the standard tier.
func ThresholdsFor(category PerformanceCategory) CategoryThresholds {
	if th, ok := categoryThresholds[category]; ok {
		return th
	}
	return categoryThresholds[CategoryStandard]
}

// statusForDuration grades a completed call: optimal within target, warning
// within the warning threshold, critical beyond that.
func statusForDuration(d time.Duration, th CategoryThresholds) QueryStatus {
	switch {
	case d <= th.Target:
		return StatusOptimal
	case d <= th.Warning:
		return StatusWarning
	default:
		return StatusCritical
	}
}
