package quota

import "time"

// Severity classifies how close a quota is to exhaustion.
type Severity string

const (
	// SeverityOK means usage is below every threshold.
	SeverityOK Severity = "ok"

	// SeverityWarning means usage crossed the warning threshold.
	// Warning never blocks; it is telemetry only.
	SeverityWarning Severity = "warning"

	// SeverityCritical means usage crossed the critical threshold
	// and further requests are denied.
	SeverityCritical Severity = "critical"
)

// ExecutionTimeResource is the name of the run-scoped wall-clock budget.
const ExecutionTimeResource = "EXECUTION_TIME"

// Config contains configuration for the quota tracker.
type Config struct {
	// ExecutionWarning is the elapsed run time that triggers a warning log.
	ExecutionWarning time.Duration

	// ExecutionCritical is the elapsed run time past which admissions are
	// denied. Set below the platform's hard execution ceiling so in-flight
	// work can still finish.
	ExecutionCritical time.Duration

	// Daily describes the daily shared resources.
	Daily []ResourceConfig

	// ResetHourUTC is the hour of day (UTC) the daily counters reset at.
	ResetHourUTC int
}

// ResourceConfig describes one daily shared resource.
type ResourceConfig struct {
	// Name identifies the resource, e.g. "SHEETS_API_CALLS".
	Name string

	// Limit is the daily budget.
	Limit int64

	// WarningAt and CriticalAt are fractions of Limit (0..1).
	// Zero values default to 0.8 and 0.95.
	WarningAt  float64
	CriticalAt float64

	// Operations lists the operation types charged against this resource.
	// Empty means every operation is charged.
	Operations []string
}

// Result is the outcome of a quota check.
type Result struct {
	// Allowed indicates if the request may proceed.
	Allowed bool

	// Severity is the highest severity observed across checked resources.
	Severity Severity

	// Resource names the resource that denied or flagged the request.
	Resource string

	// Reason is a short human-readable explanation when denied or flagged.
	Reason string

	// Remaining is the remaining budget of the denying/flagging resource.
	Remaining int64
}

// ResourceStatus is a read-only snapshot of one resource for dashboards.
type ResourceStatus struct {
	Name       string    `json:"name"`
	Limit      int64     `json:"limit"`
	Used       int64     `json:"used"`
	Remaining  int64     `json:"remaining"`
	Percentage float64   `json:"percentage"`
	Severity   Severity  `json:"severity"`
	ResetAt    time.Time `json:"reset_at"`
}
