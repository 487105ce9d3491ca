package models

// Health is the aggregate condition of the automation loop, derived once
// per cycle and consumed by the status LED and /api/status.
type Health string

const (
	// HealthNormal means the last cycle completed with no rule faults.
	HealthNormal Health = "normal"
	// HealthWarning means at least one relay rule faulted last cycle.
	HealthWarning Health = "warning"
	// HealthError means the cycle itself faulted (panic or sweep failure).
	HealthError Health = "error"
)
