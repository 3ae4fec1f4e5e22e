package models

import "time"

// Event severities and statuses
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	EventStatusActive   = "active"
	EventStatusResolved = "resolved"
	EventStatusIgnored  = "ignored"
)

// SecurityEvent is a single append-only security log record. Failed and
// successful authentication attempts, rate limit violations and reputation
// checks all land here; the brute-force detector aggregates over it.
type SecurityEvent struct {
	ID            string
	SourceIP      string
	DestinationIP string
	Severity      string
	Message       string
	DetectedBy    string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventFilter narrows event listings.
type EventFilter struct {
	Severity     string
	Status       string
	SourceIP     string
	CreatedAfter *time.Time
	Limit        int
	Offset       int
}

// IPFailureCount is one row of the detector's per-source aggregate: how many
// matching events a single source IP produced inside the trailing window.
type IPFailureCount struct {
	SourceIP string
	Count    int
}

// SeverityCount aggregates events by severity for the dashboard.
type SeverityCount struct {
	Severity string
	Count    int
}
