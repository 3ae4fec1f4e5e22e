package models

import "time"

// Alert types
const (
	AlertTypeIntrusion          = "intrusion"
	AlertTypeMalware            = "malware"
	AlertTypePhishing           = "phishing"
	AlertTypeUnauthorizedAccess = "unauthorized-access"
	AlertTypeDoS                = "dos"

	AlertStatusNew          = "new"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Alert is a generated security alert, persisted and broadcast to
// connected dashboard clients.
type Alert struct {
	ID          string
	Title       string
	Description string
	Type        string
	Severity    string
	Source      string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TypeCount aggregates alerts by type for the dashboard.
type TypeCount struct {
	Type  string
	Count int
}
