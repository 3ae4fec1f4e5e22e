package models

import "time"

// Reputation subject kinds
const (
	ReputationKindIP     = "ip"
	ReputationKindDomain = "domain"
)

// ReputationRecord is one entry in the suspicious IP or domain registry.
// Subject is unique within its kind; LastSeen advances on every positive
// match and never moves backwards.
type ReputationRecord struct {
	ID            string
	Subject       string
	Kind          string
	Reason        string
	RiskScore     int // 0-100
	FirstDetected time.Time
	LastSeen      time.Time
	Source        string
}

// ReputationResult is the outcome of a reputation check. A clean subject
// carries a synthetic low risk score and no stored record.
type ReputationResult struct {
	Subject   string `json:"subject"`
	Kind      string `json:"kind"`
	Malicious bool   `json:"malicious"`
	RiskScore int    `json:"risk_score"`
	Reason    string `json:"reason"`
}
