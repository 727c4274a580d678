package models

import "time"

// Alert status values.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Alert is an operational notice raised either by an operator or by the
// background scheduler (overdue maintenance, overrunning deployments).
type Alert struct {
	ID       string `json:"_id"`
	Rev      string `json:"_rev,omitempty"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Status   string `json:"status"`

	// TargetRole limits visibility to a role ("admin", "staff", "viewer");
	// empty means everyone
	TargetRole string `json:"targetRole,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}
