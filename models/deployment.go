package models

import "time"

// Deployment status values. "pending" and "active" are open states: both
// hold the bowser and block further assignments. "completed" and
// "cancelled" are terminal.
const (
	DeploymentStatusPending   = "pending"
	DeploymentStatusActive    = "active"
	DeploymentStatusCompleted = "completed"
	DeploymentStatusCancelled = "cancelled"
)

// Deployment priority tiers, lowest to highest urgency.
const (
	PriorityLow       = "low"
	PriorityNormal    = "normal"
	PriorityMedium    = "medium"
	PriorityHigh      = "high"
	PriorityEmergency = "emergency"
)

// Deployment is an assignment of one bowser to one location for a time
// span, together with the situational factors that drive its emergency
// priority score.
//
// Example JSON representation:
//
//	{
//	  "_id": "deployment:81aa...",
//	  "type": "Deployment",
//	  "bowserId": "bowser:2f6c...",
//	  "locationId": "location:9c01...",
//	  "startDate": "2026-08-12T00:00:00Z",
//	  "status": "active",
//	  "priority": "emergency",
//	  "emergencyReason": "burst trunk main",
//	  "populationAffected": 250,
//	  "expectedDurationDays": 3,
//	  "alternativeSourcesAvailable": false,
//	  "vulnerabilityIndex": 8
//	}
type Deployment struct {
	// ID is the unique deployment identifier (maps to CouchDB _id)
	ID string `json:"_id"`

	// Rev is the CouchDB document revision
	Rev string `json:"_rev,omitempty"`

	// Type is the document type discriminator ("Deployment")
	Type string `json:"type"`

	// BowserID references the assigned bowser
	BowserID string `json:"bowserId"`

	// LocationID references the supplied site
	LocationID string `json:"locationId"`

	// StartDate is when the assignment begins
	StartDate time.Time `json:"startDate"`

	// EndDate is set when the deployment completes or is cancelled,
	// and only then
	EndDate *time.Time `json:"endDate,omitempty"`

	// Status is the lifecycle state (pending, active, completed, cancelled)
	Status string `json:"status"`

	// Priority is the declared urgency tier
	Priority string `json:"priority"`

	// EmergencyReason explains high/emergency priority (free text)
	EmergencyReason string `json:"emergencyReason,omitempty"`

	// PopulationAffected is the estimated number of people served
	PopulationAffected int `json:"populationAffected"`

	// ExpectedDurationDays is the planned assignment length in days
	ExpectedDurationDays int `json:"expectedDurationDays"`

	// AlternativeSourcesAvailable indicates other water sources exist
	// nearby, reducing urgency
	AlternativeSourcesAvailable bool `json:"alternativeSourcesAvailable"`

	// VulnerabilityIndex rates how vulnerable the affected population is,
	// 0 (resilient) to 10 (highly vulnerable)
	VulnerabilityIndex int `json:"vulnerabilityIndex"`

	// Notes is free-text commentary
	Notes string `json:"notes,omitempty"`

	// CreatedAt is the record creation timestamp
	CreatedAt time.Time `json:"createdAt"`
}

// Open reports whether the deployment still holds its bowser.
func (d *Deployment) Open() bool {
	return d.Status == DeploymentStatusPending || d.Status == DeploymentStatusActive
}

// ValidPriority reports whether p is a known priority tier.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}
