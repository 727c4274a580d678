package models

import "time"

// Bowser status values. A bowser's status is owned by the deployment
// lifecycle: "deployed" is only ever set by the dispatch controller, the
// remaining values are operator-set.
const (
	BowserStatusActive       = "active"
	BowserStatusStandby      = "standby"
	BowserStatusMaintenance  = "maintenance"
	BowserStatusDeployed     = "deployed"
	BowserStatusOutOfService = "out_of_service"
)

// OperatorBowserStatuses are the statuses an operator may set directly.
// "deployed" is excluded: it is derived from having an open deployment.
var OperatorBowserStatuses = []string{
	BowserStatusActive,
	BowserStatusStandby,
	BowserStatusMaintenance,
	BowserStatusOutOfService,
}

// Bowser represents a mobile water-tanker unit, the allocatable resource
// of the fleet.
//
// Capacity and current level are externally reported figures (crews update
// them after refills); the service never derives them.
//
// Example JSON representation:
//
//	{
//	  "_id": "bowser:2f6c...",
//	  "type": "Bowser",
//	  "number": "WB-014",
//	  "capacity": 10000,
//	  "currentLevel": 7500,
//	  "status": "standby",
//	  "owner": "Northern Water",
//	  "lastMaintenance": "2026-07-12T00:00:00Z"
//	}
type Bowser struct {
	// ID is the unique bowser identifier (maps to CouchDB _id)
	ID string `json:"_id"`

	// Rev is the CouchDB document revision for optimistic locking
	Rev string `json:"_rev,omitempty"`

	// Type is the document type discriminator ("Bowser")
	Type string `json:"type"`

	// Number is the human-readable fleet number painted on the unit
	Number string `json:"number"`

	// Capacity is the tank capacity in liters (always positive)
	Capacity int `json:"capacity"`

	// CurrentLevel is the reported water level in liters (0..Capacity)
	CurrentLevel int `json:"currentLevel"`

	// Status is the operational status (active, standby, maintenance,
	// deployed, out_of_service)
	Status string `json:"status"`

	// Owner is the operating organisation (free text)
	Owner string `json:"owner,omitempty"`

	// LastMaintenance is the date of the last completed service, if known
	LastMaintenance *time.Time `json:"lastMaintenance,omitempty"`

	// Notes is free-text operator commentary
	Notes string `json:"notes,omitempty"`

	// CreatedAt is the record creation timestamp
	CreatedAt time.Time `json:"createdAt"`
}

// ValidOperatorStatus reports whether s is a status an operator may set.
func ValidOperatorStatus(s string) bool {
	for _, v := range OperatorBowserStatuses {
		if v == s {
			return true
		}
	}
	return false
}
