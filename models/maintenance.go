package models

import "time"

// Maintenance record status values.
const (
	MaintenanceStatusScheduled  = "scheduled"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusCompleted  = "completed"
	MaintenanceStatusOverdue    = "overdue"
)

// MaintenanceRecord is a scheduled or completed service job on a bowser.
// Records past their scheduled date are swept to "overdue" by the
// background scheduler.
type MaintenanceRecord struct {
	ID            string    `json:"_id"`
	Rev           string    `json:"_rev,omitempty"`
	Type          string    `json:"type"`
	BowserID      string    `json:"bowserId"`
	ScheduledDate time.Time `json:"scheduledDate"`

	// WorkType categorises the job (inspection, pump service, relining, ...)
	WorkType    string `json:"workType,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assignedTo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
