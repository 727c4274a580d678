package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Document type discriminators stored in the "type" field. All entities
// share one CouchDB database; List queries select on this field.
const (
	TypeBowser      = "Bowser"
	TypeLocation    = "Location"
	TypeDeployment  = "Deployment"
	TypeMaintenance = "MaintenanceRecord"
	TypeAlert       = "Alert"
	TypeUser        = "User"
)

// GenerateID generates a unique ID with the given prefix.
// Example: GenerateID("bowser") -> "bowser:uuid-here"
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s:%s", prefix, uuid.New().String())
}
