package api

import (
	"aquaalert.org/aquaalert/models"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// PaginatedBowsersResponse represents a paginated list of bowsers.
type PaginatedBowsersResponse struct {
	Count   int              `json:"count"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Bowsers []*models.Bowser `json:"bowsers"`
}

// PaginatedLocationsResponse represents a paginated list of locations.
type PaginatedLocationsResponse struct {
	Count     int                `json:"count"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	Locations []*models.Location `json:"locations"`
}

// PaginatedDeploymentsResponse represents a paginated list of deployments.
type PaginatedDeploymentsResponse struct {
	Count       int                  `json:"count"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
	Deployments []*models.Deployment `json:"deployments"`
}

// MaintenanceResponse represents a list of maintenance records.
type MaintenanceResponse struct {
	Count   int                         `json:"count"`
	Records []*models.MaintenanceRecord `json:"records"`
}

// AlertsResponse represents a list of alerts.
type AlertsResponse struct {
	Count  int             `json:"count"`
	Alerts []*models.Alert `json:"alerts"`
}

// ScoreResponse represents a computed priority score.
type ScoreResponse struct {
	DeploymentID string `json:"deployment_id"`
	Score        int    `json:"score"`
}
