package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/models"
)

// listMaintenance handles GET /api/v1/maintenance
func (s *Server) listMaintenance(c echo.Context) error {
	filters := make(map[string]interface{})

	if status := c.QueryParam("status"); status != "" {
		filters["status"] = status
	}
	if bowserID := c.QueryParam("bowserId"); bowserID != "" {
		filters["bowserId"] = bowserID
	}

	records, err := s.store.ListMaintenance(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to list maintenance records",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, MaintenanceResponse{
		Count:   len(records),
		Records: records,
	})
}

// getMaintenance handles GET /api/v1/maintenance/:id
func (s *Server) getMaintenance(c echo.Context) error {
	id := c.Param("id")

	record, err := s.store.GetMaintenance(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("maintenance record", id)
	}

	return c.JSON(http.StatusOK, record)
}

// createMaintenance handles POST /api/v1/maintenance
func (s *Server) createMaintenance(c echo.Context) error {
	var record models.MaintenanceRecord

	if err := c.Bind(&record); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if record.BowserID == "" {
		return BadRequestError("Validation failed", "bowserId is required")
	}
	if record.ScheduledDate.IsZero() {
		return BadRequestError("Validation failed", "scheduledDate is required")
	}

	// The referenced bowser must exist
	if _, err := s.store.GetBowser(c.Request().Context(), record.BowserID); err != nil {
		return NotFoundError("bowser", record.BowserID)
	}

	if record.Status == "" {
		record.Status = models.MaintenanceStatusScheduled
	}
	switch record.Status {
	case models.MaintenanceStatusScheduled, models.MaintenanceStatusInProgress,
		models.MaintenanceStatusCompleted, models.MaintenanceStatusOverdue:
	default:
		return BadRequestError("Validation failed", "unknown maintenance status: "+record.Status)
	}

	if record.ID == "" {
		record.ID = models.GenerateID("maintenance")
	}
	record.CreatedAt = time.Now()

	if err := s.store.SaveMaintenance(c.Request().Context(), &record); err != nil {
		return InternalError("Failed to create maintenance record", err.Error())
	}

	return c.JSON(http.StatusCreated, record)
}

// updateMaintenance handles PUT /api/v1/maintenance/:id
func (s *Server) updateMaintenance(c echo.Context) error {
	id := c.Param("id")

	existing, err := s.store.GetMaintenance(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("maintenance record", id)
	}

	var record models.MaintenanceRecord
	if err := c.Bind(&record); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	switch record.Status {
	case models.MaintenanceStatusScheduled, models.MaintenanceStatusInProgress,
		models.MaintenanceStatusCompleted, models.MaintenanceStatusOverdue:
	default:
		return BadRequestError("Validation failed", "unknown maintenance status: "+record.Status)
	}

	// Preserve identity and linkage
	record.ID = id
	record.Rev = existing.Rev
	record.BowserID = existing.BowserID
	record.CreatedAt = existing.CreatedAt

	if err := s.store.SaveMaintenance(c.Request().Context(), &record); err != nil {
		return InternalError("Failed to update maintenance record", err.Error())
	}

	// Completing a service updates the bowser's maintenance date
	if record.Status == models.MaintenanceStatusCompleted && existing.Status != models.MaintenanceStatusCompleted {
		if bowser, err := s.store.GetBowser(c.Request().Context(), record.BowserID); err == nil {
			now := time.Now()
			bowser.LastMaintenance = &now
			if err := s.store.SaveBowser(c.Request().Context(), bowser); err != nil {
				s.debugLog("failed to update last maintenance date for %s: %v", bowser.ID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, record)
}

// deleteMaintenance handles DELETE /api/v1/maintenance/:id
func (s *Server) deleteMaintenance(c echo.Context) error {
	id := c.Param("id")

	if _, err := s.store.GetMaintenance(c.Request().Context(), id); err != nil {
		return NotFoundError("maintenance record", id)
	}

	if err := s.store.DeleteMaintenance(c.Request().Context(), id); err != nil {
		return InternalError("Failed to delete maintenance record", err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "maintenance record deleted successfully",
		ID:      id,
	})
}
