package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/models"
)

// listAlerts handles GET /api/v1/alerts
func (s *Server) listAlerts(c echo.Context) error {
	filters := make(map[string]interface{})

	if status := c.QueryParam("status"); status != "" {
		filters["status"] = status
	}
	if priority := c.QueryParam("priority"); priority != "" {
		filters["priority"] = priority
	}

	alerts, err := s.store.ListAlerts(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to list alerts",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, AlertsResponse{
		Count:  len(alerts),
		Alerts: alerts,
	})
}

// getAlert handles GET /api/v1/alerts/:id
func (s *Server) getAlert(c echo.Context) error {
	id := c.Param("id")

	alert, err := s.store.GetAlert(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("alert", id)
	}

	return c.JSON(http.StatusOK, alert)
}

// createAlert handles POST /api/v1/alerts
func (s *Server) createAlert(c echo.Context) error {
	var alert models.Alert

	if err := c.Bind(&alert); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if alert.Title == "" {
		return BadRequestError("Validation failed", "title is required")
	}
	if alert.Message == "" {
		return BadRequestError("Validation failed", "message is required")
	}

	if alert.ID == "" {
		alert.ID = models.GenerateID("alert")
	}
	alert.Status = models.AlertStatusActive
	alert.ResolvedAt = nil
	alert.CreatedAt = time.Now()

	if err := s.store.SaveAlert(c.Request().Context(), &alert); err != nil {
		return InternalError("Failed to create alert", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventAlertRaised, alert)

	return c.JSON(http.StatusCreated, alert)
}

// acknowledgeAlert handles POST /api/v1/alerts/:id/acknowledge
func (s *Server) acknowledgeAlert(c echo.Context) error {
	id := c.Param("id")

	alert, err := s.store.GetAlert(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("alert", id)
	}

	if alert.Status == models.AlertStatusResolved {
		return ConflictError("Conflict", "alert is already resolved")
	}

	alert.Status = models.AlertStatusAcknowledged
	if err := s.store.SaveAlert(c.Request().Context(), alert); err != nil {
		return InternalError("Failed to acknowledge alert", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventAlertUpdated, alert)

	return c.JSON(http.StatusOK, alert)
}

// resolveAlert handles POST /api/v1/alerts/:id/resolve
func (s *Server) resolveAlert(c echo.Context) error {
	id := c.Param("id")

	alert, err := s.store.GetAlert(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("alert", id)
	}

	if alert.Status != models.AlertStatusResolved {
		now := time.Now()
		alert.Status = models.AlertStatusResolved
		alert.ResolvedAt = &now
		if err := s.store.SaveAlert(c.Request().Context(), alert); err != nil {
			return InternalError("Failed to resolve alert", err.Error())
		}

		// Broadcast WebSocket event
		s.BroadcastFleetEvent(EventAlertUpdated, alert)
	}

	return c.JSON(http.StatusOK, alert)
}

// deleteAlert handles DELETE /api/v1/alerts/:id
func (s *Server) deleteAlert(c echo.Context) error {
	id := c.Param("id")

	if _, err := s.store.GetAlert(c.Request().Context(), id); err != nil {
		return NotFoundError("alert", id)
	}

	if err := s.store.DeleteAlert(c.Request().Context(), id); err != nil {
		return InternalError("Failed to delete alert", err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "alert deleted successfully",
		ID:      id,
	})
}
