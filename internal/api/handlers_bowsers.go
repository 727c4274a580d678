package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/models"
)

// SetStatusRequest represents an operator status change request.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// listBowsers handles GET /api/v1/bowsers
func (s *Server) listBowsers(c echo.Context) error {
	// Parse query parameters
	filters := make(map[string]interface{})

	if status := c.QueryParam("status"); status != "" {
		filters["status"] = status
	}
	if owner := c.QueryParam("owner"); owner != "" {
		filters["owner"] = owner
	}

	// Parse pagination parameters
	limit, offset := parsePagination(c)

	bowsers, err := s.store.ListBowsers(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to list bowsers",
			Details: err.Error(),
		})
	}

	// Get total count before pagination
	total := len(bowsers)

	// Apply pagination
	bowsers = paginate(bowsers, limit, offset)

	return c.JSON(http.StatusOK, PaginatedBowsersResponse{
		Count:   len(bowsers),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Bowsers: bowsers,
	})
}

// getBowser handles GET /api/v1/bowsers/:id
func (s *Server) getBowser(c echo.Context) error {
	id := c.Param("id")

	bowser, err := s.store.GetBowser(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("bowser", id)
	}

	return c.JSON(http.StatusOK, bowser)
}

// createBowser handles POST /api/v1/bowsers
func (s *Server) createBowser(c echo.Context) error {
	var bowser models.Bowser

	if err := c.Bind(&bowser); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	// Validate required fields
	if bowser.Number == "" {
		return BadRequestError("Validation failed", "number is required")
	}
	if bowser.Capacity <= 0 {
		return BadRequestError("Validation failed", "capacity must be positive")
	}
	if bowser.CurrentLevel < 0 || bowser.CurrentLevel > bowser.Capacity {
		return BadRequestError("Validation failed", "currentLevel must be between 0 and capacity")
	}

	// New bowsers start in an operator-settable status
	if bowser.Status == "" {
		bowser.Status = models.BowserStatusActive
	}
	if !models.ValidOperatorStatus(bowser.Status) {
		return BadRequestError("Validation failed", "status must be one of: active, standby, maintenance, out_of_service")
	}

	// Generate ID if not provided
	if bowser.ID == "" {
		bowser.ID = models.GenerateID("bowser")
	}
	bowser.CreatedAt = time.Now()

	if err := s.store.SaveBowser(c.Request().Context(), &bowser); err != nil {
		return InternalError("Failed to create bowser", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventBowserAdded, bowser)

	return c.JSON(http.StatusCreated, bowser)
}

// updateBowser handles PUT /api/v1/bowsers/:id
//
// The status field is ignored here: status changes go through
// POST /bowsers/:id/status so that the lifecycle rules always apply.
func (s *Server) updateBowser(c echo.Context) error {
	id := c.Param("id")

	existing, err := s.store.GetBowser(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("bowser", id)
	}

	var bowser models.Bowser
	if err := c.Bind(&bowser); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if bowser.Capacity <= 0 {
		return BadRequestError("Validation failed", "capacity must be positive")
	}
	if bowser.CurrentLevel < 0 || bowser.CurrentLevel > bowser.Capacity {
		return BadRequestError("Validation failed", "currentLevel must be between 0 and capacity")
	}

	// Preserve identity and lifecycle-owned fields
	bowser.ID = id
	bowser.Rev = existing.Rev
	bowser.Status = existing.Status
	bowser.CreatedAt = existing.CreatedAt

	if err := s.store.SaveBowser(c.Request().Context(), &bowser); err != nil {
		return InternalError("Failed to update bowser", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventBowserUpdated, bowser)

	return c.JSON(http.StatusOK, bowser)
}

// setBowserStatus handles POST /api/v1/bowsers/:id/status
func (s *Server) setBowserStatus(c echo.Context) error {
	id := c.Param("id")

	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bowser, err := s.controller.SetBowserStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventBowserUpdated, bowser)

	return c.JSON(http.StatusOK, bowser)
}

// deleteBowser handles DELETE /api/v1/bowsers/:id
func (s *Server) deleteBowser(c echo.Context) error {
	id := c.Param("id")

	if err := s.controller.DeleteBowser(c.Request().Context(), id); err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventBowserRemoved, map[string]string{"id": id})

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "bowser deleted successfully",
		ID:      id,
	})
}
