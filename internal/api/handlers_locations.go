package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/models"
)

// listLocations handles GET /api/v1/locations
func (s *Server) listLocations(c echo.Context) error {
	filters := make(map[string]interface{})

	if category := c.QueryParam("category"); category != "" {
		filters["category"] = category
	}

	limit, offset := parsePagination(c)

	locations, err := s.store.ListLocations(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to list locations",
			Details: err.Error(),
		})
	}

	total := len(locations)
	locations = paginate(locations, limit, offset)

	return c.JSON(http.StatusOK, PaginatedLocationsResponse{
		Count:     len(locations),
		Total:     total,
		Limit:     limit,
		Offset:    offset,
		Locations: locations,
	})
}

// getLocation handles GET /api/v1/locations/:id
func (s *Server) getLocation(c echo.Context) error {
	id := c.Param("id")

	location, err := s.store.GetLocation(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("location", id)
	}

	return c.JSON(http.StatusOK, location)
}

// createLocation handles POST /api/v1/locations
func (s *Server) createLocation(c echo.Context) error {
	var location models.Location

	if err := c.Bind(&location); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if location.Name == "" {
		return BadRequestError("Validation failed", "name is required")
	}

	if location.ID == "" {
		location.ID = models.GenerateID("location")
	}
	location.CreatedAt = time.Now()

	if err := s.store.SaveLocation(c.Request().Context(), &location); err != nil {
		return InternalError("Failed to create location", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventLocationAdded, location)

	return c.JSON(http.StatusCreated, location)
}

// updateLocation handles PUT /api/v1/locations/:id
func (s *Server) updateLocation(c echo.Context) error {
	id := c.Param("id")

	existing, err := s.store.GetLocation(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("location", id)
	}

	var location models.Location
	if err := c.Bind(&location); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}

	if location.Name == "" {
		return BadRequestError("Validation failed", "name is required")
	}

	// Preserve ID and revision
	location.ID = id
	location.Rev = existing.Rev
	location.CreatedAt = existing.CreatedAt

	if err := s.store.SaveLocation(c.Request().Context(), &location); err != nil {
		return InternalError("Failed to update location", err.Error())
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventLocationUpdated, location)

	return c.JSON(http.StatusOK, location)
}

// deleteLocation handles DELETE /api/v1/locations/:id
func (s *Server) deleteLocation(c echo.Context) error {
	id := c.Param("id")

	if err := s.controller.DeleteLocation(c.Request().Context(), id); err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventLocationRemoved, map[string]string{"id": id})

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "location deleted successfully",
		ID:      id,
	})
}
