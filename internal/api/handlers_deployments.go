package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/internal/dispatch"
)

// CreateDeploymentRequest represents a deployment creation request.
type CreateDeploymentRequest struct {
	BowserID                    string     `json:"bowserId" validate:"required"`
	LocationID                  string     `json:"locationId" validate:"required"`
	StartDate                   *time.Time `json:"startDate"`
	Priority                    string     `json:"priority"`
	EmergencyReason             string     `json:"emergencyReason"`
	PopulationAffected          int        `json:"populationAffected"`
	ExpectedDurationDays        int        `json:"expectedDurationDays"`
	AlternativeSourcesAvailable bool       `json:"alternativeSourcesAvailable"`
	VulnerabilityIndex          int        `json:"vulnerabilityIndex"`
	Notes                       string     `json:"notes"`
}

// CompleteDeploymentRequest represents a deployment completion request.
// EndDate is optional and defaults to the current time.
type CompleteDeploymentRequest struct {
	EndDate *time.Time `json:"endDate"`
}

// UpdatePriorityRequest represents a priority reassessment request.
type UpdatePriorityRequest struct {
	Priority                    string `json:"priority" validate:"required"`
	EmergencyReason             string `json:"emergencyReason"`
	PopulationAffected          int    `json:"populationAffected"`
	ExpectedDurationDays        int    `json:"expectedDurationDays"`
	AlternativeSourcesAvailable bool   `json:"alternativeSourcesAvailable"`
	VulnerabilityIndex          int    `json:"vulnerabilityIndex"`
	Notes                       string `json:"notes"`
}

// listDeployments handles GET /api/v1/deployments
func (s *Server) listDeployments(c echo.Context) error {
	filters := make(map[string]interface{})

	if status := c.QueryParam("status"); status != "" {
		filters["status"] = status
	}
	if bowserID := c.QueryParam("bowserId"); bowserID != "" {
		filters["bowserId"] = bowserID
	}
	if locationID := c.QueryParam("locationId"); locationID != "" {
		filters["locationId"] = locationID
	}
	if priority := c.QueryParam("priority"); priority != "" {
		filters["priority"] = priority
	}

	limit, offset := parsePagination(c)

	deployments, err := s.store.ListDeployments(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to list deployments",
			Details: err.Error(),
		})
	}

	total := len(deployments)
	deployments = paginate(deployments, limit, offset)

	return c.JSON(http.StatusOK, PaginatedDeploymentsResponse{
		Count:       len(deployments),
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		Deployments: deployments,
	})
}

// getDeployment handles GET /api/v1/deployments/:id
func (s *Server) getDeployment(c echo.Context) error {
	id := c.Param("id")

	deployment, err := s.store.GetDeployment(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("deployment", id)
	}

	return c.JSON(http.StatusOK, deployment)
}

// createDeployment handles POST /api/v1/deployments
func (s *Server) createDeployment(c echo.Context) error {
	var req CreateDeploymentRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := dispatch.CreateDeploymentInput{
		BowserID:                    req.BowserID,
		LocationID:                  req.LocationID,
		Priority:                    req.Priority,
		EmergencyReason:             req.EmergencyReason,
		PopulationAffected:          req.PopulationAffected,
		ExpectedDurationDays:        req.ExpectedDurationDays,
		AlternativeSourcesAvailable: req.AlternativeSourcesAvailable,
		VulnerabilityIndex:          req.VulnerabilityIndex,
		Notes:                       req.Notes,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	deployment, err := s.controller.CreateDeployment(c.Request().Context(), in)
	if err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventDeploymentCreated, deployment)

	return c.JSON(http.StatusCreated, deployment)
}

// completeDeployment handles POST /api/v1/deployments/:id/complete
func (s *Server) completeDeployment(c echo.Context) error {
	id := c.Param("id")

	var req CompleteDeploymentRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return BadRequestError("Invalid request body", err.Error())
		}
	}

	var endDate time.Time
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	deployment, err := s.controller.CompleteDeployment(c.Request().Context(), id, endDate)
	if err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventDeploymentClosed, deployment)

	return c.JSON(http.StatusOK, deployment)
}

// cancelDeployment handles POST /api/v1/deployments/:id/cancel
func (s *Server) cancelDeployment(c echo.Context) error {
	id := c.Param("id")

	deployment, err := s.controller.CancelDeployment(c.Request().Context(), id)
	if err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventDeploymentClosed, deployment)

	return c.JSON(http.StatusOK, deployment)
}

// updateDeploymentPriority handles PUT /api/v1/deployments/:id/priority
func (s *Server) updateDeploymentPriority(c echo.Context) error {
	id := c.Param("id")

	var req UpdatePriorityRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	deployment, err := s.controller.UpdatePriority(c.Request().Context(), id, dispatch.PriorityUpdate{
		Priority:                    req.Priority,
		EmergencyReason:             req.EmergencyReason,
		PopulationAffected:          req.PopulationAffected,
		ExpectedDurationDays:        req.ExpectedDurationDays,
		AlternativeSourcesAvailable: req.AlternativeSourcesAvailable,
		VulnerabilityIndex:          req.VulnerabilityIndex,
		Notes:                       req.Notes,
	})
	if err != nil {
		return dispatchError(err)
	}

	// Broadcast WebSocket event
	s.BroadcastFleetEvent(EventDeploymentUpdated, deployment)

	return c.JSON(http.StatusOK, deployment)
}

// getRankings handles GET /api/v1/deployments/rankings
func (s *Server) getRankings(c echo.Context) error {
	ranked, err := s.controller.RankActive(c.Request().Context())
	if err != nil {
		return dispatchError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(ranked),
		"rankings": ranked,
	})
}

// getDeploymentScore handles GET /api/v1/deployments/:id/score
func (s *Server) getDeploymentScore(c echo.Context) error {
	id := c.Param("id")

	score, err := s.controller.ComputeScore(c.Request().Context(), id)
	if err != nil {
		return dispatchError(err)
	}

	return c.JSON(http.StatusOK, ScoreResponse{
		DeploymentID: id,
		Score:        score,
	})
}
