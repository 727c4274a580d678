package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/internal/storage"
)

// getStatistics handles GET /api/v1/stats
func (s *Server) getStatistics(c echo.Context) error {
	stats, err := storage.ComputeStats(c.Request().Context(), s.store)
	if err != nil {
		return InternalError("Failed to compute statistics", err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}
