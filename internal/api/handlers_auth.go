package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/internal/auth"
	"aquaalert.org/aquaalert/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User         models.UserResponse `json:"user"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresAt    time.Time           `json:"expires_at"`
	TokenType    string              `json:"token_type"`
}

// login handles POST /api/v1/auth/login
func (s *Server) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Get user by username
	user, err := s.store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	// Check if user is enabled
	if !user.Enabled {
		return echo.NewHTTPError(http.StatusUnauthorized, "user account is disabled")
	}

	// Verify password
	if err := auth.ComparePassword(req.Password, user.PasswordHash); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	// Generate token pair
	tokenPair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return InternalError("Failed to generate tokens", err.Error())
	}

	return c.JSON(http.StatusOK, LoginResponse{
		User:         user.Response(),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
		TokenType:    tokenPair.TokenType,
	})
}

// refresh handles POST /api/v1/auth/refresh
//
// Refresh tokens are not stored server side: they are long-lived signed
// tokens, so possession of a valid one is sufficient to mint a new pair.
func (s *Server) refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims, err := s.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	// Re-read the account so disabled users and role changes take effect
	user, err := s.store.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if !user.Enabled {
		return echo.NewHTTPError(http.StatusUnauthorized, "user account is disabled")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return InternalError("Failed to generate tokens", err.Error())
	}

	return c.JSON(http.StatusOK, LoginResponse{
		User:         user.Response(),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
		TokenType:    tokenPair.TokenType,
	})
}

// me handles GET /api/v1/auth/me
func (s *Server) me(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, err := s.store.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return NotFoundError("user", claims.UserID)
	}

	return c.JSON(http.StatusOK, user.Response())
}
