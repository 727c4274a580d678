package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/internal/auth"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Username string        `json:"username" validate:"required,min=3,max=50"`
	Password string        `json:"password" validate:"required,min=8"`
	Email    string        `json:"email" validate:"required,email"`
	Roles    []models.Role `json:"roles"`
}

// UpdateUserRequest represents a user update request
type UpdateUserRequest struct {
	Email   string        `json:"email" validate:"omitempty,email"`
	Roles   []models.Role `json:"roles"`
	Enabled *bool         `json:"enabled"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func validRoles(roles []models.Role) bool {
	for _, r := range roles {
		switch r {
		case models.RoleAdmin, models.RoleStaff, models.RoleViewer:
		default:
			return false
		}
	}
	return true
}

// listUsers handles GET /api/v1/users
func (s *Server) listUsers(c echo.Context) error {
	users, err := s.store.ListUsers(c.Request().Context(), nil)
	if err != nil {
		return InternalError("Failed to list users", err.Error())
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.Response())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(responses),
		"users": responses,
	})
}

// getUser handles GET /api/v1/users/:id
func (s *Server) getUser(c echo.Context) error {
	id := c.Param("id")

	user, err := s.store.GetUser(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("user", id)
	}

	return c.JSON(http.StatusOK, user.Response())
}

// createUser handles POST /api/v1/users
func (s *Server) createUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !validRoles(req.Roles) {
		return BadRequestError("Validation failed", "roles must be admin, staff or viewer")
	}

	// Usernames are unique
	if _, err := s.store.GetUserByUsername(c.Request().Context(), req.Username); err == nil {
		return ConflictError("Conflict", "username already exists")
	} else if !storage.IsNotFound(err) {
		return InternalError("Failed to check username", err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return InternalError("Failed to hash password", err.Error())
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []models.Role{models.RoleViewer}
	}

	user := &models.User{
		ID:           models.GenerateID("user"),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        roles,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}

	if err := s.store.SaveUser(c.Request().Context(), user); err != nil {
		return InternalError("Failed to create user", err.Error())
	}

	return c.JSON(http.StatusCreated, user.Response())
}

// updateUser handles PUT /api/v1/users/:id
func (s *Server) updateUser(c echo.Context) error {
	id := c.Param("id")

	user, err := s.store.GetUser(c.Request().Context(), id)
	if err != nil {
		return NotFoundError("user", id)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !validRoles(req.Roles) {
		return BadRequestError("Validation failed", "roles must be admin, staff or viewer")
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Roles != nil {
		user.Roles = req.Roles
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}

	if err := s.store.SaveUser(c.Request().Context(), user); err != nil {
		return InternalError("Failed to update user", err.Error())
	}

	return c.JSON(http.StatusOK, user.Response())
}

// deleteUser handles DELETE /api/v1/users/:id
func (s *Server) deleteUser(c echo.Context) error {
	id := c.Param("id")

	// An admin cannot delete their own account
	if claims, ok := auth.GetClaims(c); ok && claims.UserID == id {
		return ConflictError("Conflict", "cannot delete your own account")
	}

	if _, err := s.store.GetUser(c.Request().Context(), id); err != nil {
		return NotFoundError("user", id)
	}

	if err := s.store.DeleteUser(c.Request().Context(), id); err != nil {
		return InternalError("Failed to delete user", err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: "user deleted successfully",
		ID:      id,
	})
}

// changePassword handles POST /api/v1/users/password
func (s *Server) changePassword(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := s.store.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return NotFoundError("user", claims.UserID)
	}

	if err := auth.ComparePassword(req.CurrentPassword, user.PasswordHash); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return InternalError("Failed to hash password", err.Error())
	}
	user.PasswordHash = hash

	if err := s.store.SaveUser(c.Request().Context(), user); err != nil {
		return InternalError("Failed to update password", err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "password changed successfully"})
}
