// Package api provides the HTTP API server for AquaAlert.
// It uses Echo framework to serve REST endpoints and WebSocket connections
// for real-time fleet monitoring.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"aquaalert.org/aquaalert/internal/auth"
	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/internal/dispatch"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/internal/version"
)

// Server represents the AquaAlert API server.
type Server struct {
	echo       *echo.Echo
	store      storage.Store
	controller *dispatch.Controller
	config     *config.Config
	wsHub      *Hub // WebSocket hub for real-time updates
	authMiddle *auth.Middleware
	jwtService *auth.JWTService
}

// requestValidator adapts go-playground/validator to Echo's Validator
// interface.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return BadRequestError("Validation failed", err.Error())
	}
	return nil
}

// debugLog logs a message only if debug mode is enabled in config
func (s *Server) debugLog(format string, args ...interface{}) {
	if s.config.Server.Debug {
		log.Printf(format, args...)
	}
}

// New creates a new API server instance.
func New(cfg *config.Config, store storage.Store) *Server {
	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug
	e.Validator = &requestValidator{validate: validator.New()}

	// Set custom error handler
	e.HTTPErrorHandler = HTTPErrorHandler

	// Create WebSocket hub
	hub := NewHub()

	// Create auth middleware
	authMiddle := auth.NewMiddleware(cfg)

	// Create server instance
	server := &Server{
		echo:       e,
		store:      store,
		controller: dispatch.NewController(store),
		config:     cfg,
		wsHub:      hub,
		authMiddle: authMiddle,
		jwtService: auth.NewJWTService(cfg),
	}

	// Start WebSocket hub in background
	go hub.Run()

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// Controller exposes the lifecycle controller, shared with the background
// scheduler so that both go through the same serialised write path.
func (s *Server) Controller() *dispatch.Controller {
	return s.controller
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Logger middleware
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
	}))

	// Recover middleware
	s.echo.Use(middleware.Recover())

	// Security headers middleware
	s.echo.Use(SecurityHeaders)

	// CORS middleware
	if len(s.config.Security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Rate limiting
	if s.config.Security.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Security.RateLimit),
		)))
	}

	// Content-Type validation middleware for API routes
	s.echo.Use(ValidateContentType)

	// Accept header validation middleware
	s.echo.Use(ValidateAcceptHeader)
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/", s.healthCheck)

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	// Bowser routes
	bowsers := v1.Group("/bowsers")
	bowsers.GET("", s.listBowsers, s.authMiddle.RequireRead)
	bowsers.GET("/:id", s.getBowser, ValidateIDFormat, s.authMiddle.RequireRead)
	bowsers.POST("", s.createBowser, s.authMiddle.RequireWrite)
	bowsers.PUT("/:id", s.updateBowser, ValidateIDFormat, s.authMiddle.RequireWrite)
	bowsers.POST("/:id/status", s.setBowserStatus, ValidateIDFormat, s.authMiddle.RequireWrite)
	bowsers.DELETE("/:id", s.deleteBowser, ValidateIDFormat, s.authMiddle.RequireWrite)

	// Location routes
	locations := v1.Group("/locations")
	locations.GET("", s.listLocations, s.authMiddle.RequireRead)
	locations.GET("/:id", s.getLocation, ValidateIDFormat, s.authMiddle.RequireRead)
	locations.POST("", s.createLocation, s.authMiddle.RequireWrite)
	locations.PUT("/:id", s.updateLocation, ValidateIDFormat, s.authMiddle.RequireWrite)
	locations.DELETE("/:id", s.deleteLocation, ValidateIDFormat, s.authMiddle.RequireWrite)

	// Deployment routes
	deployments := v1.Group("/deployments")
	deployments.GET("", s.listDeployments, s.authMiddle.RequireRead)
	deployments.GET("/rankings", s.getRankings, s.authMiddle.RequireRead)
	deployments.GET("/:id", s.getDeployment, ValidateIDFormat, s.authMiddle.RequireRead)
	deployments.GET("/:id/score", s.getDeploymentScore, ValidateIDFormat, s.authMiddle.RequireRead)
	deployments.POST("", s.createDeployment, s.authMiddle.RequireWrite)
	deployments.POST("/:id/complete", s.completeDeployment, ValidateIDFormat, s.authMiddle.RequireWrite)
	deployments.POST("/:id/cancel", s.cancelDeployment, ValidateIDFormat, s.authMiddle.RequireWrite)
	deployments.PUT("/:id/priority", s.updateDeploymentPriority, ValidateIDFormat, s.authMiddle.RequireWrite)

	// Maintenance routes
	maintenance := v1.Group("/maintenance")
	maintenance.GET("", s.listMaintenance, s.authMiddle.RequireRead)
	maintenance.GET("/:id", s.getMaintenance, ValidateIDFormat, s.authMiddle.RequireRead)
	maintenance.POST("", s.createMaintenance, s.authMiddle.RequireWrite)
	maintenance.PUT("/:id", s.updateMaintenance, ValidateIDFormat, s.authMiddle.RequireWrite)
	maintenance.DELETE("/:id", s.deleteMaintenance, ValidateIDFormat, s.authMiddle.RequireWrite)

	// Alert routes
	alerts := v1.Group("/alerts")
	alerts.GET("", s.listAlerts, s.authMiddle.RequireRead)
	alerts.GET("/:id", s.getAlert, ValidateIDFormat, s.authMiddle.RequireRead)
	alerts.POST("", s.createAlert, s.authMiddle.RequireWrite)
	alerts.POST("/:id/acknowledge", s.acknowledgeAlert, ValidateIDFormat, s.authMiddle.RequireWrite)
	alerts.POST("/:id/resolve", s.resolveAlert, ValidateIDFormat, s.authMiddle.RequireWrite)
	alerts.DELETE("/:id", s.deleteAlert, ValidateIDFormat, s.authMiddle.RequireAdmin)

	// Authentication routes
	authRoutes := v1.Group("/auth")
	authRoutes.POST("/login", s.login)
	authRoutes.POST("/refresh", s.refresh)
	authRoutes.GET("/me", s.me, s.authMiddle.RequireAuth)

	// User management routes
	users := v1.Group("/users")
	users.GET("", s.listUsers, s.authMiddle.RequireAdmin)
	users.GET("/:id", s.getUser, s.authMiddle.RequireAdmin)
	users.POST("", s.createUser, s.authMiddle.RequireAdmin)
	users.PUT("/:id", s.updateUser, s.authMiddle.RequireAdmin)
	users.DELETE("/:id", s.deleteUser, s.authMiddle.RequireAdmin)
	users.POST("/password", s.changePassword, s.authMiddle.RequireAuth)

	// Statistics routes
	v1.GET("/stats", s.getStatistics, s.authMiddle.RequireRead)

	// WebSocket routes
	ws := v1.Group("/ws")
	ws.GET("/fleet", s.handleWebSocket, s.authMiddle.RequireRead)
	ws.GET("/stats", s.getWebSocketStats, s.authMiddle.RequireRead)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	fmt.Printf("Starting AquaAlert API Server\n")
	fmt.Printf("   Address: http://%s\n", addr)
	fmt.Printf("   Store: %s\n", s.config.Store.Backend)
	fmt.Printf("   Debug: %v\n", s.config.Server.Debug)
	fmt.Println()

	// Configure server timeouts
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	// Start server
	if s.config.Server.TLSEnabled {
		return s.echo.StartTLS(addr, s.config.Server.TLSCert, s.config.Server.TLSKey)
	}

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Println("\nShutting down AquaAlert API Server...")

	// Shutdown Echo server
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	// Close storage
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("error closing storage: %w", err)
	}

	fmt.Println("Server shutdown complete")
	return nil
}

// healthCheck handles health check requests.
func (s *Server) healthCheck(c echo.Context) error {
	// A cheap read verifies the store connection
	if _, err := s.store.ListBowsers(c.Request().Context(), nil); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   "store connection failed",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "aquaalert",
		"version": version.Version,
		"store":   s.config.Store.Backend,
	})
}

// BroadcastFleetEvent broadcasts a fleet event to all WebSocket clients
func (s *Server) BroadcastFleetEvent(eventType FleetEventType, data interface{}) {
	event := FleetEvent{
		Type: eventType,
		Data: data,
	}
	if err := s.wsHub.BroadcastEvent(event); err != nil {
		log.Printf("ERROR: Failed to broadcast event: %v", err)
	} else {
		s.debugLog("DEBUG: broadcast %s event to %d clients", eventType, s.wsHub.ClientCount())
	}
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
