//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aquaalert.org/aquaalert/internal/api"
	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

func getTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8086},
		Store:  config.StoreConfig{Backend: "memory"},
		Security: config.SecurityConfig{
			AuthEnabled: false,
			JWTSecret:   "integration-test-secret",
		},
	}
}

func request(t *testing.T, server *api.Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

// TestFleetWorkflow drives the full dispatch cycle: register a bowser and a
// location, deploy, check rankings, then complete and verify the bowser is
// released back to the fleet.
func TestFleetWorkflow(t *testing.T) {
	cfg := getTestConfig()
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	server := api.New(cfg, store)

	var bowser models.Bowser
	t.Run("Register Bowser", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
			"number":       "WB-100",
			"capacity":     10000,
			"currentLevel": 10000,
			"owner":        "Northern Water",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &bowser); err != nil {
			t.Fatalf("Failed to decode bowser: %v", err)
		}
		if bowser.Status != models.BowserStatusActive {
			t.Errorf("Expected status active, got %s", bowser.Status)
		}
	})

	var location models.Location
	t.Run("Register Location", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/locations", map[string]interface{}{
			"name":     "Moorside Care Home",
			"address":  "1 Moorside Lane, LS1 1AA",
			"category": "care_home",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &location); err != nil {
			t.Fatalf("Failed to decode location: %v", err)
		}
	})

	var deployment models.Deployment
	t.Run("Create Deployment", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/deployments", map[string]interface{}{
			"bowserId":           bowser.ID,
			"locationId":         location.ID,
			"priority":           models.PriorityEmergency,
			"emergencyReason":    "burst trunk main",
			"populationAffected": 300,
			"vulnerabilityIndex": 8,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &deployment); err != nil {
			t.Fatalf("Failed to decode deployment: %v", err)
		}
		if deployment.Status != models.DeploymentStatusActive {
			t.Errorf("Expected status active, got %s", deployment.Status)
		}
	})

	t.Run("Bowser Is Deployed", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/api/v1/bowsers/"+bowser.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var current models.Bowser
		if err := json.Unmarshal(rec.Body.Bytes(), &current); err != nil {
			t.Fatalf("Failed to decode bowser: %v", err)
		}
		if current.Status != models.BowserStatusDeployed {
			t.Errorf("Expected status deployed, got %s", current.Status)
		}
	})

	t.Run("Double Booking Rejected", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/deployments", map[string]interface{}{
			"bowserId":   bowser.ID,
			"locationId": location.ID,
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Rankings Include Deployment", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/api/v1/deployments/rankings", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var result struct {
			Count    int `json:"count"`
			Rankings []struct {
				Deployment models.Deployment `json:"deployment"`
				Score      int               `json:"score"`
			} `json:"rankings"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to decode rankings: %v", err)
		}
		if result.Count != 1 {
			t.Fatalf("Expected 1 ranking, got %d", result.Count)
		}
		// emergency base 90, population 300/100, vulnerability 8, capped at 100
		if result.Rankings[0].Score != 100 {
			t.Errorf("Expected score 100, got %d", result.Rankings[0].Score)
		}
	})

	t.Run("Complete Deployment", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/deployments/"+deployment.ID+"/complete", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var closed models.Deployment
		if err := json.Unmarshal(rec.Body.Bytes(), &closed); err != nil {
			t.Fatalf("Failed to decode deployment: %v", err)
		}
		if closed.Status != models.DeploymentStatusCompleted {
			t.Errorf("Expected status completed, got %s", closed.Status)
		}
		if closed.EndDate == nil {
			t.Error("Expected end date to be set")
		}
	})

	t.Run("Bowser Released", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/api/v1/bowsers/"+bowser.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var current models.Bowser
		if err := json.Unmarshal(rec.Body.Bytes(), &current); err != nil {
			t.Fatalf("Failed to decode bowser: %v", err)
		}
		if current.Status != models.BowserStatusActive {
			t.Errorf("Expected status active, got %s", current.Status)
		}
	})

	t.Run("Completed Deployment Stays Closed", func(t *testing.T) {
		rec := request(t, server, http.MethodPost, "/api/v1/deployments/"+deployment.ID+"/cancel", nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Stats Reflect Fleet", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/api/v1/stats", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var stats storage.Statistics
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("Failed to decode stats: %v", err)
		}
		if stats.TotalBowsers != 1 {
			t.Errorf("Expected 1 bowser, got %d", stats.TotalBowsers)
		}
		if stats.ActiveDeployments != 0 {
			t.Errorf("Expected 0 active deployments, got %d", stats.ActiveDeployments)
		}
	})
}

// TestAuthWorkflow verifies the token flow when authentication is enabled.
func TestAuthWorkflow(t *testing.T) {
	cfg := getTestConfig()
	cfg.Security.AuthEnabled = true
	cfg.Security.JWTExpiration = time.Hour
	cfg.Security.RefreshTokenExpiration = 24 * time.Hour

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	server := api.New(cfg, store)

	t.Run("Unauthenticated Request Rejected", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/api/v1/bowsers", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("Health Is Public", func(t *testing.T) {
		rec := request(t, server, http.MethodGet, "/health", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})
}
