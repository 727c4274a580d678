package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8086},
		Store:  config.StoreConfig{Backend: "memory"},
		Security: config.SecurityConfig{
			AuthEnabled: false,
			JWTSecret:   "test-secret",
		},
	}
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	return New(testConfig(), store), store
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func createBowser(t *testing.T, server *Server, number string) models.Bowser {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
		"number":       number,
		"capacity":     10000,
		"currentLevel": 10000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b models.Bowser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func createLocation(t *testing.T, server *Server, name string) models.Location {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/v1/locations", map[string]interface{}{
		"name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var l models.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	return l
}

func createDeployment(t *testing.T, server *Server, bowserID, locationID string, extra map[string]interface{}) models.Deployment {
	t.Helper()
	body := map[string]interface{}{
		"bowserId":   bowserID,
		"locationId": locationID,
	}
	for k, v := range extra {
		body[k] = v
	}
	rec := doJSON(t, server, http.MethodPost, "/api/v1/deployments", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d models.Deployment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestBowserCRUD(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	assert.Equal(t, models.BowserStatusActive, b.Status)
	assert.NotEmpty(t, b.ID)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/bowsers/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/bowsers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list PaginatedBowsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/bowsers/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/bowsers/"+b.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBowserCreateValidation(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
		"capacity": 1000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
		"number":   "WB-002",
		"capacity": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
		"number":       "WB-003",
		"capacity":     1000,
		"currentLevel": 2000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// "deployed" is not operator-settable, not even at creation
	rec = doJSON(t, server, http.MethodPost, "/api/v1/bowsers", map[string]interface{}{
		"number":   "WB-004",
		"capacity": 1000,
		"status":   models.BowserStatusDeployed,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBowserUpdateNeverChangesStatus(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")

	rec := doJSON(t, server, http.MethodPut, "/api/v1/bowsers/"+b.ID, map[string]interface{}{
		"number":       "WB-001",
		"capacity":     12000,
		"currentLevel": 6000,
		"status":       models.BowserStatusOutOfService,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Bowser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 12000, updated.Capacity)
	assert.Equal(t, models.BowserStatusActive, updated.Status, "PUT must not change status")
}

func TestSetBowserStatus(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/bowsers/"+b.ID+"/status", map[string]string{
		"status": models.BowserStatusStandby,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Bowser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.BowserStatusStandby, updated.Status)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/bowsers/"+b.ID+"/status", map[string]string{
		"status": models.BowserStatusDeployed,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeploymentLifecycle(t *testing.T) {
	server, store := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	l := createLocation(t, server, "Moorside Care Home")

	d := createDeployment(t, server, b.ID, l.ID, map[string]interface{}{
		"priority":           models.PriorityEmergency,
		"populationAffected": 300,
	})
	assert.Equal(t, models.DeploymentStatusActive, d.Status)

	// The bowser is now deployed
	stored, err := store.GetBowser(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BowserStatusDeployed, stored.Status)

	// A second deployment for the same bowser conflicts
	rec := doJSON(t, server, http.MethodPost, "/api/v1/deployments", map[string]interface{}{
		"bowserId":   b.ID,
		"locationId": l.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Status changes are blocked while deployed
	rec = doJSON(t, server, http.MethodPost, "/api/v1/bowsers/"+b.ID+"/status", map[string]string{
		"status": models.BowserStatusMaintenance,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Deleting the bowser is blocked too
	rec = doJSON(t, server, http.MethodDelete, "/api/v1/bowsers/"+b.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Complete and release
	rec = doJSON(t, server, http.MethodPost, "/api/v1/deployments/"+d.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var closed models.Deployment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	assert.Equal(t, models.DeploymentStatusCompleted, closed.Status)
	assert.NotNil(t, closed.EndDate)

	stored, err = store.GetBowser(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BowserStatusActive, stored.Status)

	// Completing again is an invalid state transition
	rec = doJSON(t, server, http.MethodPost, "/api/v1/deployments/"+d.ID+"/complete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCancelDeployment(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	l := createLocation(t, server, "Hilltop Estate")
	d := createDeployment(t, server, b.ID, l.ID, nil)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/deployments/"+d.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cancelled models.Deployment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, models.DeploymentStatusCancelled, cancelled.Status)
}

func TestUpdateDeploymentPriority(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	l := createLocation(t, server, "Valley Primary School")
	d := createDeployment(t, server, b.ID, l.ID, nil)

	rec := doJSON(t, server, http.MethodPut, "/api/v1/deployments/"+d.ID+"/priority", map[string]interface{}{
		"priority":           models.PriorityEmergency,
		"emergencyReason":    "burst trunk main",
		"populationAffected": 500,
		"vulnerabilityIndex": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Deployment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.PriorityEmergency, updated.Priority)
	assert.Equal(t, 500, updated.PopulationAffected)

	// Unknown priority tiers are rejected
	rec = doJSON(t, server, http.MethodPut, "/api/v1/deployments/"+d.ID+"/priority", map[string]interface{}{
		"priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankingsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	l := createLocation(t, server, "site")
	b1 := createBowser(t, server, "WB-001")
	b2 := createBowser(t, server, "WB-002")

	createDeployment(t, server, b1.ID, l.ID, map[string]interface{}{
		"priority": models.PriorityLow,
	})
	d2 := createDeployment(t, server, b2.ID, l.ID, map[string]interface{}{
		"priority":           models.PriorityEmergency,
		"populationAffected": 400,
	})

	rec := doJSON(t, server, http.MethodGet, "/api/v1/deployments/rankings", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Count    int `json:"count"`
		Rankings []struct {
			Deployment models.Deployment `json:"deployment"`
			Score      int               `json:"score"`
		} `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 2, result.Count)
	assert.Equal(t, d2.ID, result.Rankings[0].Deployment.ID)
	assert.Equal(t, 94, result.Rankings[0].Score)
	assert.Equal(t, 10, result.Rankings[1].Score)
}

func TestScoreEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	l := createLocation(t, server, "site")
	d := createDeployment(t, server, b.ID, l.ID, map[string]interface{}{
		"priority":           models.PriorityHigh,
		"populationAffected": 250,
		"vulnerabilityIndex": 3,
	})

	rec := doJSON(t, server, http.MethodGet, "/api/v1/deployments/"+d.ID+"/score", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var score ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 65, score.Score)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/deployments/deployment:missing/score", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	b := createBowser(t, server, "WB-001")
	l := createLocation(t, server, "site")
	createDeployment(t, server, b.ID, l.ID, nil)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats storage.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalBowsers)
	assert.Equal(t, 1, stats.DeployedBowsers)
	assert.Equal(t, 1, stats.ActiveDeployments)
}

func TestAlertLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/alerts", map[string]interface{}{
		"title":    "Supply interruption",
		"message":  "Mains outage in sector 4",
		"priority": models.PriorityHigh,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var alert models.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alert))
	assert.Equal(t, models.AlertStatusActive, alert.Status)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/acknowledge", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/resolve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alert))
	assert.Equal(t, models.AlertStatusResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)

	// Acknowledging a resolved alert conflicts
	rec = doJSON(t, server, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/acknowledge", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMaintenanceCompletionStampsBowser(t *testing.T) {
	server, store := newTestServer(t)

	b := createBowser(t, server, "WB-001")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/maintenance", map[string]interface{}{
		"bowserId":      b.ID,
		"scheduledDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"workType":      "pump service",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record models.MaintenanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, models.MaintenanceStatusScheduled, record.Status)

	rec = doJSON(t, server, http.MethodPut, "/api/v1/maintenance/"+record.ID, map[string]interface{}{
		"scheduledDate": record.ScheduledDate.Format(time.RFC3339),
		"workType":      "pump service",
		"status":        models.MaintenanceStatusCompleted,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := store.GetBowser(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastMaintenance)
}

func TestPagination(t *testing.T) {
	server, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		createBowser(t, server, fmt.Sprintf("WB-%03d", i))
	}

	rec := doJSON(t, server, http.MethodGet, "/api/v1/bowsers?limit=2&offset=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list PaginatedBowsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, 4, list.Offset)
}

func TestContentTypeValidation(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bowsers", bytes.NewReader([]byte("number=WB-001")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
