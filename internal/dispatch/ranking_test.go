package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

func seedRankedDeployment(t *testing.T, store storage.Store, id string, priority string, population int, start time.Time) {
	t.Helper()
	require.NoError(t, store.SaveDeployment(context.Background(), &models.Deployment{
		ID:                   id,
		BowserID:             models.GenerateID("bowser"),
		LocationID:           models.GenerateID("location"),
		StartDate:            start,
		Status:               models.DeploymentStatusActive,
		Priority:             priority,
		PopulationAffected:   population,
		ExpectedDurationDays: 1,
	}))
}

func TestRankActiveOrdersByScore(t *testing.T) {
	c, store := newTestController(t)

	seedRankedDeployment(t, store, "deployment:a", models.PriorityLow, 0, testNow)       // 10
	seedRankedDeployment(t, store, "deployment:b", models.PriorityEmergency, 0, testNow) // 90
	seedRankedDeployment(t, store, "deployment:c", models.PriorityHigh, 500, testNow)    // 65

	ranked, err := c.RankActive(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "deployment:b", ranked[0].Deployment.ID)
	assert.Equal(t, 90, ranked[0].Score)
	assert.Equal(t, "deployment:c", ranked[1].Deployment.ID)
	assert.Equal(t, 65, ranked[1].Score)
	assert.Equal(t, "deployment:a", ranked[2].Deployment.ID)
	assert.Equal(t, 10, ranked[2].Score)
}

func TestRankActiveTieBreaks(t *testing.T) {
	c, store := newTestController(t)

	later := testNow.Add(3 * time.Hour)
	// Same score, different start: older request first
	seedRankedDeployment(t, store, "deployment:young", models.PriorityHigh, 0, later)
	seedRankedDeployment(t, store, "deployment:old", models.PriorityHigh, 0, testNow)
	// Same score and start: ID ascending
	seedRankedDeployment(t, store, "deployment:young2", models.PriorityHigh, 0, later)

	ranked, err := c.RankActive(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "deployment:old", ranked[0].Deployment.ID)
	assert.Equal(t, "deployment:young", ranked[1].Deployment.ID)
	assert.Equal(t, "deployment:young2", ranked[2].Deployment.ID)
}

func TestRankActiveIgnoresClosedDeployments(t *testing.T) {
	c, store := newTestController(t)

	seedRankedDeployment(t, store, "deployment:open", models.PriorityNormal, 0, testNow)

	end := testNow
	require.NoError(t, store.SaveDeployment(context.Background(), &models.Deployment{
		ID:         "deployment:done",
		BowserID:   "bowser:x",
		LocationID: "location:x",
		StartDate:  testNow.Add(-24 * time.Hour),
		EndDate:    &end,
		Status:     models.DeploymentStatusCompleted,
		Priority:   models.PriorityEmergency,
	}))

	ranked, err := c.RankActive(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "deployment:open", ranked[0].Deployment.ID)
}

func TestRankActiveEmpty(t *testing.T) {
	c, _ := newTestController(t)

	ranked, err := c.RankActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankActiveIsStableAcrossCalls(t *testing.T) {
	c, store := newTestController(t)

	seedRankedDeployment(t, store, "deployment:a", models.PriorityHigh, 100, testNow)
	seedRankedDeployment(t, store, "deployment:b", models.PriorityHigh, 100, testNow)
	seedRankedDeployment(t, store, "deployment:c", models.PriorityLow, 0, testNow)

	first, err := c.RankActive(context.Background())
	require.NoError(t, err)
	second, err := c.RankActive(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Deployment.ID, second[i].Deployment.ID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}
