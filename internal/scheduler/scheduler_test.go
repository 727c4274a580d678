package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

var schedNow = time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{
			Enabled:             true,
			OverdueSweepSpec:    "0 6 * * *",
			StaleDeploymentSpec: "30 6 * * *",
		},
	}
	s := New(store, cfg)
	s.now = func() time.Time { return schedNow }
	return s, store
}

func TestSweepOverdueMaintenance(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMaintenance(ctx, &models.MaintenanceRecord{
		ID:            "maintenance:past",
		BowserID:      "bowser:1",
		ScheduledDate: schedNow.AddDate(0, 0, -3),
		Status:        models.MaintenanceStatusScheduled,
	}))
	require.NoError(t, store.SaveMaintenance(ctx, &models.MaintenanceRecord{
		ID:            "maintenance:future",
		BowserID:      "bowser:2",
		ScheduledDate: schedNow.AddDate(0, 0, 3),
		Status:        models.MaintenanceStatusScheduled,
	}))
	// Already in progress, not subject to the sweep
	require.NoError(t, store.SaveMaintenance(ctx, &models.MaintenanceRecord{
		ID:            "maintenance:busy",
		BowserID:      "bowser:3",
		ScheduledDate: schedNow.AddDate(0, 0, -1),
		Status:        models.MaintenanceStatusInProgress,
	}))

	s.SweepOverdueMaintenance(ctx)

	past, err := store.GetMaintenance(ctx, "maintenance:past")
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusOverdue, past.Status)

	future, err := store.GetMaintenance(ctx, "maintenance:future")
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusScheduled, future.Status)

	busy, err := store.GetMaintenance(ctx, "maintenance:busy")
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusInProgress, busy.Status)

	alerts, err := store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Maintenance overdue", alerts[0].Title)
	assert.Equal(t, models.PriorityHigh, alerts[0].Priority)
	assert.Equal(t, string(models.RoleStaff), alerts[0].TargetRole)
	assert.Contains(t, alerts[0].Message, "maintenance:past")
}

func TestSweepOverdueMaintenanceIsIdempotent(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMaintenance(ctx, &models.MaintenanceRecord{
		ID:            "maintenance:past",
		BowserID:      "bowser:1",
		ScheduledDate: schedNow.AddDate(0, 0, -3),
		Status:        models.MaintenanceStatusScheduled,
	}))

	s.SweepOverdueMaintenance(ctx)
	s.SweepOverdueMaintenance(ctx)

	// The record is already overdue on the second pass, so no new alert
	alerts, err := store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestCheckStaleDeployments(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDeployment(ctx, &models.Deployment{
		ID:                   "deployment:overrun",
		BowserID:             "bowser:1",
		LocationID:           "location:1",
		StartDate:            schedNow.AddDate(0, 0, -10),
		Status:               models.DeploymentStatusActive,
		Priority:             models.PriorityHigh,
		ExpectedDurationDays: 3,
	}))
	require.NoError(t, store.SaveDeployment(ctx, &models.Deployment{
		ID:                   "deployment:ontrack",
		BowserID:             "bowser:2",
		LocationID:           "location:1",
		StartDate:            schedNow.AddDate(0, 0, -1),
		Status:               models.DeploymentStatusActive,
		Priority:             models.PriorityNormal,
		ExpectedDurationDays: 7,
	}))
	end := schedNow.AddDate(0, 0, -5)
	require.NoError(t, store.SaveDeployment(ctx, &models.Deployment{
		ID:                   "deployment:closed",
		BowserID:             "bowser:3",
		LocationID:           "location:1",
		StartDate:            schedNow.AddDate(0, 0, -30),
		EndDate:              &end,
		Status:               models.DeploymentStatusCompleted,
		Priority:             models.PriorityHigh,
		ExpectedDurationDays: 1,
	}))

	s.CheckStaleDeployments(ctx)

	alerts, err := store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Deployment overrunning", alerts[0].Title)
	assert.Equal(t, models.PriorityHigh, alerts[0].Priority)
	assert.Contains(t, alerts[0].Message, "deployment:overrun")

	// The deployment itself is untouched
	d, err := store.GetDeployment(ctx, "deployment:overrun")
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusActive, d.Status)
	assert.Nil(t, d.EndDate)
}

func TestCheckStaleDeploymentsDeduplicates(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDeployment(ctx, &models.Deployment{
		ID:                   "deployment:overrun",
		BowserID:             "bowser:1",
		LocationID:           "location:1",
		StartDate:            schedNow.AddDate(0, 0, -10),
		Status:               models.DeploymentStatusActive,
		Priority:             models.PriorityHigh,
		ExpectedDurationDays: 3,
	}))

	s.CheckStaleDeployments(ctx)
	s.CheckStaleDeployments(ctx)

	alerts, err := store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestCheckStaleDeploymentsReflagsAfterResolution(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDeployment(ctx, &models.Deployment{
		ID:                   "deployment:overrun",
		BowserID:             "bowser:1",
		LocationID:           "location:1",
		StartDate:            schedNow.AddDate(0, 0, -10),
		Status:               models.DeploymentStatusActive,
		Priority:             models.PriorityHigh,
		ExpectedDurationDays: 3,
	}))

	s.CheckStaleDeployments(ctx)

	alerts, err := store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// Once the alert is resolved a later sweep may raise a fresh one
	resolved := schedNow
	alerts[0].Status = models.AlertStatusResolved
	alerts[0].ResolvedAt = &resolved
	require.NoError(t, store.SaveAlert(ctx, alerts[0]))

	s.CheckStaleDeployments(ctx)

	alerts, err = store.ListAlerts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestStartDisabled(t *testing.T) {
	store := storage.NewMemory()
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Enabled: false}}

	s := New(store, cfg)
	require.NoError(t, s.Start())
}

func TestStartRejectsBadSpec(t *testing.T) {
	store := storage.NewMemory()
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{
			Enabled:          true,
			OverdueSweepSpec: "not a cron spec",
		},
	}

	s := New(store, cfg)
	assert.Error(t, s.Start())
}
