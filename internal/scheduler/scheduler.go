// Package scheduler runs the periodic fleet housekeeping jobs: sweeping
// maintenance records past their scheduled date to "overdue" and flagging
// deployments that have overrun their expected duration.
//
// Both jobs only raise alerts and maintenance statuses. Deployment and
// bowser lifecycle state is owned by the dispatch controller and is never
// written here.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

// Scheduler runs cron-driven housekeeping jobs against the entity store.
type Scheduler struct {
	store storage.Store
	cfg   *config.Config
	cron  *cron.Cron
	now   func() time.Time
}

// New creates a scheduler. Jobs are registered on Start.
func New(store storage.Store, cfg *config.Config) *Scheduler {
	return &Scheduler{
		store: store,
		cfg:   cfg,
		cron:  cron.New(),
		now:   time.Now,
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if !s.cfg.Scheduler.Enabled {
		log.Println("Scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Scheduler.OverdueSweepSpec, func() {
		s.SweepOverdueMaintenance(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register overdue sweep: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Scheduler.StaleDeploymentSpec, func() {
		s.CheckStaleDeployments(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register stale deployment check: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (overdue sweep %q, stale check %q)",
		s.cfg.Scheduler.OverdueSweepSpec, s.cfg.Scheduler.StaleDeploymentSpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// SweepOverdueMaintenance marks scheduled maintenance records whose date
// has passed as overdue and raises one alert per swept record.
func (s *Scheduler) SweepOverdueMaintenance(ctx context.Context) {
	records, err := s.store.ListMaintenance(ctx, storage.Filter{
		"status": models.MaintenanceStatusScheduled,
	})
	if err != nil {
		log.Printf("Overdue sweep: failed to list maintenance records: %v", err)
		return
	}

	now := s.now()
	swept := 0
	for _, record := range records {
		if !record.ScheduledDate.Before(now) {
			continue
		}

		record.Status = models.MaintenanceStatusOverdue
		if err := s.store.SaveMaintenance(ctx, record); err != nil {
			log.Printf("Overdue sweep: failed to update record %s: %v", record.ID, err)
			continue
		}

		alert := &models.Alert{
			ID:       models.GenerateID("alert"),
			Title:    "Maintenance overdue",
			Message:  fmt.Sprintf("Maintenance %s for bowser %s was due on %s", record.ID, record.BowserID, record.ScheduledDate.Format("2006-01-02")),
			Priority: models.PriorityHigh,
			Status:   models.AlertStatusActive,
			// Only staff run the maintenance schedule
			TargetRole: string(models.RoleStaff),
			CreatedAt:  now,
		}
		if err := s.store.SaveAlert(ctx, alert); err != nil {
			log.Printf("Overdue sweep: failed to raise alert for record %s: %v", record.ID, err)
		}
		swept++
	}

	if swept > 0 {
		log.Printf("Overdue sweep: marked %d maintenance record(s) overdue", swept)
	}
}

// CheckStaleDeployments raises a review alert for every active deployment
// that has run past its start date plus expected duration. The deployment
// itself is left untouched: closing it is an operator decision.
func (s *Scheduler) CheckStaleDeployments(ctx context.Context) {
	deployments, err := s.store.ListDeployments(ctx, storage.Filter{
		"status": models.DeploymentStatusActive,
	})
	if err != nil {
		log.Printf("Stale check: failed to list deployments: %v", err)
		return
	}

	now := s.now()
	flagged := 0
	for _, d := range deployments {
		due := d.StartDate.AddDate(0, 0, d.ExpectedDurationDays)
		if !due.Before(now) {
			continue
		}

		// One alert per deployment per sweep would flood; skip if an
		// active alert already references it
		if s.hasActiveAlertFor(ctx, d.ID) {
			continue
		}

		alert := &models.Alert{
			ID:        models.GenerateID("alert"),
			Title:     "Deployment overrunning",
			Message:   fmt.Sprintf("Deployment %s at location %s passed its expected end (%s), review whether it should be completed", d.ID, d.LocationID, due.Format("2006-01-02")),
			Priority:  d.Priority,
			Status:    models.AlertStatusActive,
			CreatedAt: now,
		}
		if err := s.store.SaveAlert(ctx, alert); err != nil {
			log.Printf("Stale check: failed to raise alert for deployment %s: %v", d.ID, err)
			continue
		}
		flagged++
	}

	if flagged > 0 {
		log.Printf("Stale check: flagged %d overrunning deployment(s)", flagged)
	}
}

func (s *Scheduler) hasActiveAlertFor(ctx context.Context, deploymentID string) bool {
	alerts, err := s.store.ListAlerts(ctx, storage.Filter{
		"status": models.AlertStatusActive,
	})
	if err != nil {
		log.Printf("Stale check: failed to list alerts: %v", err)
		// Err on the side of not flooding
		return true
	}
	for _, a := range alerts {
		if a.Title == "Deployment overrunning" && strings.Contains(a.Message, deploymentID) {
			return true
		}
	}
	return false
}
