package storage

import (
	"context"

	"aquaalert.org/aquaalert/models"
)

// Statistics summarises fleet state for the dashboard endpoint.
type Statistics struct {
	TotalBowsers      int            `json:"total_bowsers"`
	DeployedBowsers   int            `json:"deployed_bowsers"`
	AvailableBowsers  int            `json:"available_bowsers"`
	TotalLocations    int            `json:"total_locations"`
	ActiveDeployments int            `json:"active_deployments"`
	OpenMaintenance   int            `json:"open_maintenance"`
	ActiveAlerts      int            `json:"active_alerts"`
	BowsersByStatus   map[string]int `json:"bowsers_by_status"`
}

// ComputeStats aggregates counts across the store. It is a read-only
// snapshot and may be slightly stale with respect to in-flight lifecycle
// operations.
func ComputeStats(ctx context.Context, store Store) (*Statistics, error) {
	stats := &Statistics{BowsersByStatus: make(map[string]int)}

	bowsers, err := store.ListBowsers(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats.TotalBowsers = len(bowsers)
	for _, b := range bowsers {
		stats.BowsersByStatus[b.Status]++
		switch b.Status {
		case models.BowserStatusDeployed:
			stats.DeployedBowsers++
		case models.BowserStatusActive, models.BowserStatusStandby:
			stats.AvailableBowsers++
		}
	}

	locations, err := store.ListLocations(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats.TotalLocations = len(locations)

	active, err := store.ListDeployments(ctx, Filter{"status": models.DeploymentStatusActive})
	if err != nil {
		return nil, err
	}
	stats.ActiveDeployments = len(active)

	maintenance, err := store.ListMaintenance(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, m := range maintenance {
		if m.Status == models.MaintenanceStatusScheduled ||
			m.Status == models.MaintenanceStatusInProgress ||
			m.Status == models.MaintenanceStatusOverdue {
			stats.OpenMaintenance++
		}
	}

	alerts, err := store.ListAlerts(ctx, Filter{"status": models.AlertStatusActive})
	if err != nil {
		return nil, err
	}
	stats.ActiveAlerts = len(alerts)

	return stats, nil
}
