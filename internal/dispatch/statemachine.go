package dispatch

import (
	"time"

	"aquaalert.org/aquaalert/models"
)

// allowedTransitions is the deployment state machine as a directed graph.
// A pending deployment may be completed directly: staging is optional and
// completion from pending behaves exactly like completion from active.
var allowedTransitions = map[string][]string{
	models.DeploymentStatusPending: {
		models.DeploymentStatusActive,
		models.DeploymentStatusCompleted,
		models.DeploymentStatusCancelled,
	},
	models.DeploymentStatusActive: {
		models.DeploymentStatusCompleted,
		models.DeploymentStatusCancelled,
	},
	// Terminal: nothing leaves completed or cancelled.
	models.DeploymentStatusCompleted: {},
	models.DeploymentStatusCancelled: {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to string) bool {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// applyTransition moves a deployment to a new status and maintains the
// end-date invariant: EndDate is set when and only when the deployment
// reaches a terminal state.
func applyTransition(d *models.Deployment, to string, at time.Time) error {
	if !CanTransition(d.Status, to) {
		return invalidStateErr("deployment %s cannot go from %s to %s", d.ID, d.Status, to)
	}
	d.Status = to
	switch to {
	case models.DeploymentStatusCompleted, models.DeploymentStatusCancelled:
		t := at
		d.EndDate = &t
	default:
		d.EndDate = nil
	}
	return nil
}
