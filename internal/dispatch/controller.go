// Package dispatch is the core of AquaAlert: the deployment lifecycle
// controller, the emergency priority scorer and the ranking service.
//
// The controller owns two pieces of state jointly: Deployment.Status and
// Bowser.Status. Nothing else in the system writes either field. Its one
// hard invariant is that a bowser is referenced by at most one open
// (pending or active) deployment at any instant.
package dispatch

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

// Controller coordinates deployment lifecycle operations against the
// entity store. The write path is serialised by a single mutex: fleets
// are small (tens to low hundreds of units) and the conflict check plus
// the paired bowser write must be atomic with respect to each other.
// Reads are lock-free and may observe a slightly stale snapshot.
type Controller struct {
	store storage.Store

	mu  sync.Mutex
	now func() time.Time
}

// NewController creates a lifecycle controller on top of the given store.
func NewController(store storage.Store) *Controller {
	return &Controller{store: store, now: time.Now}
}

// CreateDeploymentInput carries the attributes of a new deployment
// request. Zero values get the documented defaults.
type CreateDeploymentInput struct {
	BowserID   string
	LocationID string

	// StartDate defaults to the current time.
	StartDate time.Time

	// Priority defaults to "normal".
	Priority                    string
	EmergencyReason             string
	PopulationAffected          int
	ExpectedDurationDays        int // defaults to 1
	AlternativeSourcesAvailable bool
	VulnerabilityIndex          int
	Notes                       string
}

// PriorityUpdate rewrites the priority-related fields of an open
// deployment. It never touches status, bowser or location linkage.
type PriorityUpdate struct {
	Priority                    string
	EmergencyReason             string
	PopulationAffected          int
	ExpectedDurationDays        int
	AlternativeSourcesAvailable bool
	VulnerabilityIndex          int
	Notes                       string
}

func validatePriorityFields(priority string, population, duration, vulnerability int) error {
	if priority != "" && !models.ValidPriority(priority) {
		return validationErr("unknown priority %q", priority)
	}
	if population < 0 {
		return validationErr("populationAffected must not be negative, got %d", population)
	}
	if duration < 1 {
		return validationErr("expectedDurationDays must be at least 1, got %d", duration)
	}
	if vulnerability < 0 || vulnerability > 10 {
		return validationErr("vulnerabilityIndex must be in [0,10], got %d", vulnerability)
	}
	return nil
}

// openDeploymentFor returns the open deployment holding the bowser, or
// nil when the bowser is free.
func (c *Controller) openDeploymentFor(ctx context.Context, bowserID string) (*models.Deployment, error) {
	deployments, err := c.store.ListDeployments(ctx, storage.Filter{"bowserId": bowserID})
	if err != nil {
		return nil, storageErr("list deployments", err)
	}
	for _, d := range deployments {
		if d.Open() {
			return d, nil
		}
	}
	return nil, nil
}

// CreateDeployment assigns a bowser to a location. Deployments are
// created already committed (status active); there is no separate
// confirmation step. On success the bowser is marked deployed.
//
// The deployment document is written first and deleted again if the
// bowser write fails, so a storage failure never leaves the pair
// half-applied.
func (c *Controller) CreateDeployment(ctx context.Context, in CreateDeploymentInput) (*models.Deployment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(in.BowserID) == "" {
		return nil, validationErr("bowserId is required")
	}
	if strings.TrimSpace(in.LocationID) == "" {
		return nil, validationErr("locationId is required")
	}

	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	if in.ExpectedDurationDays == 0 {
		in.ExpectedDurationDays = 1
	}
	if err := validatePriorityFields(in.Priority, in.PopulationAffected, in.ExpectedDurationDays, in.VulnerabilityIndex); err != nil {
		return nil, err
	}

	bowser, err := c.store.GetBowser(ctx, in.BowserID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, notFoundErr("bowser", in.BowserID)
		}
		return nil, storageErr("get bowser", err)
	}
	if _, err := c.store.GetLocation(ctx, in.LocationID); err != nil {
		if storage.IsNotFound(err) {
			return nil, notFoundErr("location", in.LocationID)
		}
		return nil, storageErr("get location", err)
	}

	open, err := c.openDeploymentFor(ctx, in.BowserID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, conflictErr("bowser %s already has open deployment %s", in.BowserID, open.ID)
	}

	now := c.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	deployment := &models.Deployment{
		ID:                          models.GenerateID("deployment"),
		Type:                        models.TypeDeployment,
		BowserID:                    in.BowserID,
		LocationID:                  in.LocationID,
		StartDate:                   start,
		Status:                      models.DeploymentStatusActive,
		Priority:                    in.Priority,
		EmergencyReason:             in.EmergencyReason,
		PopulationAffected:          in.PopulationAffected,
		ExpectedDurationDays:        in.ExpectedDurationDays,
		AlternativeSourcesAvailable: in.AlternativeSourcesAvailable,
		VulnerabilityIndex:          in.VulnerabilityIndex,
		Notes:                       in.Notes,
		CreatedAt:                   now,
	}

	if err := c.store.SaveDeployment(ctx, deployment); err != nil {
		return nil, storageErr("save deployment", err)
	}

	bowser.Status = models.BowserStatusDeployed
	if err := c.store.SaveBowser(ctx, bowser); err != nil {
		// Roll the deployment back so the bowser is not silently blocked.
		if delErr := c.store.DeleteDeployment(ctx, deployment.ID); delErr != nil {
			log.Printf("dispatch: rollback of deployment %s failed: %v", deployment.ID, delErr)
			err = errors.Join(err, delErr)
		}
		return nil, storageErr("save bowser", err)
	}

	return deployment, nil
}

// UpdatePriority rewrites the priority-related fields of an open
// deployment. Completed and cancelled deployments are immutable.
func (c *Controller) UpdatePriority(ctx context.Context, deploymentID string, in PriorityUpdate) (*models.Deployment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deployment, err := c.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, notFoundErr("deployment", deploymentID)
		}
		return nil, storageErr("get deployment", err)
	}
	if !deployment.Open() {
		return nil, invalidStateErr("deployment %s is %s and can no longer change priority", deploymentID, deployment.Status)
	}

	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	if in.ExpectedDurationDays == 0 {
		in.ExpectedDurationDays = 1
	}
	if err := validatePriorityFields(in.Priority, in.PopulationAffected, in.ExpectedDurationDays, in.VulnerabilityIndex); err != nil {
		return nil, err
	}

	deployment.Priority = in.Priority
	deployment.EmergencyReason = in.EmergencyReason
	deployment.PopulationAffected = in.PopulationAffected
	deployment.ExpectedDurationDays = in.ExpectedDurationDays
	deployment.AlternativeSourcesAvailable = in.AlternativeSourcesAvailable
	deployment.VulnerabilityIndex = in.VulnerabilityIndex
	deployment.Notes = in.Notes

	if err := c.store.SaveDeployment(ctx, deployment); err != nil {
		return nil, storageErr("save deployment", err)
	}
	return deployment, nil
}

// CompleteDeployment closes an open deployment and releases its bowser
// back to the available pool. A zero endDate means "now"; a supplied
// endDate before the deployment's start is rejected.
//
// The released bowser is always set to "active", even when it was on
// standby before the deployment. This mirrors long-standing operational
// behaviour: completion returns the unit to the general pool and the
// operator re-files it afterwards if needed.
func (c *Controller) CompleteDeployment(ctx context.Context, deploymentID string, endDate time.Time) (*models.Deployment, error) {
	return c.close(ctx, deploymentID, models.DeploymentStatusCompleted, endDate)
}

// CancelDeployment aborts an open deployment. The cancellation time is
// recorded as the end date and the bowser is released exactly as on
// completion.
func (c *Controller) CancelDeployment(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	return c.close(ctx, deploymentID, models.DeploymentStatusCancelled, time.Time{})
}

func (c *Controller) close(ctx context.Context, deploymentID, to string, endDate time.Time) (*models.Deployment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deployment, err := c.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, notFoundErr("deployment", deploymentID)
		}
		return nil, storageErr("get deployment", err)
	}

	if !CanTransition(deployment.Status, to) {
		return nil, invalidStateErr("deployment %s cannot go from %s to %s", deployment.ID, deployment.Status, to)
	}

	// Only a caller-supplied end date is constrained by the start date.
	// A defaulted one just records when the close happened, which may be
	// before a future-dated start (cancelling a scheduled deployment).
	if endDate.IsZero() {
		endDate = c.now()
	} else if endDate.Before(deployment.StartDate) {
		return nil, validationErr("endDate %s is before startDate %s",
			endDate.Format(time.RFC3339), deployment.StartDate.Format(time.RFC3339))
	}

	prior := *deployment
	if err := applyTransition(deployment, to, endDate); err != nil {
		return nil, err
	}

	if err := c.store.SaveDeployment(ctx, deployment); err != nil {
		return nil, storageErr("save deployment", err)
	}

	bowser, err := c.store.GetBowser(ctx, deployment.BowserID)
	if err == nil {
		bowser.Status = models.BowserStatusActive
		err = c.store.SaveBowser(ctx, bowser)
	} else if storage.IsNotFound(err) {
		// The bowser cannot be deleted while this deployment was open, so
		// absence means external interference; the deployment close still
		// stands.
		log.Printf("dispatch: bowser %s missing while closing deployment %s", deployment.BowserID, deploymentID)
		return deployment, nil
	}
	if err != nil {
		// Restore the deployment so the pair stays consistent.
		prior.Rev = deployment.Rev
		restored := prior
		if saveErr := c.store.SaveDeployment(ctx, &restored); saveErr != nil {
			log.Printf("dispatch: restore of deployment %s failed: %v", deploymentID, saveErr)
			err = errors.Join(err, saveErr)
		}
		return nil, storageErr("save bowser", err)
	}

	return deployment, nil
}

// SetBowserStatus applies an operator status change. "deployed" can never
// be set directly, and no change is allowed while an open deployment
// holds the bowser: releasing a deployed unit goes through
// CompleteDeployment or CancelDeployment.
func (c *Controller) SetBowserStatus(ctx context.Context, bowserID, status string) (*models.Bowser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !models.ValidOperatorStatus(status) {
		return nil, validationErr("status %q is not operator-settable", status)
	}

	bowser, err := c.store.GetBowser(ctx, bowserID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, notFoundErr("bowser", bowserID)
		}
		return nil, storageErr("get bowser", err)
	}

	open, err := c.openDeploymentFor(ctx, bowserID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, conflictErr("bowser %s is held by open deployment %s", bowserID, open.ID)
	}

	bowser.Status = status
	if err := c.store.SaveBowser(ctx, bowser); err != nil {
		return nil, storageErr("save bowser", err)
	}
	return bowser, nil
}

// DeleteBowser removes a bowser. Bowsers referenced by an open deployment
// cannot be deleted; references from completed or cancelled deployments
// are left in place as history.
func (c *Controller) DeleteBowser(ctx context.Context, bowserID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.GetBowser(ctx, bowserID); err != nil {
		if storage.IsNotFound(err) {
			return notFoundErr("bowser", bowserID)
		}
		return storageErr("get bowser", err)
	}

	open, err := c.openDeploymentFor(ctx, bowserID)
	if err != nil {
		return err
	}
	if open != nil {
		return referentialErr("bowser %s is referenced by open deployment %s", bowserID, open.ID)
	}

	if err := c.store.DeleteBowser(ctx, bowserID); err != nil {
		return storageErr("delete bowser", err)
	}
	return nil
}

// DeleteLocation removes a location under the same referential rule as
// DeleteBowser.
func (c *Controller) DeleteLocation(ctx context.Context, locationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.GetLocation(ctx, locationID); err != nil {
		if storage.IsNotFound(err) {
			return notFoundErr("location", locationID)
		}
		return storageErr("get location", err)
	}

	deployments, err := c.store.ListDeployments(ctx, storage.Filter{"locationId": locationID})
	if err != nil {
		return storageErr("list deployments", err)
	}
	for _, d := range deployments {
		if d.Open() {
			return referentialErr("location %s is referenced by open deployment %s", locationID, d.ID)
		}
	}

	if err := c.store.DeleteLocation(ctx, locationID); err != nil {
		return storageErr("delete location", err)
	}
	return nil
}

// ComputeScore returns the priority score of a stored deployment.
func (c *Controller) ComputeScore(ctx context.Context, deploymentID string) (int, error) {
	deployment, err := c.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return 0, notFoundErr("deployment", deploymentID)
		}
		return 0, storageErr("get deployment", err)
	}
	return Score(deployment), nil
}
