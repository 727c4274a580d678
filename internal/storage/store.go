// Package storage provides the entity store for AquaAlert. All entities
// live as documents in a single CouchDB database, discriminated by their
// "type" field; an in-memory implementation backs tests and development.
//
// Every operation is individually atomic. There are no multi-document
// transactions: callers that must keep two documents consistent (the
// dispatch controller) order their writes and roll back explicitly.
package storage

import (
	"context"
	"errors"

	"aquaalert.org/aquaalert/models"
)

// ErrNotFound is returned when a document with the requested ID does not
// exist in the store.
var ErrNotFound = errors.New("document not found")

// Filter restricts List operations to documents whose named fields equal
// the given values. Only equality matching is supported.
type Filter map[string]interface{}

// Store is the entity store consumed by the dispatch core and the API
// layer. Save methods create or update; updates of stale revisions are
// retried against the current revision, last write wins.
type Store interface {
	// Bowsers
	SaveBowser(ctx context.Context, b *models.Bowser) error
	GetBowser(ctx context.Context, id string) (*models.Bowser, error)
	DeleteBowser(ctx context.Context, id string) error
	ListBowsers(ctx context.Context, filter Filter) ([]*models.Bowser, error)

	// Locations
	SaveLocation(ctx context.Context, l *models.Location) error
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	DeleteLocation(ctx context.Context, id string) error
	ListLocations(ctx context.Context, filter Filter) ([]*models.Location, error)

	// Deployments
	SaveDeployment(ctx context.Context, d *models.Deployment) error
	GetDeployment(ctx context.Context, id string) (*models.Deployment, error)
	DeleteDeployment(ctx context.Context, id string) error
	ListDeployments(ctx context.Context, filter Filter) ([]*models.Deployment, error)

	// Maintenance records
	SaveMaintenance(ctx context.Context, m *models.MaintenanceRecord) error
	GetMaintenance(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	DeleteMaintenance(ctx context.Context, id string) error
	ListMaintenance(ctx context.Context, filter Filter) ([]*models.MaintenanceRecord, error)

	// Alerts
	SaveAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	ListAlerts(ctx context.Context, filter Filter) ([]*models.Alert, error)

	// Users
	SaveUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter Filter) ([]*models.User, error)

	Close() error
}

// IsNotFound reports whether err means the requested document is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
