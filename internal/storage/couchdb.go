package storage

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // CouchDB driver registration

	"aquaalert.org/aquaalert/internal/config"
	"aquaalert.org/aquaalert/models"
)

// CouchStore is the CouchDB-backed entity store. It keeps all AquaAlert
// entities in one database and relies on Mango selectors over the "type"
// field for filtered listing.
type CouchStore struct {
	client *kivik.Client
	db     *kivik.DB
	config *config.Config
}

// debugLog logs a message only if debug mode is enabled in config.
func (s *CouchStore) debugLog(format string, args ...interface{}) {
	if s.config.Server.Debug {
		log.Printf(format, args...)
	}
}

// NewCouch connects to CouchDB, creates the database if missing and
// ensures the indexes the list queries depend on.
func NewCouch(ctx context.Context, cfg *config.Config) (*CouchStore, error) {
	client, err := kivik.New("couch", cfg.CouchDB.BuildURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create CouchDB client: %w", err)
	}

	exists, err := client.DBExists(ctx, cfg.CouchDB.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to check database %q: %w", cfg.CouchDB.Database, err)
	}
	if !exists {
		if err := client.CreateDB(ctx, cfg.CouchDB.Database); err != nil {
			return nil, fmt.Errorf("failed to create database %q: %w", cfg.CouchDB.Database, err)
		}
	}

	db := client.DB(cfg.CouchDB.Database)
	if err := db.Err(); err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", cfg.CouchDB.Database, err)
	}

	store := &CouchStore{client: client, db: db, config: cfg}

	if err := store.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize indexes: %w", err)
	}

	return store, nil
}

// ensureIndexes creates the Mango indexes used by filtered list queries.
func (s *CouchStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		name   string
		fields []string
	}{
		{"by-type", []string{"type"}},
		{"by-type-status", []string{"type", "status"}},
		{"deployments-by-bowser", []string{"type", "bowserId", "status"}},
		{"users-by-username", []string{"type", "username"}},
	}

	for _, idx := range indexes {
		err := s.db.CreateIndex(ctx, "", idx.name, map[string]interface{}{
			"fields": idx.fields,
		})
		if err != nil {
			// Index might already exist; log and carry on
			s.debugLog("index %s: %v", idx.name, err)
		}
	}
	return nil
}

// Close closes the underlying CouchDB client.
func (s *CouchStore) Close() error {
	return s.client.Close()
}

// getDoc fetches one document by ID into T.
func getDoc[T any](ctx context.Context, s *CouchStore, id string) (*T, error) {
	var doc T
	err := s.db.Get(ctx, id).ScanDoc(&doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &doc, nil
}

// putDoc writes a document. On a revision conflict it refreshes the
// revision and retries once, so last write wins (the dispatch controller
// serialises the writes that must not race).
func (s *CouchStore) putDoc(ctx context.Context, id string, doc interface{}, setRev func(string)) error {
	rev, err := s.db.Put(ctx, id, doc)
	if err != nil && kivik.HTTPStatus(err) == http.StatusConflict {
		current, revErr := s.db.GetRev(ctx, id)
		if revErr != nil {
			return fmt.Errorf("put %s: %w", id, err)
		}
		setRev(current)
		rev, err = s.db.Put(ctx, id, doc)
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	setRev(rev)
	return nil
}

// deleteDoc removes a document regardless of which revision the caller
// holds.
func (s *CouchStore) deleteDoc(ctx context.Context, id string) error {
	rev, err := s.db.GetRev(ctx, id)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if _, err := s.db.Delete(ctx, id, rev); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// findDocs runs a Mango query selecting docType documents that match the
// equality filter.
func findDocs[T any](ctx context.Context, s *CouchStore, docType string, filter Filter) ([]*T, error) {
	selector := map[string]interface{}{
		"type": map[string]interface{}{"$eq": docType},
	}
	for field, value := range filter {
		selector[field] = map[string]interface{}{"$eq": value}
	}

	s.debugLog("find %s selector: %+v", docType, selector)

	rows := s.db.Find(ctx, map[string]interface{}{"selector": selector})
	defer rows.Close()

	var result []*T
	for rows.Next() {
		var doc T
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("find %s: %w", docType, err)
		}
		result = append(result, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", docType, err)
	}
	return result, nil
}

// typed wrappers

func (s *CouchStore) SaveBowser(ctx context.Context, b *models.Bowser) error {
	if b.Type == "" {
		b.Type = models.TypeBowser
	}
	return s.putDoc(ctx, b.ID, b, func(rev string) { b.Rev = rev })
}

func (s *CouchStore) GetBowser(ctx context.Context, id string) (*models.Bowser, error) {
	return getDoc[models.Bowser](ctx, s, id)
}

func (s *CouchStore) DeleteBowser(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListBowsers(ctx context.Context, filter Filter) ([]*models.Bowser, error) {
	return findDocs[models.Bowser](ctx, s, models.TypeBowser, filter)
}

func (s *CouchStore) SaveLocation(ctx context.Context, l *models.Location) error {
	if l.Type == "" {
		l.Type = models.TypeLocation
	}
	return s.putDoc(ctx, l.ID, l, func(rev string) { l.Rev = rev })
}

func (s *CouchStore) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	return getDoc[models.Location](ctx, s, id)
}

func (s *CouchStore) DeleteLocation(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListLocations(ctx context.Context, filter Filter) ([]*models.Location, error) {
	return findDocs[models.Location](ctx, s, models.TypeLocation, filter)
}

func (s *CouchStore) SaveDeployment(ctx context.Context, d *models.Deployment) error {
	if d.Type == "" {
		d.Type = models.TypeDeployment
	}
	return s.putDoc(ctx, d.ID, d, func(rev string) { d.Rev = rev })
}

func (s *CouchStore) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	return getDoc[models.Deployment](ctx, s, id)
}

func (s *CouchStore) DeleteDeployment(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListDeployments(ctx context.Context, filter Filter) ([]*models.Deployment, error) {
	return findDocs[models.Deployment](ctx, s, models.TypeDeployment, filter)
}

func (s *CouchStore) SaveMaintenance(ctx context.Context, m *models.MaintenanceRecord) error {
	if m.Type == "" {
		m.Type = models.TypeMaintenance
	}
	return s.putDoc(ctx, m.ID, m, func(rev string) { m.Rev = rev })
}

func (s *CouchStore) GetMaintenance(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	return getDoc[models.MaintenanceRecord](ctx, s, id)
}

func (s *CouchStore) DeleteMaintenance(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListMaintenance(ctx context.Context, filter Filter) ([]*models.MaintenanceRecord, error) {
	return findDocs[models.MaintenanceRecord](ctx, s, models.TypeMaintenance, filter)
}

func (s *CouchStore) SaveAlert(ctx context.Context, a *models.Alert) error {
	if a.Type == "" {
		a.Type = models.TypeAlert
	}
	return s.putDoc(ctx, a.ID, a, func(rev string) { a.Rev = rev })
}

func (s *CouchStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return getDoc[models.Alert](ctx, s, id)
}

func (s *CouchStore) DeleteAlert(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListAlerts(ctx context.Context, filter Filter) ([]*models.Alert, error) {
	return findDocs[models.Alert](ctx, s, models.TypeAlert, filter)
}

func (s *CouchStore) SaveUser(ctx context.Context, u *models.User) error {
	if u.Type == "" {
		u.Type = models.TypeUser
	}
	return s.putDoc(ctx, u.ID, u, func(rev string) { u.Rev = rev })
}

func (s *CouchStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getDoc[models.User](ctx, s, id)
}

func (s *CouchStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := findDocs[models.User](ctx, s, models.TypeUser, Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

func (s *CouchStore) DeleteUser(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, id)
}

func (s *CouchStore) ListUsers(ctx context.Context, filter Filter) ([]*models.User, error) {
	return findDocs[models.User](ctx, s, models.TypeUser, filter)
}
