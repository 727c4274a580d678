package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"aquaalert.org/aquaalert/models"
)

// MemStore is an in-memory Store. It backs the test suite and the
// `--store memory` development mode. Documents are kept as JSON so reads
// and writes are deep copies: callers can never mutate store state through
// a returned value.
type MemStore struct {
	mu   sync.RWMutex
	revs map[string]int
	docs map[string][]byte // id -> JSON document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemStore {
	return &MemStore{
		revs: make(map[string]int),
		docs: make(map[string][]byte),
	}
}

// Close implements Store; there is nothing to release.
func (s *MemStore) Close() error { return nil }

func (s *MemStore) put(id string, doc interface{}, setRev func(string)) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revs[id]++
	setRev(fmt.Sprintf("%d-mem", s.revs[id]))

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	s.docs[id] = data
	return nil
}

func (s *MemStore) get(id string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func (s *MemStore) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	delete(s.revs, id)
	return nil
}

// list invokes collect with the raw JSON of every stored document of
// docType matching the filter, in ID order for determinism.
func (s *MemStore) list(docType string, filter Filter, collect func(data []byte) error) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matched := make([][]byte, 0)
	for _, id := range ids {
		data := s.docs[id]
		var fields map[string]interface{}
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		if fields["type"] != docType {
			continue
		}
		if !matchFilter(fields, filter) {
			continue
		}
		matched = append(matched, data)
	}
	s.mu.RUnlock()

	for _, data := range matched {
		if err := collect(data); err != nil {
			return err
		}
	}
	return nil
}

// matchFilter compares filter values against decoded JSON fields. Filter
// values are round-tripped through JSON so int filters match float64
// document fields.
func matchFilter(fields map[string]interface{}, filter Filter) bool {
	for key, want := range filter {
		raw, err := json.Marshal(want)
		if err != nil {
			return false
		}
		var normalized interface{}
		if err := json.Unmarshal(raw, &normalized); err != nil {
			return false
		}
		if !reflect.DeepEqual(fields[key], normalized) {
			return false
		}
	}
	return true
}

func listInto[T any](s *MemStore, docType string, filter Filter) ([]*T, error) {
	var result []*T
	err := s.list(docType, filter, func(data []byte) error {
		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		result = append(result, &doc)
		return nil
	})
	return result, err
}

func (s *MemStore) SaveBowser(_ context.Context, b *models.Bowser) error {
	if b.Type == "" {
		b.Type = models.TypeBowser
	}
	return s.put(b.ID, b, func(rev string) { b.Rev = rev })
}

func (s *MemStore) GetBowser(_ context.Context, id string) (*models.Bowser, error) {
	var b models.Bowser
	if err := s.get(id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MemStore) DeleteBowser(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListBowsers(_ context.Context, filter Filter) ([]*models.Bowser, error) {
	return listInto[models.Bowser](s, models.TypeBowser, filter)
}

func (s *MemStore) SaveLocation(_ context.Context, l *models.Location) error {
	if l.Type == "" {
		l.Type = models.TypeLocation
	}
	return s.put(l.ID, l, func(rev string) { l.Rev = rev })
}

func (s *MemStore) GetLocation(_ context.Context, id string) (*models.Location, error) {
	var l models.Location
	if err := s.get(id, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *MemStore) DeleteLocation(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListLocations(_ context.Context, filter Filter) ([]*models.Location, error) {
	return listInto[models.Location](s, models.TypeLocation, filter)
}

func (s *MemStore) SaveDeployment(_ context.Context, d *models.Deployment) error {
	if d.Type == "" {
		d.Type = models.TypeDeployment
	}
	return s.put(d.ID, d, func(rev string) { d.Rev = rev })
}

func (s *MemStore) GetDeployment(_ context.Context, id string) (*models.Deployment, error) {
	var d models.Deployment
	if err := s.get(id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MemStore) DeleteDeployment(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListDeployments(_ context.Context, filter Filter) ([]*models.Deployment, error) {
	return listInto[models.Deployment](s, models.TypeDeployment, filter)
}

func (s *MemStore) SaveMaintenance(_ context.Context, m *models.MaintenanceRecord) error {
	if m.Type == "" {
		m.Type = models.TypeMaintenance
	}
	return s.put(m.ID, m, func(rev string) { m.Rev = rev })
}

func (s *MemStore) GetMaintenance(_ context.Context, id string) (*models.MaintenanceRecord, error) {
	var m models.MaintenanceRecord
	if err := s.get(id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemStore) DeleteMaintenance(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListMaintenance(_ context.Context, filter Filter) ([]*models.MaintenanceRecord, error) {
	return listInto[models.MaintenanceRecord](s, models.TypeMaintenance, filter)
}

func (s *MemStore) SaveAlert(_ context.Context, a *models.Alert) error {
	if a.Type == "" {
		a.Type = models.TypeAlert
	}
	return s.put(a.ID, a, func(rev string) { a.Rev = rev })
}

func (s *MemStore) GetAlert(_ context.Context, id string) (*models.Alert, error) {
	var a models.Alert
	if err := s.get(id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MemStore) DeleteAlert(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListAlerts(_ context.Context, filter Filter) ([]*models.Alert, error) {
	return listInto[models.Alert](s, models.TypeAlert, filter)
}

func (s *MemStore) SaveUser(_ context.Context, u *models.User) error {
	if u.Type == "" {
		u.Type = models.TypeUser
	}
	return s.put(u.ID, u, func(rev string) { u.Rev = rev })
}

func (s *MemStore) GetUser(_ context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.get(id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := s.ListUsers(ctx, Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

func (s *MemStore) DeleteUser(_ context.Context, id string) error {
	return s.delete(id)
}

func (s *MemStore) ListUsers(_ context.Context, filter Filter) ([]*models.User, error) {
	return listInto[models.User](s, models.TypeUser, filter)
}
