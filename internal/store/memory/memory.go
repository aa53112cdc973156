// Package memory is an in-process patient store for tests and local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

// Store keeps patients and tenants in maps. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tenants  map[string]*core.Tenant
	patients map[string][]*core.Patient
	now      func() time.Time
}

var (
	_ core.PatientStore    = (*Store)(nil)
	_ core.TenantDirectory = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		tenants:  make(map[string]*core.Tenant),
		patients: make(map[string][]*core.Patient),
		now:      time.Now,
	}
}

// UpsertTenant adds or replaces a tenant.
func (s *Store) UpsertTenant(_ context.Context, t core.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = &t
	return nil
}

// Resolve implements core.TenantDirectory.
func (s *Store) Resolve(_ context.Context, tenantID string) (*core.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok || !t.Active {
		return nil, core.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

// Create implements core.PatientStore.
func (s *Store) Create(_ context.Context, p *core.Patient, tenantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.ID = uuid.New().String()
	stored.TenantID = tenantID
	stored.CreatedAt = s.now().UTC()
	s.patients[tenantID] = append(s.patients[tenantID], &stored)
	return stored.ID, nil
}

// FindMatching implements core.PatientStore.
func (s *Store) FindMatching(_ context.Context, tenantID string, field core.DuplicateField, value string) (*core.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patients[tenantID] {
		if matches(p, field, value) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func matches(p *core.Patient, field core.DuplicateField, value string) bool {
	switch field {
	case core.MatchEmail:
		return p.Email != "" && strings.EqualFold(p.Email, value)
	case core.MatchDocumentID:
		return p.DocumentID != "" && p.DocumentID == value
	}
	return false
}

// ListAll implements core.PatientStore. Patients come back in creation order.
func (s *Store) ListAll(_ context.Context, tenantID string) ([]*core.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Patient, 0, len(s.patients[tenantID]))
	for _, p := range s.patients[tenantID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns how many patients a tenant has.
func (s *Store) Count(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients[tenantID])
}

// Close is a no-op so Store satisfies the same lifecycle as the SQL stores.
func (s *Store) Close() error { return nil }
