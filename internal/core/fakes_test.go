package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeStore is an in-memory PatientStore and TenantDirectory for tests.
type fakeStore struct {
	mu       sync.Mutex
	tenants  map[string]Tenant
	patients map[string][]*Patient
	nextID   int

	createErr error
	findErr   error
}

func newFakeStore(tenantIDs ...string) *fakeStore {
	s := &fakeStore{
		tenants:  make(map[string]Tenant),
		patients: make(map[string][]*Patient),
	}
	for _, id := range tenantIDs {
		s.tenants[id] = Tenant{ID: id, Name: id, Active: true}
	}
	return s
}

func (s *fakeStore) Resolve(_ context.Context, tenantID string) (*Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok || !t.Active {
		return nil, ErrTenantNotFound
	}
	return &t, nil
}

func (s *fakeStore) Create(_ context.Context, p *Patient, tenantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	cp := *p
	cp.ID = fmt.Sprintf("p-%d", s.nextID)
	cp.TenantID = tenantID
	s.patients[tenantID] = append(s.patients[tenantID], &cp)
	return cp.ID, nil
}

func (s *fakeStore) FindMatching(_ context.Context, tenantID string, field DuplicateField, value string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, p := range s.patients[tenantID] {
		switch field {
		case MatchEmail:
			if p.Email != "" && strings.EqualFold(p.Email, value) {
				return p, nil
			}
		case MatchDocumentID:
			if p.DocumentID != "" && p.DocumentID == value {
				return p, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) ListAll(_ context.Context, tenantID string) ([]*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Patient(nil), s.patients[tenantID]...), nil
}

func (s *fakeStore) count(tenantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patients[tenantID])
}

type recordingNotifier struct {
	mu     sync.Mutex
	seen   []string
	err    error
	panics bool
}

func (n *recordingNotifier) Notify(_ context.Context, p *Patient, _ string) error {
	n.mu.Lock()
	n.seen = append(n.seen, p.ID)
	n.mu.Unlock()
	if n.panics {
		panic("notifier exploded")
	}
	return n.err
}

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) Put(_ context.Context, key string, _ []byte, _ string) error {
	a.keys = append(a.keys, key)
	return a.err
}
