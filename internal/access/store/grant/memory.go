// Package grant holds the in-memory access grant store.
package grant

import (
	"context"
	"sort"
	"sync"

	"meshgov/internal/access/models"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	grants map[id.GrantID]*models.AccessGrant
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[id.GrantID]*models.AccessGrant)}
}

// Create stores a new grant, failing with ErrConflict on an ID collision.
func (s *InMemory) Create(_ context.Context, g *models.AccessGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.grants[g.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := g.Clone()
	s.grants[g.ID] = &cp
	return nil
}

// FindByID returns a copy of the grant or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, grantID id.GrantID) (*models.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[grantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := g.Clone()
	return &cp, nil
}

// Execute runs validate and mutate against the stored grant while holding the
// store lock. Usage increments and revocations both go through here so the
// usability check and the mutation are a single critical section.
func (s *InMemory) Execute(_ context.Context, grantID id.GrantID, validate func(*models.AccessGrant) error, mutate func(*models.AccessGrant)) (*models.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[grantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	mutate(g)
	cp := g.Clone()
	return &cp, nil
}

// ListByHolder returns the holder's grants, newest first.
func (s *InMemory) ListByHolder(_ context.Context, holderID id.UserID) ([]models.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AccessGrant, 0)
	for _, g := range s.grants {
		if g.HolderID == holderID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GrantedAt.Equal(out[j].GrantedAt) {
			return out[i].GrantedAt.After(out[j].GrantedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Snapshot returns a point-in-time copy of every stored grant.
func (s *InMemory) Snapshot(_ context.Context) ([]models.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AccessGrant, 0, len(s.grants))
	for _, g := range s.grants {
		out = append(out, g.Clone())
	}
	return out, nil
}
