// Package apikey holds the in-memory API key store.
package apikey

import (
	"context"
	"sort"
	"sync"

	"meshgov/internal/access/models"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	keys map[id.KeyID]*models.APIKey
}

func NewInMemory() *InMemory {
	return &InMemory{keys: make(map[id.KeyID]*models.APIKey)}
}

// Create stores a new key, failing with ErrConflict on an ID collision.
func (s *InMemory) Create(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := key.Clone()
	s.keys[key.ID] = &cp
	return nil
}

// Execute runs validate and mutate against the stored key while holding the
// store lock. Returns a copy of the mutated key.
func (s *InMemory) Execute(_ context.Context, keyID id.KeyID, validate func(*models.APIKey) error, mutate func(*models.APIKey)) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[keyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(k); err != nil {
		return nil, err
	}
	mutate(k)
	cp := k.Clone()
	return &cp, nil
}

// ListByHolder returns the holder's keys, newest first.
func (s *InMemory) ListByHolder(_ context.Context, holderID id.UserID) ([]models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.APIKey, 0)
	for _, k := range s.keys {
		if k.HolderID == holderID {
			out = append(out, k.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
