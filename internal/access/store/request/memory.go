// Package request holds the in-memory access request store. Execute holds
// the store lock across validate and mutate, so racing decisions on the same
// request resolve to exactly one winner.
package request

import (
	"context"
	"sort"
	"sync"

	"meshgov/internal/access/models"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.AccessRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.AccessRequest)}
}

// Create stores a new request, failing with ErrConflict on an ID collision.
func (s *InMemory) Create(_ context.Context, req *models.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := req.Clone()
	s.requests[req.ID] = &cp
	return nil
}

// FindByID returns a copy of the request or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := r.Clone()
	return &cp, nil
}

// Execute runs validate and mutate against the stored request while holding
// the store lock. Returns a copy of the mutated request.
func (s *InMemory) Execute(_ context.Context, requestID id.RequestID, validate func(*models.AccessRequest) error, mutate func(*models.AccessRequest)) (*models.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	cp := r.Clone()
	return &cp, nil
}

// ListByRequester returns the requester's requests, newest first.
func (s *InMemory) ListByRequester(_ context.Context, requesterID id.UserID) ([]models.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AccessRequest, 0)
	for _, r := range s.requests {
		if r.RequesterID == requesterID {
			out = append(out, r.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListByProduct returns requests for a product, optionally narrowed to one
// status (empty matches any), newest first.
func (s *InMemory) ListByProduct(_ context.Context, productID id.ProductID, status models.RequestStatus) ([]models.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AccessRequest, 0)
	for _, r := range s.requests {
		if r.ProductID != productID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(requests []models.AccessRequest) {
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].RequestedAt.Equal(requests[j].RequestedAt) {
			return requests[i].RequestedAt.After(requests[j].RequestedAt)
		}
		return requests[i].ID.String() < requests[j].ID.String()
	})
}
