// Package store holds the in-memory catalog index. All reads hand out deep
// copies so callers observe a consistent snapshot regardless of concurrent
// publishes and counter updates.
package store

import (
	"context"
	"strings"
	"sync"

	"meshgov/internal/catalog/models"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.DataProduct
	// byNameDomain enforces case-insensitive (name, domain) uniqueness.
	byNameDomain map[string]id.ProductID
}

func NewInMemory() *InMemory {
	return &InMemory{
		products:     make(map[id.ProductID]*models.DataProduct),
		byNameDomain: make(map[string]id.ProductID),
	}
}

func uniqueKey(name, domain string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(domain)
}

// CreateIfAbsent stores a new product, failing with ErrAlreadyUsed when a
// product with the same name and domain already exists.
func (s *InMemory) CreateIfAbsent(_ context.Context, product *models.DataProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uniqueKey(product.Name, product.Domain)
	if _, exists := s.byNameDomain[key]; exists {
		return sentinel.ErrAlreadyUsed
	}

	cp := product.Clone()
	s.products[product.ID] = &cp
	s.byNameDomain[key] = product.ID
	return nil
}

// FindByID returns a copy of the product or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, productID id.ProductID) (*models.DataProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

// Snapshot returns a point-in-time copy of every stored product.
func (s *InMemory) Snapshot(_ context.Context) ([]models.DataProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DataProduct, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out, nil
}

// Execute runs validate and mutate against the stored product while holding
// the store lock, serializing concurrent transitions on the same product.
// Returns a copy of the mutated product.
func (s *InMemory) Execute(_ context.Context, productID id.ProductID, validate func(*models.DataProduct) error, mutate func(*models.DataProduct)) (*models.DataProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)
	cp := p.Clone()
	return &cp, nil
}

// IncrementConsumers bumps the consumer counter atomically.
func (s *InMemory) IncrementConsumers(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.ConsumerCount++
	return nil
}

// IncrementDownloads bumps the download counter atomically. Usage does not
// touch LastUpdated; that timestamp tracks metadata changes only.
func (s *InMemory) IncrementDownloads(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.DownloadCount++
	return nil
}
