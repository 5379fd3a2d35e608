// Package service implements the catalog index: publishing, querying, and
// aggregate statistics over data products.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"meshgov/internal/audit"
	catalogmetrics "meshgov/internal/catalog/metrics"
	"meshgov/internal/catalog/models"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/sentinel"
	"meshgov/pkg/requestcontext"
)

// DomainAll is the sentinel domain filter that disables domain filtering.
const DomainAll = "all"

// SortKey selects the ordering of search results.
type SortKey string

const (
	// SortUpdated orders by last-updated descending. This is the default.
	SortUpdated SortKey = "updated"
	// SortName orders by name ascending using locale-aware collation.
	SortName SortKey = "name"
	// SortQuality orders by quality score descending.
	SortQuality SortKey = "quality"
	// SortConsumers orders by consumer count descending.
	SortConsumers SortKey = "consumers"
)

// ParseSortKey validates a sort key, defaulting the empty string to updated.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortUpdated, nil
	}
	k := SortKey(s)
	switch k {
	case SortUpdated, SortName, SortQuality, SortConsumers:
		return k, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid sort key: must be 'updated', 'name', 'quality' or 'consumers'")
}

// ProductStore is the persistence boundary the catalog service needs.
type ProductStore interface {
	CreateIfAbsent(ctx context.Context, product *models.DataProduct) error
	FindByID(ctx context.Context, productID id.ProductID) (*models.DataProduct, error)
	Snapshot(ctx context.Context) ([]models.DataProduct, error)
	Execute(ctx context.Context, productID id.ProductID, validate func(*models.DataProduct) error, mutate func(*models.DataProduct)) (*models.DataProduct, error)
}

// Auditor records catalog transitions.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service answers catalog queries and owns product publication.
type Service struct {
	products ProductStore
	auditor  Auditor
	locale   language.Tag
	logger   *slog.Logger
	metrics  *catalogmetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the catalog service. locale is a BCP 47 tag used for
// name collation; unknown tags fall back to root collation.
func New(products ProductStore, auditor Auditor, locale string, opts ...Option) *Service {
	s := &Service{
		products: products,
		auditor:  auditor,
		locale:   language.Make(locale),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishInput carries the owner-supplied product metadata.
type PublishInput struct {
	Name         string
	Description  string
	Domain       string
	OwnerID      id.UserID
	Tags         []string
	AccessLevel  models.AccessLevel
	QualityScore int
}

// Publish validates and stores a new product. Duplicate (name, domain)
// pairs fail as validation errors: the caller must pick another name.
func (s *Service) Publish(ctx context.Context, input PublishInput) (*models.DataProduct, error) {
	product, err := models.NewDataProduct(
		id.ProductID(uuid.New()),
		strings.TrimSpace(input.Name),
		input.Description,
		strings.TrimSpace(input.Domain),
		input.OwnerID,
		input.Tags,
		input.AccessLevel,
		input.QualityScore,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.products.CreateIfAbsent(ctx, product); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeValidation, "a product with this name already exists in the domain")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store product")
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionProductPublished,
		ActorID:     input.OwnerID,
		SubjectKind: audit.SubjectProduct,
		SubjectID:   product.ID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, err
	}

	s.metrics.IncrementProductsPublished()
	return product, nil
}

// Get returns a single product by ID.
func (s *Service) Get(ctx context.Context, productID id.ProductID) (*models.DataProduct, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	return product, nil
}

// Deprecate transitions a product to deprecated. Products are never deleted.
func (s *Service) Deprecate(ctx context.Context, productID id.ProductID, actorID id.UserID) (*models.DataProduct, error) {
	now := requestcontext.Now(ctx)
	product, err := s.products.Execute(ctx, productID,
		func(p *models.DataProduct) error {
			if err := p.CanDeprecate(); err != nil {
				return dErrors.New(dErrors.CodeInvalidState, "product is already deprecated")
			}
			return nil
		},
		func(p *models.DataProduct) {
			p.ApplyDeprecation(now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionProductDeprecated,
		ActorID:     actorID,
		SubjectKind: audit.SubjectProduct,
		SubjectID:   productID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, err
	}
	return product, nil
}

// Search filters and orders the catalog. The query matches case-insensitive
// substrings of name, description, and tags. domainFilter "all" (or empty)
// disables domain filtering. Results are a point-in-time snapshot.
func (s *Service) Search(ctx context.Context, query, domainFilter string, sortKey SortKey) ([]models.DataProduct, error) {
	products, err := s.products.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot catalog")
	}

	q := strings.ToLower(strings.TrimSpace(query))
	filtered := products[:0]
	for _, p := range products {
		if q != "" && !matches(p, q) {
			continue
		}
		if domainFilter != "" && domainFilter != DomainAll && p.Domain != domainFilter {
			continue
		}
		filtered = append(filtered, p)
	}

	s.sortProducts(filtered, sortKey)

	s.metrics.IncrementSearches()
	return filtered, nil
}

func matches(p models.DataProduct, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (s *Service) sortProducts(products []models.DataProduct, sortKey SortKey) {
	// Ties always break by product ID ascending so result order is
	// deterministic across calls.
	tieBreak := func(a, b models.DataProduct) bool {
		return a.ID.String() < b.ID.String()
	}

	switch sortKey {
	case SortName:
		// A collator is not safe for concurrent use, so build one per call.
		c := collate.New(s.locale)
		sort.SliceStable(products, func(i, j int) bool {
			if cmp := c.CompareString(products[i].Name, products[j].Name); cmp != 0 {
				return cmp < 0
			}
			return tieBreak(products[i], products[j])
		})
	case SortQuality:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].QualityScore != products[j].QualityScore {
				return products[i].QualityScore > products[j].QualityScore
			}
			return tieBreak(products[i], products[j])
		})
	case SortConsumers:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].ConsumerCount != products[j].ConsumerCount {
				return products[i].ConsumerCount > products[j].ConsumerCount
			}
			return tieBreak(products[i], products[j])
		})
	default: // SortUpdated
		sort.SliceStable(products, func(i, j int) bool {
			if !products[i].LastUpdated.Equal(products[j].LastUpdated) {
				return products[i].LastUpdated.After(products[j].LastUpdated)
			}
			return tieBreak(products[i], products[j])
		})
	}
}

// ListDomains returns the distinct product domains, sorted for stable facets.
func (s *Service) ListDomains(ctx context.Context) ([]string, error) {
	products, err := s.products.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot catalog")
	}

	seen := make(map[string]struct{})
	domains := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Domain]; ok {
			continue
		}
		seen[p.Domain] = struct{}{}
		domains = append(domains, p.Domain)
	}
	sort.Strings(domains)
	return domains, nil
}

// Stats is the catalog-wide aggregate used by the dashboard header.
type Stats struct {
	TotalProducts  int `json:"total_products"`
	ActiveDomains  int `json:"active_domains"`
	TotalConsumers int `json:"total_consumers"`
	AverageQuality int `json:"average_quality"`
}

// AggregateStats recomputes catalog-wide statistics from a snapshot. An
// empty catalog yields zero-valued stats, not an error.
func (s *Service) AggregateStats(ctx context.Context) (Stats, error) {
	products, err := s.products.Snapshot(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot catalog")
	}
	if len(products) == 0 {
		return Stats{}, nil
	}

	domains := make(map[string]struct{})
	consumers := 0
	qualitySum := 0
	for _, p := range products {
		domains[p.Domain] = struct{}{}
		consumers += p.ConsumerCount
		qualitySum += p.QualityScore
	}

	return Stats{
		TotalProducts:  len(products),
		ActiveDomains:  len(domains),
		TotalConsumers: consumers,
		AverageQuality: int(math.Round(float64(qualitySum) / float64(len(products)))),
	}, nil
}
