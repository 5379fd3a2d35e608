package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"meshgov/internal/audit"
	auditMemory "meshgov/internal/audit/store/memory"
	"meshgov/internal/catalog/models"
	catalogStore "meshgov/internal/catalog/store"
	"meshgov/internal/policy"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/requestcontext"
)

// =============================================================================
// Catalog Service Test Suite
// =============================================================================
// Justification for unit tests: search ordering, duplicate detection, and
// aggregate math have many small branches that are cheap to pin down here and
// awkward to reach through HTTP round-trips.

type CatalogServiceSuite struct {
	suite.Suite
	products *catalogStore.InMemory
	auditLog *auditMemory.InMemoryStore
	service  *Service
	owner    id.UserID
	baseTime time.Time
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.products = catalogStore.NewInMemory()
	s.auditLog = auditMemory.NewInMemoryStore()
	recorder := audit.NewRecorder(s.auditLog, policy.NewStore())
	s.service = New(s.products, recorder, "en")
	s.owner = id.UserID(uuid.New())
	s.baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *CatalogServiceSuite) ctxAt(t time.Time) context.Context {
	ctx := requestcontext.WithActorID(context.Background(), s.owner)
	return requestcontext.WithTime(ctx, t)
}

func (s *CatalogServiceSuite) publish(at time.Time, name, domain string, level models.AccessLevel, quality int, tags ...string) *models.DataProduct {
	s.T().Helper()
	product, err := s.service.Publish(s.ctxAt(at), PublishInput{
		Name:         name,
		Description:  name + " description",
		Domain:       domain,
		OwnerID:      s.owner,
		Tags:         tags,
		AccessLevel:  level,
		QualityScore: quality,
	})
	s.Require().NoError(err)
	return product
}

// =============================================================================
// Publish Tests
// =============================================================================

func (s *CatalogServiceSuite) TestPublish() {
	s.Run("stores a new active product and records an audit entry", func() {
		product := s.publish(s.baseTime, "Customer Orders", "sales", models.AccessInternal, 85, "orders")

		s.Equal(models.StatusActive, product.Status)
		s.Equal(s.baseTime, product.LastUpdated)
		s.Equal(0, product.ConsumerCount)
		s.Equal(1, s.auditLog.Len())

		entries, err := s.auditLog.Query(context.Background(), audit.Filter{SubjectID: product.ID.String()})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionProductPublished, entries[0].Action)
		s.Equal(audit.OutcomeSuccess, entries[0].Outcome)
	})

	s.Run("rejects duplicate name within the same domain", func() {
		s.publish(s.baseTime, "Inventory", "logistics", models.AccessPublic, 70)

		_, err := s.service.Publish(s.ctxAt(s.baseTime), PublishInput{
			Name:         "inventory", // case-insensitive match
			Domain:       "Logistics",
			OwnerID:      s.owner,
			AccessLevel:  models.AccessPublic,
			QualityScore: 50,
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("allows the same name in a different domain", func() {
		s.publish(s.baseTime, "Metrics", "finance", models.AccessInternal, 60)
		product := s.publish(s.baseTime, "Metrics", "marketing", models.AccessInternal, 60)
		s.NotNil(product)
	})

	s.Run("rejects an empty name", func() {
		_, err := s.service.Publish(s.ctxAt(s.baseTime), PublishInput{
			Name:         "   ",
			Domain:       "sales",
			OwnerID:      s.owner,
			AccessLevel:  models.AccessPublic,
			QualityScore: 50,
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Get / Deprecate Tests
// =============================================================================

func (s *CatalogServiceSuite) TestGet() {
	s.Run("unknown product returns not found", func() {
		_, err := s.service.Get(context.Background(), id.ProductID(uuid.New()))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns the stored product", func() {
		published := s.publish(s.baseTime, "Shipments", "logistics", models.AccessRestricted, 90)
		got, err := s.service.Get(context.Background(), published.ID)
		s.NoError(err)
		s.Equal(published.ID, got.ID)
		s.Equal("Shipments", got.Name)
	})
}

func (s *CatalogServiceSuite) TestDeprecate() {
	s.Run("transitions the product and records an audit entry", func() {
		product := s.publish(s.baseTime, "Legacy Feed", "sales", models.AccessInternal, 40)
		later := s.baseTime.Add(24 * time.Hour)

		deprecated, err := s.service.Deprecate(s.ctxAt(later), product.ID, s.owner)
		s.Require().NoError(err)
		s.Equal(models.StatusDeprecated, deprecated.Status)
		s.Equal(later, deprecated.LastUpdated)

		entries, err := s.auditLog.Query(context.Background(), audit.Filter{Action: audit.ActionProductDeprecated})
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("deprecating twice fails with invalid state", func() {
		product := s.publish(s.baseTime, "Twice", "sales", models.AccessInternal, 40)
		_, err := s.service.Deprecate(s.ctxAt(s.baseTime), product.ID, s.owner)
		s.Require().NoError(err)

		_, err = s.service.Deprecate(s.ctxAt(s.baseTime), product.ID, s.owner)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown product returns not found", func() {
		_, err := s.service.Deprecate(s.ctxAt(s.baseTime), id.ProductID(uuid.New()), s.owner)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Search Tests
// =============================================================================

func (s *CatalogServiceSuite) TestSearch() {
	alpha := s.publish(s.baseTime, "Alpha Orders", "sales", models.AccessPublic, 90, "orders", "daily")
	bravo := s.publish(s.baseTime.Add(time.Hour), "Bravo Returns", "sales", models.AccessInternal, 70, "returns")
	carol := s.publish(s.baseTime.Add(2*time.Hour), "Carol Stock", "logistics", models.AccessRestricted, 80, "inventory")

	s.Run("matches name, description and tags case-insensitively", func() {
		byName, err := s.service.Search(context.Background(), "ALPHA", "", SortUpdated)
		s.Require().NoError(err)
		s.Require().Len(byName, 1)
		s.Equal(alpha.ID, byName[0].ID)

		byTag, err := s.service.Search(context.Background(), "inventory", "", SortUpdated)
		s.Require().NoError(err)
		s.Require().Len(byTag, 1)
		s.Equal(carol.ID, byTag[0].ID)
	})

	s.Run("empty query with domain all returns everything", func() {
		all, err := s.service.Search(context.Background(), "", DomainAll, SortUpdated)
		s.Require().NoError(err)
		s.Len(all, 3)
	})

	s.Run("domain filter narrows results", func() {
		sales, err := s.service.Search(context.Background(), "", "sales", SortUpdated)
		s.Require().NoError(err)
		s.Require().Len(sales, 2)
		for _, p := range sales {
			s.Equal("sales", p.Domain)
		}
	})

	s.Run("no matches returns an empty slice", func() {
		none, err := s.service.Search(context.Background(), "nonexistent", "", SortUpdated)
		s.Require().NoError(err)
		s.Empty(none)
	})

	s.Run("sorts by last updated descending by default", func() {
		results, err := s.service.Search(context.Background(), "", "", SortUpdated)
		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal(carol.ID, results[0].ID)
		s.Equal(bravo.ID, results[1].ID)
		s.Equal(alpha.ID, results[2].ID)
	})

	s.Run("sorts by name ascending", func() {
		results, err := s.service.Search(context.Background(), "", "", SortName)
		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal("Alpha Orders", results[0].Name)
		s.Equal("Bravo Returns", results[1].Name)
		s.Equal("Carol Stock", results[2].Name)
	})

	s.Run("sorts by quality descending", func() {
		results, err := s.service.Search(context.Background(), "", "", SortQuality)
		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal(alpha.ID, results[0].ID)
		s.Equal(carol.ID, results[1].ID)
		s.Equal(bravo.ID, results[2].ID)
	})

	s.Run("sorts by consumer count descending", func() {
		s.Require().NoError(s.products.IncrementConsumers(context.Background(), bravo.ID))
		s.Require().NoError(s.products.IncrementConsumers(context.Background(), bravo.ID))
		s.Require().NoError(s.products.IncrementConsumers(context.Background(), carol.ID))

		results, err := s.service.Search(context.Background(), "", "", SortConsumers)
		s.Require().NoError(err)
		s.Require().Len(results, 3)
		s.Equal(bravo.ID, results[0].ID)
		s.Equal(carol.ID, results[1].ID)
		s.Equal(alpha.ID, results[2].ID)
	})
}

func (s *CatalogServiceSuite) TestSearchTieBreak() {
	// Identical timestamps and quality scores force every comparison through
	// the ID tie-break, so result order must be ID ascending.
	first := s.publish(s.baseTime, "Shipments East", "logistics", models.AccessInternal, 75)
	second := s.publish(s.baseTime, "Shipments West", "logistics", models.AccessInternal, 75)

	lowID, highID := first.ID, second.ID
	if highID.String() < lowID.String() {
		lowID, highID = highID, lowID
	}

	for _, key := range []SortKey{SortUpdated, SortQuality, SortConsumers} {
		s.Run(string(key), func() {
			results, err := s.service.Search(context.Background(), "", "", key)
			s.Require().NoError(err)
			s.Require().Len(results, 2)
			s.Equal(lowID, results[0].ID)
			s.Equal(highID, results[1].ID)
		})
	}
}

func (s *CatalogServiceSuite) TestParseSortKey() {
	s.Run("empty string defaults to updated", func() {
		key, err := ParseSortKey("")
		s.NoError(err)
		s.Equal(SortUpdated, key)
	})

	s.Run("unknown key fails", func() {
		_, err := ParseSortKey("downloads")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Facet / Aggregate Tests
// =============================================================================

func (s *CatalogServiceSuite) TestListDomains() {
	s.publish(s.baseTime, "A", "sales", models.AccessPublic, 50)
	s.publish(s.baseTime, "B", "logistics", models.AccessPublic, 50)
	s.publish(s.baseTime, "C", "sales", models.AccessPublic, 50)

	domains, err := s.service.ListDomains(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"logistics", "sales"}, domains)
}

func (s *CatalogServiceSuite) TestAggregateStats() {
	s.Run("empty catalog yields zero stats", func() {
		stats, err := s.service.AggregateStats(context.Background())
		s.NoError(err)
		s.Equal(Stats{}, stats)
	})

	s.Run("computes totals and rounded mean quality", func() {
		a := s.publish(s.baseTime, "A", "sales", models.AccessPublic, 80)
		s.publish(s.baseTime, "B", "logistics", models.AccessPublic, 91)

		s.Require().NoError(s.products.IncrementConsumers(context.Background(), a.ID))
		s.Require().NoError(s.products.IncrementConsumers(context.Background(), a.ID))

		stats, err := s.service.AggregateStats(context.Background())
		s.Require().NoError(err)
		s.Equal(2, stats.TotalProducts)
		s.Equal(2, stats.ActiveDomains)
		s.Equal(2, stats.TotalConsumers)
		s.Equal(86, stats.AverageQuality) // (80+91)/2 = 85.5 rounds up
	})
}
