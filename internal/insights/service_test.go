package insights

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	catalogmodels "meshgov/internal/catalog/models"
	catalogStore "meshgov/internal/catalog/store"
	"meshgov/internal/compliance"
	id "meshgov/pkg/domain"
)

type InsightsSuite struct {
	suite.Suite
	catalog *catalogStore.InMemory
	rules   *compliance.Store
	service *Service
	now     time.Time
}

func TestInsightsSuite(t *testing.T) {
	suite.Run(t, new(InsightsSuite))
}

func (s *InsightsSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.catalog = catalogStore.NewInMemory()
	s.rules = compliance.NewStore(s.now)
	s.service = New(s.catalog, s.rules, 5)
}

func (s *InsightsSuite) seedProduct(domain string, quality int, deprecated bool) id.ProductID {
	s.T().Helper()
	product, err := catalogmodels.NewDataProduct(
		id.ProductID(uuid.New()), "P "+uuid.NewString()[:8], "", domain,
		id.UserID(uuid.New()), nil, catalogmodels.AccessInternal, quality, s.now,
	)
	s.Require().NoError(err)
	if deprecated {
		product.ApplyDeprecation(s.now)
	}
	s.Require().NoError(s.catalog.CreateIfAbsent(context.Background(), product))
	return product.ID
}

func (s *InsightsSuite) TestDomainRollups() {
	ctx := context.Background()

	s.Run("empty catalog yields no rollups", func() {
		rollups, err := s.service.DomainRollups(ctx)
		s.Require().NoError(err)
		s.Empty(rollups)
	})

	s.Run("aggregates per domain with deprecated products excluded from active count", func() {
		a := s.seedProduct("sales", 80, false)
		s.seedProduct("sales", 91, true)
		s.seedProduct("logistics", 70, false)

		s.Require().NoError(s.catalog.IncrementConsumers(ctx, a))
		s.Require().NoError(s.catalog.IncrementDownloads(ctx, a))
		s.Require().NoError(s.catalog.IncrementDownloads(ctx, a))

		rollups, err := s.service.DomainRollups(ctx)
		s.Require().NoError(err)
		s.Require().Len(rollups, 2)

		// Sorted by domain name.
		s.Equal("logistics", rollups[0].Domain)
		s.Equal("sales", rollups[1].Domain)

		sales := rollups[1]
		s.Equal(1, sales.ActiveProducts) // deprecated one excluded
		s.Equal(1, sales.TotalConsumers)
		s.Equal(2, sales.TotalDownloads)
		s.Equal(86, sales.AverageQuality) // (80+91)/2 rounds up, all products count
	})
}

func (s *InsightsSuite) TestComplianceRollup() {
	ctx := context.Background()

	s.Run("clean rule set scores 100", func() {
		rollup, err := s.service.Compliance(ctx)
		s.Require().NoError(err)
		s.Equal(5, rollup.ActiveRules)
		s.Equal(0, rollup.TotalViolations)
		s.Equal(100, rollup.Score)
	})

	s.Run("violations subtract the configured weight", func() {
		rules, err := s.rules.Snapshot(ctx)
		s.Require().NoError(err)
		for i := 0; i < 3; i++ {
			_, err := s.rules.RecordViolation(ctx, rules[0].ID, s.now)
			s.Require().NoError(err)
		}

		rollup, err := s.service.Compliance(ctx)
		s.Require().NoError(err)
		s.Equal(3, rollup.TotalViolations)
		s.Equal(85, rollup.Score) // 100 - 5*3
	})

	s.Run("score clamps at zero", func() {
		rules, err := s.rules.Snapshot(ctx)
		s.Require().NoError(err)
		for i := 0; i < 30; i++ {
			_, err := s.rules.RecordViolation(ctx, rules[1].ID, s.now)
			s.Require().NoError(err)
		}

		rollup, err := s.service.Compliance(ctx)
		s.Require().NoError(err)
		s.Equal(0, rollup.Score)
	})

	s.Run("inactive rules drop out of scoring", func() {
		rules, err := s.rules.Snapshot(ctx)
		s.Require().NoError(err)

		// Switch off the heavily violated rules from the prior subtests.
		_, err = s.rules.Toggle(ctx, rules[0].ID, s.now)
		s.Require().NoError(err)
		_, err = s.rules.Toggle(ctx, rules[1].ID, s.now)
		s.Require().NoError(err)

		rollup, err := s.service.Compliance(ctx)
		s.Require().NoError(err)
		s.Equal(3, rollup.ActiveRules)
		s.Equal(0, rollup.TotalViolations)
		s.Equal(100, rollup.Score)
	})
}

func (s *InsightsSuite) TestOverview() {
	ctx := context.Background()
	s.seedProduct("sales", 75, false)

	overview, err := s.service.Overview(ctx)
	s.Require().NoError(err)
	s.Require().Len(overview.Domains, 1)
	s.Equal("sales", overview.Domains[0].Domain)
	s.Equal(100, overview.Compliance.Score)
}
