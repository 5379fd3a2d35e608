// Package insights computes on-demand rollups over the catalog and the
// compliance rule set. Nothing here is cached; every call recomputes from a
// fresh snapshot.
package insights

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	catalogmodels "meshgov/internal/catalog/models"
	"meshgov/internal/compliance"
	dErrors "meshgov/pkg/domain-errors"
)

// CatalogSource provides the product snapshot rollups are computed from.
type CatalogSource interface {
	Snapshot(ctx context.Context) ([]catalogmodels.DataProduct, error)
}

// RuleSource provides the compliance rule snapshot.
type RuleSource interface {
	Snapshot(ctx context.Context) ([]compliance.Rule, error)
}

// DomainRollup aggregates one data domain.
type DomainRollup struct {
	Domain         string `json:"domain"`
	ActiveProducts int    `json:"active_products"`
	TotalConsumers int    `json:"total_consumers"`
	TotalDownloads int    `json:"total_downloads"`
	AverageQuality int    `json:"average_quality"`
}

// ComplianceRollup summarizes the platform's compliance posture.
type ComplianceRollup struct {
	ActiveRules     int `json:"active_rules"`
	TotalViolations int `json:"total_violations"`
	Score           int `json:"score"`
}

// Overview bundles both rollups for the dashboard landing call.
type Overview struct {
	Domains    []DomainRollup   `json:"domains"`
	Compliance ComplianceRollup `json:"compliance"`
}

// Service computes rollups.
type Service struct {
	catalog CatalogSource
	rules   RuleSource
	// violationWeight is how many score points each violation costs.
	violationWeight int
}

// New constructs the insights service.
func New(catalog CatalogSource, rules RuleSource, violationWeight int) *Service {
	return &Service{
		catalog:         catalog,
		rules:           rules,
		violationWeight: violationWeight,
	}
}

// DomainRollups aggregates every domain from a single catalog snapshot,
// sorted by domain name.
func (s *Service) DomainRollups(ctx context.Context) ([]DomainRollup, error) {
	products, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot catalog")
	}

	type acc struct {
		active     int
		consumers  int
		downloads  int
		qualitySum int
		count      int
	}
	byDomain := make(map[string]*acc)
	for _, p := range products {
		a := byDomain[p.Domain]
		if a == nil {
			a = &acc{}
			byDomain[p.Domain] = a
		}
		if p.Status == catalogmodels.StatusActive {
			a.active++
		}
		a.consumers += p.ConsumerCount
		a.downloads += p.DownloadCount
		a.qualitySum += p.QualityScore
		a.count++
	}

	rollups := make([]DomainRollup, 0, len(byDomain))
	for domain, a := range byDomain {
		rollups = append(rollups, DomainRollup{
			Domain:         domain,
			ActiveProducts: a.active,
			TotalConsumers: a.consumers,
			TotalDownloads: a.downloads,
			AverageQuality: int(math.Round(float64(a.qualitySum) / float64(a.count))),
		})
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Domain < rollups[j].Domain })
	return rollups, nil
}

// Compliance computes the platform compliance rollup. Each violation on an
// enforced rule costs violationWeight points off a 100-point score, clamped
// to [0,100].
func (s *Service) Compliance(ctx context.Context) (ComplianceRollup, error) {
	rules, err := s.rules.Snapshot(ctx)
	if err != nil {
		return ComplianceRollup{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot rules")
	}

	rollup := ComplianceRollup{}
	for _, r := range rules {
		if !r.Enforced() {
			continue
		}
		rollup.ActiveRules++
		rollup.TotalViolations += r.ViolationCount
	}

	score := 100 - s.violationWeight*rollup.TotalViolations
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	rollup.Score = score
	return rollup, nil
}

// Overview computes both rollups concurrently, each from its own snapshot.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		overview Overview
		g, gctx  = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		domains, err := s.DomainRollups(gctx)
		if err != nil {
			return err
		}
		overview.Domains = domains
		return nil
	})
	g.Go(func() error {
		rollup, err := s.Compliance(gctx)
		if err != nil {
			return err
		}
		overview.Compliance = rollup
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
