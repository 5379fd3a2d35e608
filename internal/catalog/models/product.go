package models

import (
	"time"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
)

// ProductStatus is the lifecycle state of a data product.
type ProductStatus string

const (
	StatusActive      ProductStatus = "active"
	StatusDevelopment ProductStatus = "development"
	StatusDeprecated  ProductStatus = "deprecated"
)

// IsValid checks if the status is one of the supported enum values.
func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDevelopment, StatusDeprecated:
		return true
	}
	return false
}

// AccessLevel classifies a product's sensitivity and drives the default
// authorization policy.
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessInternal   AccessLevel = "internal"
	AccessRestricted AccessLevel = "restricted"
)

// IsValid checks if the access level is one of the supported enum values.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessPublic, AccessInternal, AccessRestricted:
		return true
	}
	return false
}

// ParseAccessLevel creates an AccessLevel from a string, validating it.
func ParseAccessLevel(s string) (AccessLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "access level cannot be empty")
	}
	l := AccessLevel(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid access level: must be 'public', 'internal' or 'restricted'")
	}
	return l, nil
}

// DataProduct is the aggregate root for catalog metadata.
//
// Invariants:
//   - Name and Domain are non-empty
//   - The (name, domain) pair is unique, case-insensitive
//   - QualityScore stays within [0,100]; it is externally supplied
//   - Products are never deleted, only transitioned to deprecated
//
// Consumer and download counters are mutated exclusively by the access
// lifecycle as side effects of grant and usage events.
type DataProduct struct {
	ID            id.ProductID  `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Domain        string        `json:"domain"`
	OwnerID       id.UserID     `json:"owner_id"`
	Tags          []string      `json:"tags"`
	Status        ProductStatus `json:"status"`
	AccessLevel   AccessLevel   `json:"access_level"`
	QualityScore  int           `json:"quality_score"`
	LastUpdated   time.Time     `json:"last_updated"`
	ConsumerCount int           `json:"consumer_count"`
	DownloadCount int           `json:"download_count"`
}

// NewDataProduct creates a DataProduct with domain invariant validation.
func NewDataProduct(productID id.ProductID, name, description, domain string, ownerID id.UserID, tags []string, level AccessLevel, qualityScore int, now time.Time) (*DataProduct, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "product name cannot be empty")
	}
	if domain == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "product domain cannot be empty")
	}
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid access level")
	}
	if qualityScore < 0 || qualityScore > 100 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "quality score must be within [0,100]")
	}

	return &DataProduct{
		ID:           productID,
		Name:         name,
		Description:  description,
		Domain:       domain,
		OwnerID:      ownerID,
		Tags:         append([]string(nil), tags...),
		Status:       StatusActive,
		AccessLevel:  level,
		QualityScore: qualityScore,
		LastUpdated:  now,
	}, nil
}

// CanDeprecate checks whether the product can transition to deprecated.
func (p *DataProduct) CanDeprecate() error {
	if p.Status == StatusDeprecated {
		return dErrors.New(dErrors.CodeInvariantViolation, "product is already deprecated")
	}
	return nil
}

// ApplyDeprecation transitions the product to deprecated. Call CanDeprecate
// first to validate the transition.
func (p *DataProduct) ApplyDeprecation(now time.Time) {
	p.Status = StatusDeprecated
	p.LastUpdated = now
}

// Clone returns a deep copy so snapshots never alias stored state.
func (p *DataProduct) Clone() DataProduct {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	return cp
}
