package handler

import (
	"strings"

	"meshgov/internal/catalog/models"
	dErrors "meshgov/pkg/domain-errors"
)

// PublishRequest is the HTTP request body for POST /products.
type PublishRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Domain       string   `json:"domain"`
	Tags         []string `json:"tags"`
	AccessLevel  string   `json:"access_level"`
	QualityScore int      `json:"quality_score"`

	// Parsed values (populated by Validate)
	parsedAccessLevel models.AccessLevel
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *PublishRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	if len(r.Description) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 2000 characters")
	}
	if len(r.Tags) > 20 {
		return dErrors.New(dErrors.CodeValidation, "at most 20 tags are allowed")
	}

	// Required fields
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Domain = strings.TrimSpace(r.Domain)
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required")
	}

	// Parse access level
	level, err := models.ParseAccessLevel(r.AccessLevel)
	if err != nil {
		return err
	}
	r.parsedAccessLevel = level

	if r.QualityScore < 0 || r.QualityScore > 100 {
		return dErrors.New(dErrors.CodeValidation, "quality_score must be within [0,100]")
	}

	return nil
}

// ParsedAccessLevel returns the validated access level.
func (r *PublishRequest) ParsedAccessLevel() models.AccessLevel {
	return r.parsedAccessLevel
}
