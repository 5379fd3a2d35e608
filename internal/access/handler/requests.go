package handler

import (
	"strings"

	"meshgov/internal/access/models"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /access/requests.
type SubmitRequest struct {
	ProductID     string `json:"product_id"`
	AccessType    string `json:"access_type"`
	Justification string `json:"justification"`

	// Parsed values (populated by Validate)
	parsedProductID  id.ProductID
	parsedAccessType models.AccessType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Justification) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "justification must be at most 2000 characters")
	}

	productID, err := id.ParseProductID(strings.TrimSpace(r.ProductID))
	if err != nil {
		return err
	}
	r.parsedProductID = productID

	accessType, err := models.ParseAccessType(strings.TrimSpace(r.AccessType))
	if err != nil {
		return err
	}
	r.parsedAccessType = accessType

	r.Justification = strings.TrimSpace(r.Justification)
	return nil
}

// ParsedProductID returns the validated product ID.
func (r *SubmitRequest) ParsedProductID() id.ProductID {
	return r.parsedProductID
}

// ParsedAccessType returns the validated access type.
func (r *SubmitRequest) ParsedAccessType() models.AccessType {
	return r.parsedAccessType
}

// DenyRequest is the HTTP request body for POST /access/requests/{id}/deny.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// Validate trims the reason; the service enforces that it is present.
func (r *DenyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

// RevokeRequest is the HTTP request body for POST /access/grants/{id}/revoke.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// Validate trims the optional reason.
func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

// IssueKeyRequest is the HTTP request body for POST /access/keys.
type IssueKeyRequest struct {
	Label string `json:"label"`
}

// Validate checks the key label.
func (r *IssueKeyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Label = strings.TrimSpace(r.Label)
	if r.Label == "" {
		return dErrors.New(dErrors.CodeValidation, "label is required")
	}
	return nil
}
