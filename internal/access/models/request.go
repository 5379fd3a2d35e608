// Package models holds the access lifecycle aggregates: requests, grants,
// and API keys.
package models

import (
	"time"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
)

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	RequestPending     RequestStatus = "pending"
	RequestUnderReview RequestStatus = "under_review"
	RequestApproved    RequestStatus = "approved"
	RequestDenied      RequestStatus = "denied"
)

// IsValid checks if the status is one of the supported enum values.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestUnderReview, RequestApproved, RequestDenied:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestDenied
}

// AccessType is how the requester intends to consume the product.
type AccessType string

const (
	AccessTypeAPI      AccessType = "api"
	AccessTypeDownload AccessType = "download"
)

// IsValid checks if the access type is one of the supported enum values.
func (t AccessType) IsValid() bool {
	return t == AccessTypeAPI || t == AccessTypeDownload
}

// ParseAccessType creates an AccessType from a string, validating it.
func ParseAccessType(s string) (AccessType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "access type cannot be empty")
	}
	t := AccessType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid access type: must be 'api' or 'download'")
	}
	return t, nil
}

// AccessRequest tracks one user's ask for access to one product.
//
// State machine: pending → under_review → approved | denied, with pending
// also transitioning directly to approved or denied. Approved and denied are
// terminal. A request resolved by policy at submit time is stored already in
// its terminal state.
type AccessRequest struct {
	ID            id.RequestID  `json:"id"`
	RequesterID   id.UserID     `json:"requester_id"`
	ProductID     id.ProductID  `json:"product_id"`
	AccessType    AccessType    `json:"access_type"`
	Justification string        `json:"justification"`
	RequestedAt   time.Time     `json:"requested_at"`
	Status        RequestStatus `json:"status"`

	// Decision metadata, set once the request leaves pending/under_review.
	DecidedBy      id.UserID  `json:"decided_by"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	DecisionReason string     `json:"decision_reason,omitempty"`
}

// CanBeginReview checks whether the request can move to under_review.
func (r *AccessRequest) CanBeginReview() error {
	if r.Status != RequestPending {
		return dErrors.New(dErrors.CodeInvalidState, "only pending requests can enter review")
	}
	return nil
}

// ApplyBeginReview transitions the request to under_review.
func (r *AccessRequest) ApplyBeginReview() {
	r.Status = RequestUnderReview
}

// CanDecide checks whether the request accepts an approve or deny decision.
func (r *AccessRequest) CanDecide() error {
	if r.Status != RequestPending && r.Status != RequestUnderReview {
		return dErrors.New(dErrors.CodeInvalidState, "request has already been decided")
	}
	return nil
}

// ApplyDecision moves the request to a terminal state with its metadata.
func (r *AccessRequest) ApplyDecision(status RequestStatus, decider id.UserID, reason string, now time.Time) {
	r.Status = status
	r.DecidedBy = decider
	r.DecidedAt = &now
	r.DecisionReason = reason
}

// Clone returns a copy so snapshots never alias stored state.
func (r *AccessRequest) Clone() AccessRequest {
	cp := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		cp.DecidedAt = &t
	}
	return cp
}
