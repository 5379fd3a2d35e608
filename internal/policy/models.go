// Package policy holds the organization-wide governance policy and the pure
// decision engine that evaluates access requests against it.
package policy

import (
	"time"

	id "meshgov/pkg/domain"
)

// Policy is the global governance configuration. It is versioned so every
// decision can record exactly which configuration it was evaluated under,
// and it is always passed by value into decisions rather than read from
// ambient state.
type Policy struct {
	// AutoApprove lets requests for public products skip manual review.
	AutoApprove bool `json:"auto_approve"`
	// RequireJustification denies requests submitted without a justification.
	RequireJustification bool `json:"require_justification"`
	// NotifyOwners dispatches a fire-and-forget notification to the product
	// owner on lifecycle events.
	NotifyOwners bool `json:"notify_owners"`
	// AuditLogging gates whether audit entries are written at all.
	AuditLogging bool `json:"audit_logging"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy id.UserID `json:"updated_by"`
}

// Decision is the outcome of evaluating a request against the policy.
type Decision string

const (
	// DecisionAutoApprove: grant immediately without human review.
	DecisionAutoApprove Decision = "auto_approve"
	// DecisionRequireReview: queue for a domain owner to approve or deny.
	DecisionRequireReview Decision = "require_review"
	// DecisionDeny: reject immediately. This is a normal denial outcome,
	// not an operational error.
	DecisionDeny Decision = "deny"
)
