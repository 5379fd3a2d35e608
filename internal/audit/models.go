// Package audit provides the append-only record of access-affecting actions.
package audit

import (
	"time"

	id "meshgov/pkg/domain"
)

// Action is the kind of state transition an entry records.
type Action string

const (
	ActionProductPublished  Action = "product_published"
	ActionProductDeprecated Action = "product_deprecated"

	ActionRequestSubmitted    Action = "access_request_submitted"
	ActionRequestAutoApproved Action = "access_request_auto_approved"
	ActionRequestDenied       Action = "access_request_denied"
	ActionReviewStarted       Action = "access_review_started"
	ActionRequestApproved     Action = "access_request_approved"

	ActionGrantRevoked  Action = "access_grant_revoked"
	ActionUsageRecorded Action = "access_usage_recorded"

	ActionKeyIssued  Action = "api_key_issued"
	ActionKeyRevoked Action = "api_key_revoked"

	ActionPolicyUpdated     Action = "policy_updated"
	ActionRuleToggled       Action = "compliance_rule_toggled"
	ActionViolationRecorded Action = "compliance_violation_recorded"
)

// Outcome states whether the recorded action succeeded or was a denial.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
)

// SubjectKind identifies what entity an entry is about.
type SubjectKind string

const (
	SubjectProduct SubjectKind = "product"
	SubjectRequest SubjectKind = "request"
	SubjectGrant   SubjectKind = "grant"
	SubjectKey     SubjectKind = "api_key"
	SubjectPolicy  SubjectKind = "policy"
	SubjectRule    SubjectKind = "rule"
)

// Entry is a single immutable audit record. Entries are ordered by timestamp
// with insertion order breaking ties.
type Entry struct {
	ID          id.EntryID  `json:"id"`
	Action      Action      `json:"action"`
	ActorID     id.UserID   `json:"actor_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	Outcome     Outcome     `json:"outcome"`
	Reason      string      `json:"reason,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Filter narrows audit queries. Zero values mean "any". Limit of 0 falls
// back to a server-side default.
type Filter struct {
	ActorID   id.UserID
	SubjectID string
	Action    Action
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// DefaultQueryLimit caps unpaginated queries.
const DefaultQueryLimit = 100

// Matches reports whether the entry passes the filter (time range is
// inclusive on both ends).
func (f Filter) Matches(e Entry) bool {
	if !f.ActorID.IsNil() && e.ActorID != f.ActorID {
		return false
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}
