package policy

import (
	"context"
	"sync"
	"time"

	id "meshgov/pkg/domain"
)

// Store holds the current policy. Reads return a value copy; updates bump the
// version under the lock so concurrent writers never produce the same version.
type Store struct {
	mu      sync.RWMutex
	current Policy
}

// NewStore seeds the policy with the platform defaults: manual review for
// everything, justification required, owners notified, auditing on.
func NewStore() *Store {
	return &Store{
		current: Policy{
			AutoApprove:          false,
			RequireJustification: true,
			NotifyOwners:         true,
			AuditLogging:         true,
			Version:              1,
		},
	}
}

// Current returns a snapshot of the policy in force.
func (s *Store) Current(_ context.Context) Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update describes the fields an administrator may change.
type Update struct {
	AutoApprove          bool `json:"auto_approve"`
	RequireJustification bool `json:"require_justification"`
	NotifyOwners         bool `json:"notify_owners"`
	AuditLogging         bool `json:"audit_logging"`
}

// Apply replaces the policy fields and returns the new snapshot with a
// bumped version.
func (s *Store) Apply(_ context.Context, upd Update, actor id.UserID, now time.Time) Policy {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Policy{
		AutoApprove:          upd.AutoApprove,
		RequireJustification: upd.RequireJustification,
		NotifyOwners:         upd.NotifyOwners,
		AuditLogging:         upd.AuditLogging,
		Version:              s.current.Version + 1,
		UpdatedAt:            now,
		UpdatedBy:            actor,
	}
	return s.current
}
