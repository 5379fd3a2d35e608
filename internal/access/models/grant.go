package models

import (
	"time"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
)

// GrantStatus is either a stored state (active, revoked) or a state derived
// at read time from the expiry (expiring, expired). Derived states are never
// persisted; EffectiveStatus computes them on every read path.
type GrantStatus string

const (
	GrantActive   GrantStatus = "active"
	GrantExpiring GrantStatus = "expiring"
	GrantExpired  GrantStatus = "expired"
	GrantRevoked  GrantStatus = "revoked"
)

// AccessGrant entitles a holder to consume one product.
//
// Invariants:
//   - Stored status is only ever active or revoked
//   - ExpiresAt nil means the grant never expires
//   - UsageCount only moves while the derived status is active or expiring
type AccessGrant struct {
	ID         id.GrantID   `json:"id"`
	ProductID  id.ProductID `json:"product_id"`
	HolderID   id.UserID    `json:"holder_id"`
	AccessType AccessType   `json:"access_type"`
	GrantedAt  time.Time    `json:"granted_at"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
	Status     GrantStatus  `json:"status"`
	UsageCount int          `json:"usage_count"`
}

// EffectiveStatus derives the grant's observable state at the given instant.
// Revocation always wins; otherwise an elapsed expiry reads as expired and an
// expiry within the warning window reads as expiring.
func (g *AccessGrant) EffectiveStatus(now time.Time, warningWindow time.Duration) GrantStatus {
	if g.Status == GrantRevoked {
		return GrantRevoked
	}
	if g.ExpiresAt == nil {
		return GrantActive
	}
	if !now.Before(*g.ExpiresAt) {
		return GrantExpired
	}
	if now.Add(warningWindow).After(*g.ExpiresAt) {
		return GrantExpiring
	}
	return GrantActive
}

// Usable reports whether the grant authorizes access at the given instant.
func (g *AccessGrant) Usable(now time.Time, warningWindow time.Duration) bool {
	switch g.EffectiveStatus(now, warningWindow) {
	case GrantActive, GrantExpiring:
		return true
	}
	return false
}

// CanRevoke checks whether the grant can transition to revoked.
func (g *AccessGrant) CanRevoke(now time.Time, warningWindow time.Duration) error {
	switch g.EffectiveStatus(now, warningWindow) {
	case GrantRevoked:
		return dErrors.New(dErrors.CodeInvalidState, "grant is already revoked")
	case GrantExpired:
		return dErrors.New(dErrors.CodeInvalidState, "grant has already expired")
	}
	return nil
}

// ApplyRevocation transitions the grant to revoked.
func (g *AccessGrant) ApplyRevocation() {
	g.Status = GrantRevoked
}

// Clone returns a copy so snapshots never alias stored state.
func (g *AccessGrant) Clone() AccessGrant {
	cp := *g
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		cp.ExpiresAt = &t
	}
	return cp
}
