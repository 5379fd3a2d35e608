package models

import (
	"time"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
)

// KeyStatus is the lifecycle state of an API key.
type KeyStatus string

const (
	KeyActive  KeyStatus = "active"
	KeyRevoked KeyStatus = "revoked"
)

// APIKey is a programmatic credential tied to a holder. Only the masked form
// of the secret is stored; the full secret is returned exactly once at issue
// time and cannot be recovered afterwards.
type APIKey struct {
	ID           id.KeyID   `json:"id"`
	HolderID     id.UserID  `json:"holder_id"`
	Label        string     `json:"label"`
	MaskedSecret string     `json:"masked_secret"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	Status       KeyStatus  `json:"status"`
}

// CanRevoke checks whether the key can transition to revoked.
func (k *APIKey) CanRevoke() error {
	if k.Status == KeyRevoked {
		return dErrors.New(dErrors.CodeInvalidState, "API key is already revoked")
	}
	return nil
}

// ApplyRevocation transitions the key to revoked.
func (k *APIKey) ApplyRevocation() {
	k.Status = KeyRevoked
}

// Clone returns a copy so snapshots never alias stored state.
func (k *APIKey) Clone() APIKey {
	cp := *k
	if k.LastUsed != nil {
		t := *k.LastUsed
		cp.LastUsed = &t
	}
	return cp
}
