package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"

	"meshgov/internal/access/models"
	"meshgov/internal/audit"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/sentinel"
	"meshgov/pkg/requestcontext"
)

const keySecretPrefix = "mgk_"

// IssueKey mints a new API key for the holder. The full secret is returned
// here and nowhere else; the store only ever sees the masked form.
func (s *Service) IssueKey(ctx context.Context, holderID id.UserID, label string) (*models.APIKey, string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "key label is required")
	}
	if len(label) > 100 {
		return nil, "", dErrors.New(dErrors.CodeValidation, "key label must be at most 100 characters")
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate key secret")
	}

	key := &models.APIKey{
		ID:           id.KeyID(uuid.New()),
		HolderID:     holderID,
		Label:        label,
		MaskedSecret: maskSecret(secret),
		CreatedAt:    requestcontext.Now(ctx),
		Status:       models.KeyActive,
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store key")
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionKeyIssued,
		ActorID:     holderID,
		SubjectKind: audit.SubjectKey,
		SubjectID:   key.ID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, "", err
	}
	return key, secret, nil
}

// ListKeys returns the holder's keys, newest first. Secrets stay masked.
func (s *Service) ListKeys(ctx context.Context, holderID id.UserID) ([]models.APIKey, error) {
	keys, err := s.keys.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list keys")
	}
	return keys, nil
}

// RevokeKey revokes one of the actor's own keys. Revoking another user's key
// is forbidden.
func (s *Service) RevokeKey(ctx context.Context, keyID id.KeyID, actorID id.UserID) (*models.APIKey, error) {
	key, err := s.keys.Execute(ctx, keyID,
		func(k *models.APIKey) error {
			if k.HolderID != actorID {
				return dErrors.New(dErrors.CodeForbidden, "only the key holder can revoke it")
			}
			return k.CanRevoke()
		},
		func(k *models.APIKey) { k.ApplyRevocation() },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "API key not found")
		}
		return nil, err
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionKeyRevoked,
		ActorID:     actorID,
		SubjectKind: audit.SubjectKey,
		SubjectID:   keyID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, err
	}
	return key, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return keySecretPrefix + hex.EncodeToString(buf), nil
}

// maskSecret keeps the prefix and last four characters visible, which is
// enough for holders to tell keys apart in listings.
func maskSecret(secret string) string {
	return keySecretPrefix + "****" + secret[len(secret)-4:]
}
