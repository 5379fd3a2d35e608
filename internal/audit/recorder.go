package audit

import (
	"context"

	"github.com/google/uuid"

	"meshgov/internal/policy"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/requestcontext"
)

// Store is the persistence boundary for audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}

// PolicyProvider exposes the policy in force; the recorder only reads the
// AuditLogging flag from it.
type PolicyProvider interface {
	Current(ctx context.Context) policy.Policy
}

// Recorder is what services emit audit entries through. It fills in identity
// and timing, and silently drops entries while audit logging is disabled.
type Recorder struct {
	store    Store
	policies PolicyProvider
}

func NewRecorder(store Store, policies PolicyProvider) *Recorder {
	return &Recorder{store: store, policies: policies}
}

// Record appends one entry. ID and timestamp are filled when zero; the
// timestamp comes from the request-scoped clock so an entry always matches
// the transition it records.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if !r.policies.Current(ctx).AuditLogging {
		return nil
	}
	if entry.ID.IsNil() {
		entry.ID = id.EntryID(uuid.New())
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	return nil
}

// Query reads entries newest-first through the configured store.
func (r *Recorder) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	entries, err := r.store.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit entries")
	}
	return entries, nil
}
