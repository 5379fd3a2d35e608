// Package postgres persists audit entries in PostgreSQL. The seq column is a
// BIGSERIAL that breaks timestamp ties by insertion order, matching the
// in-memory store's ordering semantics.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"meshgov/internal/audit"
	id "meshgov/pkg/domain"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one entry. Idempotent on entry ID via ON CONFLICT DO
// NOTHING so retried transitions never duplicate records.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	const query = `
		INSERT INTO audit_entries (
			id, action, actor_id, subject_kind, subject_id,
			outcome, reason, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	var actorID *uuid.UUID
	if !entry.ActorID.IsNil() {
		a := uuid.UUID(entry.ActorID)
		actorID = &a
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		string(entry.Action),
		actorID,
		string(entry.SubjectKind),
		entry.SubjectID,
		string(entry.Outcome),
		entry.Reason,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries newest-first with limit/offset pagination.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !filter.ActorID.IsNil() {
		conds = append(conds, "actor_id = "+arg(uuid.UUID(filter.ActorID)))
	}
	if filter.SubjectID != "" {
		conds = append(conds, "subject_id = "+arg(filter.SubjectID))
	}
	if filter.Action != "" {
		conds = append(conds, "action = "+arg(string(filter.Action)))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "occurred_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "occurred_at <= "+arg(filter.To))
	}

	query := `
		SELECT id, action, actor_id, subject_kind, subject_id,
		       outcome, reason, occurred_at
		FROM audit_entries
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC, seq DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = audit.DefaultQueryLimit
	}
	query += " LIMIT " + arg(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	entries := make([]audit.Entry, 0)

	for rows.Next() {
		var (
			entry   audit.Entry
			entryID uuid.UUID
			actorID *uuid.UUID
			action  string
			kind    string
			outcome string
		)

		err := rows.Scan(
			&entryID,
			&action,
			&actorID,
			&kind,
			&entry.SubjectID,
			&outcome,
			&entry.Reason,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.ID = id.EntryID(entryID)
		entry.Action = audit.Action(action)
		entry.SubjectKind = audit.SubjectKind(kind)
		entry.Outcome = audit.Outcome(outcome)
		if actorID != nil {
			entry.ActorID = id.UserID(*actorID)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
