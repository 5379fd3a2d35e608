package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/audit"
	"meshgov/internal/compliance"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/httputil"
	"meshgov/pkg/platform/sentinel"
	"meshgov/pkg/requestcontext"
)

// Store is the rule state the handler reads and mutates.
type Store interface {
	Snapshot(ctx context.Context) ([]compliance.Rule, error)
	Toggle(ctx context.Context, ruleID id.RuleID, now time.Time) (*compliance.Rule, error)
	RecordViolation(ctx context.Context, ruleID id.RuleID, now time.Time) (*compliance.Rule, error)
}

// Auditor records rule toggles.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Handler serves the compliance rule surface.
type Handler struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(store Store, auditor Auditor, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		auditor: auditor,
		logger:  logger,
	}
}

// RegisterPublic mounts the read endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/rules", h.HandleList)
}

// RegisterAdmin mounts the mutation endpoints; the router wraps this group
// with the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/rules/{ruleID}/toggle", h.HandleToggle)
	r.Post("/rules/{ruleID}/violation", h.HandleViolation)
}

// RuleListResponse is the HTTP response for GET /compliance/rules.
type RuleListResponse struct {
	Rules []compliance.Rule `json:"rules"`
}

// HandleList handles GET /compliance/rules requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.Snapshot(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RuleListResponse{Rules: rules})
}

// HandleToggle handles POST /compliance/rules/{ruleID}/toggle requests.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.store.Toggle(ctx, ruleID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "rule not found"))
			return
		}
		httputil.WriteError(w, err)
		return
	}

	actorID := requestcontext.ActorID(ctx)
	if err := h.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionRuleToggled,
		ActorID:     actorID,
		SubjectKind: audit.SubjectRule,
		SubjectID:   ruleID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "compliance rule toggled",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", actorID,
		"rule_id", ruleID,
		"status", rule.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, rule)
}

// HandleViolation handles POST /compliance/rules/{ruleID}/violation requests.
func (h *Handler) HandleViolation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.store.RecordViolation(ctx, ruleID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "rule not found"))
			return
		}
		httputil.WriteError(w, err)
		return
	}

	actorID := requestcontext.ActorID(ctx)
	if err := h.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionViolationRecorded,
		ActorID:     actorID,
		SubjectKind: audit.SubjectRule,
		SubjectID:   ruleID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "compliance violation recorded",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", actorID,
		"rule_id", ruleID,
		"violations", rule.ViolationCount,
	)
	httputil.WriteJSON(w, http.StatusOK, rule)
}
