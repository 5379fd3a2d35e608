package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/audit"
	"meshgov/internal/policy"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/httputil"
	"meshgov/pkg/requestcontext"
)

// Store is the policy state the handler reads and updates.
type Store interface {
	Current(ctx context.Context) policy.Policy
	Apply(ctx context.Context, upd policy.Update, actor id.UserID, now time.Time) policy.Policy
}

// Auditor records policy changes.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Handler serves the governance policy configuration surface.
type Handler struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

// New constructs a policy handler with its dependencies.
func New(store Store, auditor Auditor, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		auditor: auditor,
		logger:  logger,
	}
}

// RegisterPublic mounts the read endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/policy", h.HandleGet)
}

// RegisterAdmin mounts the update endpoint; the router wraps this group with
// the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/policy", h.HandleUpdate)
}

// HandleGet handles GET /policy requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(h.store.Current(r.Context())))
}

// HandleUpdate handles PUT /policy requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	actorID := requestcontext.ActorID(ctx)
	updated := h.store.Apply(ctx, policy.Update{
		AutoApprove:          body.AutoApprove,
		RequireJustification: body.RequireJustification,
		NotifyOwners:         body.NotifyOwners,
		AuditLogging:         body.AuditLogging,
	}, actorID, requestcontext.Now(ctx))

	if err := h.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionPolicyUpdated,
		ActorID:     actorID,
		SubjectKind: audit.SubjectPolicy,
		SubjectID:   "platform",
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy updated",
		"request_id", requestID,
		"actor_id", actorID,
		"version", updated.Version,
	)
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(updated))
}

// UpdateRequest is the HTTP request body for PUT /policy.
type UpdateRequest struct {
	AutoApprove          bool `json:"auto_approve"`
	RequireJustification bool `json:"require_justification"`
	NotifyOwners         bool `json:"notify_owners"`
	AuditLogging         bool `json:"audit_logging"`
}

// PolicyResponse is the HTTP representation of the governance policy.
type PolicyResponse struct {
	AutoApprove          bool      `json:"auto_approve"`
	RequireJustification bool      `json:"require_justification"`
	NotifyOwners         bool      `json:"notify_owners"`
	AuditLogging         bool      `json:"audit_logging"`
	Version              int       `json:"version"`
	UpdatedAt            time.Time `json:"updated_at"`
	UpdatedBy            string    `json:"updated_by,omitempty"`
}

// FromPolicy converts a domain Policy to an HTTP response.
func FromPolicy(p policy.Policy) PolicyResponse {
	resp := PolicyResponse{
		AutoApprove:          p.AutoApprove,
		RequireJustification: p.RequireJustification,
		NotifyOwners:         p.NotifyOwners,
		AuditLogging:         p.AuditLogging,
		Version:              p.Version,
		UpdatedAt:            p.UpdatedAt,
	}
	if !p.UpdatedBy.IsNil() {
		resp.UpdatedBy = p.UpdatedBy.String()
	}
	return resp
}
