package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/insights"
	"meshgov/pkg/platform/httputil"
)

// Service defines the interface for rollup computations.
type Service interface {
	DomainRollups(ctx context.Context) ([]insights.DomainRollup, error)
	Compliance(ctx context.Context) (insights.ComplianceRollup, error)
	Overview(ctx context.Context) (*insights.Overview, error)
}

// Handler wires insights endpoints to the insights service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an insights handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts insights endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/domains", h.HandleDomains)
	r.Get("/compliance", h.HandleCompliance)
	r.Get("/overview", h.HandleOverview)
}

// DomainListResponse is the HTTP response for GET /insights/domains.
type DomainListResponse struct {
	Domains []insights.DomainRollup `json:"domains"`
}

// HandleDomains handles GET /insights/domains requests.
func (h *Handler) HandleDomains(w http.ResponseWriter, r *http.Request) {
	rollups, err := h.service.DomainRollups(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "domain rollup failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DomainListResponse{Domains: rollups})
}

// HandleCompliance handles GET /insights/compliance requests.
func (h *Handler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.service.Compliance(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "compliance rollup failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rollup)
}

// HandleOverview handles GET /insights/overview requests.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "overview rollup failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}
