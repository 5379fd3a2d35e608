// Package httptransport assembles the HTTP surface. It mounts module handlers
// under their path prefixes and applies the shared middleware chain; business
// logic stays in the module services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "meshgov/internal/access/handler"
	audithandler "meshgov/internal/audit/handler"
	cataloghandler "meshgov/internal/catalog/handler"
	compliancehandler "meshgov/internal/compliance/handler"
	insightshandler "meshgov/internal/insights/handler"
	policyhandler "meshgov/internal/policy/handler"
	"meshgov/pkg/platform/httputil"
	"meshgov/pkg/platform/middleware/admin"
	"meshgov/pkg/platform/middleware/metadata"
	"meshgov/pkg/platform/middleware/requesttime"
)

// Handlers carries the per-module HTTP handlers the router mounts.
type Handlers struct {
	Catalog    *cataloghandler.Handler
	Access     *accesshandler.Handler
	Policy     *policyhandler.Handler
	Audit      *audithandler.Handler
	Compliance *compliancehandler.Handler
	Insights   *insightshandler.Handler
}

// NewRouter wires all endpoints. Administrator surfaces (policy updates,
// audit queries, rule toggles, product deprecation) sit behind the admin
// token middleware; everything else only needs an actor where the handler
// demands one.
func NewRouter(h Handlers, adminToken string, logger *slog.Logger) chi.Router {
	requireAdmin := admin.RequireAdminToken(adminToken, logger)

	r := chi.NewRouter()
	r.Use(metadata.Middleware, requesttime.Middleware)

	r.Route("/catalog", func(r chi.Router) {
		h.Catalog.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			h.Catalog.RegisterAdmin(r)
		})
	})

	r.Route("/access", h.Access.Register)

	h.Policy.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		h.Policy.RegisterAdmin(r)
	})

	r.Route("/audit", func(r chi.Router) {
		r.Use(requireAdmin)
		h.Audit.Register(r)
	})

	r.Route("/compliance", func(r chi.Router) {
		h.Compliance.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			h.Compliance.RegisterAdmin(r)
		})
	})

	r.Route("/insights", h.Insights.Register)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
