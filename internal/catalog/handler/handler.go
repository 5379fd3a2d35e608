package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/catalog/models"
	"meshgov/internal/catalog/service"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/httputil"
	"meshgov/pkg/requestcontext"
)

// Service defines the interface for catalog operations.
type Service interface {
	Publish(ctx context.Context, input service.PublishInput) (*models.DataProduct, error)
	Get(ctx context.Context, productID id.ProductID) (*models.DataProduct, error)
	Deprecate(ctx context.Context, productID id.ProductID, actorID id.UserID) (*models.DataProduct, error)
	Search(ctx context.Context, query, domainFilter string, sortKey service.SortKey) ([]models.DataProduct, error)
	ListDomains(ctx context.Context) ([]string, error)
	AggregateStats(ctx context.Context) (service.Stats, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the public catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/products", h.HandleSearch)
	r.Post("/products", h.HandlePublish)
	r.Get("/products/{productID}", h.HandleGet)
	r.Get("/domains", h.HandleListDomains)
	r.Get("/stats", h.HandleStats)
}

// RegisterAdmin mounts deprecation; the router wraps this group with the
// admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/products/{productID}/deprecate", h.HandleDeprecate)
}

// HandleSearch handles GET /products requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sortKey, err := service.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	products, err := h.service.Search(ctx, r.URL.Query().Get("q"), r.URL.Query().Get("domain"), sortKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "catalog search failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProductListResponse{
		Products: FromProducts(products),
		Total:    len(products),
	})
}

// HandlePublish handles POST /products requests.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	product, err := h.service.Publish(ctx, service.PublishInput{
		Name:         req.Name,
		Description:  req.Description,
		Domain:       req.Domain,
		OwnerID:      actorID,
		Tags:         req.Tags,
		AccessLevel:  req.ParsedAccessLevel(),
		QualityScore: req.QualityScore,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "product publication failed",
			"request_id", requestID,
			"actor_id", actorID,
			"name", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "product published",
		"request_id", requestID,
		"actor_id", actorID,
		"product_id", product.ID,
		"domain", product.Domain,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromProduct(product))
}

// HandleGet handles GET /products/{productID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Get(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromProduct(product))
}

// HandleDeprecate handles POST /products/{productID}/deprecate requests.
func (h *Handler) HandleDeprecate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor identity required"))
		return
	}

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Deprecate(ctx, productID, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "product deprecation failed",
			"request_id", requestID,
			"actor_id", actorID,
			"product_id", productID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "product deprecated",
		"request_id", requestID,
		"actor_id", actorID,
		"product_id", productID,
	)

	httputil.WriteJSON(w, http.StatusOK, FromProduct(product))
}

// HandleListDomains handles GET /domains requests.
func (h *Handler) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domains, err := h.service.ListDomains(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DomainListResponse{Domains: domains})
}

// HandleStats handles GET /stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.AggregateStats(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
