package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/access/models"
	"meshgov/internal/access/service"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/httputil"
	"meshgov/pkg/requestcontext"
)

// Service defines the interface for access lifecycle operations.
type Service interface {
	SubmitRequest(ctx context.Context, input service.SubmitInput) (*service.SubmitResult, error)
	BeginReview(ctx context.Context, requestID id.RequestID, reviewerID id.UserID) (*models.AccessRequest, error)
	Approve(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*models.AccessRequest, *models.AccessGrant, error)
	Deny(ctx context.Context, requestID id.RequestID, approverID id.UserID, reason string) (*models.AccessRequest, error)
	Revoke(ctx context.Context, grantID id.GrantID, actorID id.UserID, reason string) (*models.AccessGrant, error)
	RecordUsage(ctx context.Context, grantID id.GrantID) (*models.AccessGrant, error)
	ListRequestsByRequester(ctx context.Context, requesterID id.UserID) ([]models.AccessRequest, error)
	ListRequestsByProduct(ctx context.Context, productID id.ProductID, status models.RequestStatus) ([]models.AccessRequest, error)
	ListGrantsByHolder(ctx context.Context, holderID id.UserID) ([]models.AccessGrant, error)
	IssueKey(ctx context.Context, holderID id.UserID, label string) (*models.APIKey, string, error)
	ListKeys(ctx context.Context, holderID id.UserID) ([]models.APIKey, error)
	RevokeKey(ctx context.Context, keyID id.KeyID, actorID id.UserID) (*models.APIKey, error)
}

// Handler wires access lifecycle endpoints to the access service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an access handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts access lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.HandleSubmit)
	r.Get("/requests", h.HandleListRequests)
	r.Post("/requests/{requestID}/review", h.HandleBeginReview)
	r.Post("/requests/{requestID}/approve", h.HandleApprove)
	r.Post("/requests/{requestID}/deny", h.HandleDeny)
	r.Get("/grants", h.HandleListGrants)
	r.Post("/grants/{grantID}/revoke", h.HandleRevoke)
	r.Post("/grants/{grantID}/usage", h.HandleRecordUsage)
	r.Post("/keys", h.HandleIssueKey)
	r.Get("/keys", h.HandleListKeys)
	r.Post("/keys/{keyID}/revoke", h.HandleRevokeKey)
}

// actor extracts the authenticated actor or writes a 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	actorID := requestcontext.ActorID(r.Context())
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor identity required"))
		return id.UserID{}, false
	}
	return actorID, true
}

// HandleSubmit handles POST /access/requests requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.SubmitRequest(ctx, service.SubmitInput{
		RequesterID:   actorID,
		ProductID:     req.ParsedProductID(),
		AccessType:    req.ParsedAccessType(),
		Justification: req.Justification,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "access request submission failed",
			"request_id", requestID,
			"actor_id", actorID,
			"product_id", req.ProductID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access request submitted",
		"request_id", requestID,
		"actor_id", actorID,
		"access_request_id", result.Request.ID,
		"status", result.Request.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromSubmitResult(result))
}

// HandleListRequests handles GET /access/requests requests. With a product
// query parameter it serves the owner's review queue; otherwise it lists the
// requester's own submissions.
func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	if productParam := r.URL.Query().Get("product"); productParam != "" {
		productID, err := id.ParseProductID(productParam)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status := models.RequestStatus(r.URL.Query().Get("state"))
		if status != "" && !status.IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request state"))
			return
		}
		requests, err := h.service.ListRequestsByProduct(ctx, productID, status)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, RequestListResponse{Requests: FromRequests(requests)})
		return
	}

	requesterID := actorID
	if requesterParam := r.URL.Query().Get("requester"); requesterParam != "" {
		parsed, err := id.ParseUserID(requesterParam)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		requesterID = parsed
	}

	requests, err := h.service.ListRequestsByRequester(ctx, requesterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RequestListResponse{Requests: FromRequests(requests)})
}

// HandleBeginReview handles POST /access/requests/{requestID}/review requests.
func (h *Handler) HandleBeginReview(w http.ResponseWriter, r *http.Request) {
	h.transitionRequest(w, r, "review started", func(ctx context.Context, reqID id.RequestID, actorID id.UserID) (*models.AccessRequest, *models.AccessGrant, error) {
		req, err := h.service.BeginReview(ctx, reqID, actorID)
		return req, nil, err
	})
}

// HandleApprove handles POST /access/requests/{requestID}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transitionRequest(w, r, "request approved", func(ctx context.Context, reqID id.RequestID, actorID id.UserID) (*models.AccessRequest, *models.AccessGrant, error) {
		return h.service.Approve(ctx, reqID, actorID)
	})
}

// HandleDeny handles POST /access/requests/{requestID}/deny requests.
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, ok := httputil.DecodeAndPrepare[DenyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	req, err := h.service.Deny(ctx, reqID, actorID, body.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "request denial failed",
			"request_id", requestID,
			"actor_id", actorID,
			"access_request_id", reqID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request denied",
		"request_id", requestID,
		"actor_id", actorID,
		"access_request_id", reqID,
	)
	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{Request: FromRequest(req)})
}

// transitionRequest factors the shared shape of review/approve transitions.
func (h *Handler) transitionRequest(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, id.RequestID, id.UserID) (*models.AccessRequest, *models.AccessGrant, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, grant, err := op(ctx, reqID, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "request transition failed",
			"request_id", requestID,
			"actor_id", actorID,
			"access_request_id", reqID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, logMsg,
		"request_id", requestID,
		"actor_id", actorID,
		"access_request_id", reqID,
	)

	resp := SubmitResponse{Request: FromRequest(req)}
	if grant != nil {
		g := FromGrant(grant)
		resp.Grant = &g
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleListGrants handles GET /access/grants requests.
func (h *Handler) HandleListGrants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	holderID := actorID
	if holderParam := r.URL.Query().Get("holder"); holderParam != "" {
		parsed, err := id.ParseUserID(holderParam)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		holderID = parsed
	}

	grants, err := h.service.ListGrantsByHolder(ctx, holderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GrantListResponse{Grants: FromGrants(grants)})
}

// HandleRevoke handles POST /access/grants/{grantID}/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	grantID, err := id.ParseGrantID(chi.URLParam(r, "grantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	grant, err := h.service.Revoke(ctx, grantID, actorID, body.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "grant revocation failed",
			"request_id", requestID,
			"actor_id", actorID,
			"grant_id", grantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "grant revoked",
		"request_id", requestID,
		"actor_id", actorID,
		"grant_id", grantID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromGrant(grant))
}

// HandleRecordUsage handles POST /access/grants/{grantID}/usage requests.
func (h *Handler) HandleRecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	grantID, err := id.ParseGrantID(chi.URLParam(r, "grantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	grant, err := h.service.RecordUsage(ctx, grantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromGrant(grant))
}

// HandleIssueKey handles POST /access/keys requests.
func (h *Handler) HandleIssueKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	body, ok := httputil.DecodeAndPrepare[IssueKeyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	key, secret, err := h.service.IssueKey(ctx, actorID, body.Label)
	if err != nil {
		h.logger.ErrorContext(ctx, "key issuance failed",
			"request_id", requestID,
			"actor_id", actorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "API key issued",
		"request_id", requestID,
		"actor_id", actorID,
		"key_id", key.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromIssuedKey(key, secret))
}

// HandleListKeys handles GET /access/keys requests.
func (h *Handler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	keys, err := h.service.ListKeys(ctx, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, KeyListResponse{Keys: FromKeys(keys)})
}

// HandleRevokeKey handles POST /access/keys/{keyID}/revoke requests.
func (h *Handler) HandleRevokeKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	keyID, err := id.ParseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	key, err := h.service.RevokeKey(ctx, keyID, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "key revocation failed",
			"request_id", requestID,
			"actor_id", actorID,
			"key_id", keyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromKey(key))
}
