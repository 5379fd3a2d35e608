package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"meshgov/internal/audit"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/httputil"
)

// Querier reads audit entries.
type Querier interface {
	Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
}

// Handler serves the admin audit query surface.
type Handler struct {
	querier Querier
	logger  *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(querier Querier, logger *slog.Logger) *Handler {
	return &Handler{
		querier: querier,
		logger:  logger,
	}
}

// Register mounts the audit endpoints; the router wraps this group with the
// admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/entries", h.HandleQuery)
}

// HandleQuery handles GET /audit/entries requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.querier.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, EntryListResponse{Entries: entries})
}

// EntryListResponse is the HTTP response for GET /audit/entries.
type EntryListResponse struct {
	Entries []audit.Entry `json:"entries"`
}

func filterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	var filter audit.Filter

	if actor := q.Get("actor"); actor != "" {
		actorID, err := id.ParseUserID(actor)
		if err != nil {
			return audit.Filter{}, err
		}
		filter.ActorID = actorID
	}
	filter.SubjectID = q.Get("subject")
	filter.Action = audit.Action(q.Get("action"))

	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "from must be an RFC 3339 timestamp")
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "to must be an RFC 3339 timestamp")
		}
		filter.To = t
	}

	var err error
	if filter.Limit, err = positiveInt(q.Get("limit")); err != nil {
		return audit.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
	}
	if filter.Offset, err = positiveInt(q.Get("offset")); err != nil {
		return audit.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "offset must be a positive integer")
	}
	return filter, nil
}

func positiveInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "must be a positive integer")
	}
	return n, nil
}
