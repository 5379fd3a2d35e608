package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"meshgov/internal/audit"
	auditMemory "meshgov/internal/audit/store/memory"
	catalogStore "meshgov/internal/catalog/store"
	"meshgov/internal/catalog/service"
	"meshgov/internal/policy"
	"meshgov/pkg/platform/middleware/metadata"
	"meshgov/pkg/platform/middleware/requesttime"
)

func newCatalogRouter(t *testing.T) chi.Router {
	t.Helper()
	recorder := audit.NewRecorder(auditMemory.NewInMemoryStore(), policy.NewStore())
	svc := service.New(catalogStore.NewInMemory(), recorder, "en")
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := chi.NewRouter()
	router.Use(metadata.Middleware, requesttime.Middleware)
	h.Register(router)
	h.RegisterAdmin(router)
	return router
}

func publishProduct(t *testing.T, router chi.Router, actorID, name, domain string) ProductResponse {
	t.Helper()
	payload := map[string]any{
		"name":          name,
		"domain":        domain,
		"description":   "test product",
		"tags":          []string{"test"},
		"access_level":  "internal",
		"quality_score": 80,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", actorID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 publishing product, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ProductResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode product response: %v", err)
	}
	return resp
}

func TestPublishRequiresActor(t *testing.T) {
	router := newCatalogRouter(t)

	body, _ := json.Marshal(map[string]any{"name": "Orders", "domain": "sales", "access_level": "public"})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	// No X-Actor-ID header set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor header, got %d", rec.Code)
	}
}

func TestPublishAndFetchProduct(t *testing.T) {
	router := newCatalogRouter(t)
	actorID := uuid.NewString()

	created := publishProduct(t, router, actorID, "Customer Orders", "sales")
	if created.ID == "" || created.Status != "active" {
		t.Fatalf("expected active product with id, got %+v", created)
	}
	if created.OwnerID != actorID {
		t.Fatalf("expected owner %s, got %s", actorID, created.OwnerID)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/products/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching product, got %d", getRec.Code)
	}
}

func TestPublishDuplicateReturns400(t *testing.T) {
	router := newCatalogRouter(t)
	actorID := uuid.NewString()
	publishProduct(t, router, actorID, "Orders", "sales")

	body, _ := json.Marshal(map[string]any{
		"name":         "orders",
		"domain":       "sales",
		"access_level": "internal",
	})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("X-Actor-ID", actorID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate product, got %d", rec.Code)
	}
}

func TestPublishInvalidAccessLevelReturns400(t *testing.T) {
	router := newCatalogRouter(t)

	body, _ := json.Marshal(map[string]any{
		"name":         "Orders",
		"domain":       "sales",
		"access_level": "secret",
	})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("X-Actor-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid access level, got %d", rec.Code)
	}
}

func TestDeprecateProduct(t *testing.T) {
	router := newCatalogRouter(t)
	actorID := uuid.NewString()
	created := publishProduct(t, router, actorID, "Legacy", "sales")

	req := httptest.NewRequest(http.MethodPost, "/products/"+created.ID+"/deprecate", nil)
	req.Header.Set("X-Actor-ID", actorID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deprecating product, got %d", rec.Code)
	}

	var resp ProductResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "deprecated" {
		t.Fatalf("expected deprecated status, got %s", resp.Status)
	}

	// A second deprecation is an invalid transition.
	again := httptest.NewRequest(http.MethodPost, "/products/"+created.ID+"/deprecate", nil)
	again.Header.Set("X-Actor-ID", actorID)
	againRec := httptest.NewRecorder()
	router.ServeHTTP(againRec, again)
	if againRec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for double deprecation, got %d", againRec.Code)
	}
}

func TestSearchFiltersAndSorts(t *testing.T) {
	router := newCatalogRouter(t)
	actorID := uuid.NewString()
	publishProduct(t, router, actorID, "Alpha Orders", "sales")
	publishProduct(t, router, actorID, "Bravo Stock", "logistics")

	req := httptest.NewRequest(http.MethodGet, "/products?domain=sales&sort=name", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 searching, got %d", rec.Code)
	}

	var resp ProductListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode search response: %v", err)
	}
	if resp.Total != 1 || len(resp.Products) != 1 {
		t.Fatalf("expected one sales product, got %+v", resp)
	}
	if resp.Products[0].Name != "Alpha Orders" {
		t.Fatalf("unexpected product: %s", resp.Products[0].Name)
	}
}

func TestSearchInvalidSortReturns400(t *testing.T) {
	router := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/products?sort=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid sort key, got %d", rec.Code)
	}
}

func TestDomainsAndStats(t *testing.T) {
	router := newCatalogRouter(t)
	actorID := uuid.NewString()
	publishProduct(t, router, actorID, "Alpha", "sales")
	publishProduct(t, router, actorID, "Bravo", "logistics")

	domainsReq := httptest.NewRequest(http.MethodGet, "/domains", nil)
	domainsRec := httptest.NewRecorder()
	router.ServeHTTP(domainsRec, domainsReq)
	if domainsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing domains, got %d", domainsRec.Code)
	}

	var domains DomainListResponse
	if err := json.NewDecoder(domainsRec.Body).Decode(&domains); err != nil {
		t.Fatalf("failed to decode domains: %v", err)
	}
	if len(domains.Domains) != 2 {
		t.Fatalf("expected two domains, got %v", domains.Domains)
	}

	statsReq := httptest.NewRequest(http.MethodGet, "/stats", nil)
	statsRec := httptest.NewRecorder()
	router.ServeHTTP(statsRec, statsReq)
	if statsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching stats, got %d", statsRec.Code)
	}

	var stats service.Stats
	if err := json.NewDecoder(statsRec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalProducts != 2 || stats.ActiveDomains != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
