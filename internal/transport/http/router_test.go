package httptransport_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accesshandler "meshgov/internal/access/handler"
	accessservice "meshgov/internal/access/service"
	apikeystore "meshgov/internal/access/store/apikey"
	grantstore "meshgov/internal/access/store/grant"
	requeststore "meshgov/internal/access/store/request"
	"meshgov/internal/audit"
	audithandler "meshgov/internal/audit/handler"
	auditmemory "meshgov/internal/audit/store/memory"
	cataloghandler "meshgov/internal/catalog/handler"
	catalogservice "meshgov/internal/catalog/service"
	catalogstore "meshgov/internal/catalog/store"
	"meshgov/internal/compliance"
	compliancehandler "meshgov/internal/compliance/handler"
	"meshgov/internal/insights"
	insightshandler "meshgov/internal/insights/handler"
	"meshgov/internal/notify"
	"meshgov/internal/policy"
	policyhandler "meshgov/internal/policy/handler"
	httptransport "meshgov/internal/transport/http"
	"meshgov/pkg/testutil"
)

const testAdminToken = "router-test-admin-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	policyStore := policy.NewStore()
	recorder := audit.NewRecorder(auditmemory.NewInMemoryStore(), policyStore)

	products := catalogstore.NewInMemory()
	catalogSvc := catalogservice.New(products, recorder, "en")

	accessSvc := accessservice.New(
		requeststore.NewInMemory(),
		grantstore.NewInMemory(),
		apikeystore.NewInMemory(),
		products,
		policy.NewEngine(),
		policyStore,
		recorder,
		notify.NewLogNotifier(logger),
		180*24*time.Hour,
		30*24*time.Hour,
	)

	rules := compliance.NewStore(time.Now())
	insightsSvc := insights.New(products, rules, 4)

	return httptransport.NewRouter(httptransport.Handlers{
		Catalog:    cataloghandler.New(catalogSvc, logger),
		Access:     accesshandler.New(accessSvc, logger),
		Policy:     policyhandler.New(policyStore, recorder, logger),
		Audit:      audithandler.New(recorder, logger),
		Compliance: compliancehandler.New(rules, recorder, logger),
		Insights:   insightshandler.New(insightsSvc, logger),
	}, testAdminToken, logger)
}

func TestRouterWiring(t *testing.T) {
	router := newTestRouter(t)

	get := func(path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	testutil.Given(t, "the assembled router", func(t *testing.T) {
		testutil.When(t, "calling the public read endpoints", func(t *testing.T) {
			for _, path := range []string{
				"/healthz",
				"/policy",
				"/catalog/products",
				"/catalog/domains",
				"/catalog/stats",
				"/compliance/rules",
				"/insights/overview",
				"/metrics",
			} {
				if rec := get(path, nil); rec.Code != http.StatusOK {
					t.Fatalf("GET %s: expected status %d, got %d", path, http.StatusOK, rec.Code)
				}
			}
		})

		testutil.When(t, "calling admin endpoints without a token", func(t *testing.T) {
			if rec := get("/audit/entries", nil); rec.Code != http.StatusForbidden {
				t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
			}

			req := httptest.NewRequest(http.MethodPut, "/policy", strings.NewReader(`{"audit_logging":true}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
			}
		})

		testutil.When(t, "calling admin endpoints with the token", func(t *testing.T) {
			headers := map[string]string{"X-Admin-Token": testAdminToken}

			testutil.Then(t, "the audit query responds", func(t *testing.T) {
				if rec := get("/audit/entries", headers); rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})
	})
}
