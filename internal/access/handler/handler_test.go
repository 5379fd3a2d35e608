package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"meshgov/internal/access/service"
	apikeyStore "meshgov/internal/access/store/apikey"
	grantStore "meshgov/internal/access/store/grant"
	requestStore "meshgov/internal/access/store/request"
	"meshgov/internal/audit"
	auditMemory "meshgov/internal/audit/store/memory"
	catalogmodels "meshgov/internal/catalog/models"
	catalogStore "meshgov/internal/catalog/store"
	"meshgov/internal/notify"
	"meshgov/internal/policy"
	id "meshgov/pkg/domain"
	"meshgov/pkg/platform/middleware/metadata"
	"meshgov/pkg/platform/middleware/requesttime"
)

type accessFixture struct {
	router  chi.Router
	catalog *catalogStore.InMemory
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policies := policy.NewStore()
	catalog := catalogStore.NewInMemory()
	recorder := audit.NewRecorder(auditMemory.NewInMemoryStore(), policies)

	svc := service.New(
		requestStore.NewInMemory(), grantStore.NewInMemory(), apikeyStore.NewInMemory(),
		catalog, policy.NewEngine(), policies, recorder,
		notify.NewLogNotifier(logger),
		180*24*time.Hour, 30*24*time.Hour,
	)

	router := chi.NewRouter()
	router.Use(metadata.Middleware, requesttime.Middleware)
	New(svc, logger).Register(router)
	return &accessFixture{router: router, catalog: catalog}
}

func (f *accessFixture) seedProduct(t *testing.T, level catalogmodels.AccessLevel) id.ProductID {
	t.Helper()
	product, err := catalogmodels.NewDataProduct(
		id.ProductID(uuid.New()), "Seeded "+uuid.NewString()[:8], "", "sales",
		id.UserID(uuid.New()), nil, level, 80, time.Now(),
	)
	if err != nil {
		t.Fatalf("failed to build product: %v", err)
	}
	if err := f.catalog.CreateIfAbsent(context.Background(), product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product.ID
}

func (f *accessFixture) do(t *testing.T, method, path, actorID string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRequiresActor(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)

	rec := f.do(t, http.MethodPost, "/requests", "", map[string]string{
		"product_id": productID.String(), "access_type": "api", "justification": "x",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
}

func TestSubmitDeniedByPolicyReturnsDeniedRequest(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)

	// Default policy requires a justification; omitting it is a policy
	// denial, not an HTTP error.
	rec := f.do(t, http.MethodPost, "/requests", uuid.NewString(), map[string]string{
		"product_id": productID.String(), "access_type": "api",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for policy denial, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Request.Status != "denied" {
		t.Fatalf("expected denied request, got %s", resp.Request.Status)
	}
	if resp.Grant != nil {
		t.Fatalf("denied request must not carry a grant")
	}
}

func TestSubmitUnknownProductReturns404(t *testing.T) {
	f := newAccessFixture(t)

	rec := f.do(t, http.MethodPost, "/requests", uuid.NewString(), map[string]string{
		"product_id": uuid.NewString(), "access_type": "api", "justification": "x",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}
}

func TestSubmitInvalidAccessTypeReturns400(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)

	rec := f.do(t, http.MethodPost, "/requests", uuid.NewString(), map[string]string{
		"product_id": productID.String(), "access_type": "ssh", "justification": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad access type, got %d", rec.Code)
	}
}

func TestReviewApproveFlow(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)
	requester := uuid.NewString()
	reviewer := uuid.NewString()

	rec := f.do(t, http.MethodPost, "/requests", requester, map[string]string{
		"product_id": productID.String(), "access_type": "download", "justification": "quarterly report",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 submitting, got %d", rec.Code)
	}
	var submitted SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if submitted.Request.Status != "pending" {
		t.Fatalf("expected pending request, got %s", submitted.Request.Status)
	}
	reqID := submitted.Request.ID

	reviewRec := f.do(t, http.MethodPost, "/requests/"+reqID+"/review", reviewer, nil)
	if reviewRec.Code != http.StatusOK {
		t.Fatalf("expected 200 beginning review, got %d: %s", reviewRec.Code, reviewRec.Body.String())
	}

	approveRec := f.do(t, http.MethodPost, "/requests/"+reqID+"/approve", reviewer, nil)
	if approveRec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d", approveRec.Code)
	}
	var approved SubmitResponse
	if err := json.NewDecoder(approveRec.Body).Decode(&approved); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if approved.Request.Status != "approved" {
		t.Fatalf("expected approved request, got %s", approved.Request.Status)
	}
	if approved.Grant == nil || approved.Grant.Status != "active" {
		t.Fatalf("expected an active grant, got %+v", approved.Grant)
	}
	if approved.Grant.AccessType != "download" {
		t.Fatalf("grant must copy the request access type, got %s", approved.Grant.AccessType)
	}

	// The requester sees the grant with its derived status.
	grantsRec := f.do(t, http.MethodGet, "/grants?holder="+requester, requester, nil)
	if grantsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing grants, got %d", grantsRec.Code)
	}
	var grants GrantListResponse
	if err := json.NewDecoder(grantsRec.Body).Decode(&grants); err != nil {
		t.Fatalf("failed to decode grants: %v", err)
	}
	if len(grants.Grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(grants.Grants))
	}

	// A second approval is an invalid transition.
	again := f.do(t, http.MethodPost, "/requests/"+reqID+"/approve", reviewer, nil)
	if again.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 re-approving, got %d", again.Code)
	}
}

func TestDenyRequiresReason(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)
	requester := uuid.NewString()

	rec := f.do(t, http.MethodPost, "/requests", requester, map[string]string{
		"product_id": productID.String(), "access_type": "api", "justification": "x",
	})
	var submitted SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	denyRec := f.do(t, http.MethodPost, "/requests/"+submitted.Request.ID+"/deny", uuid.NewString(), map[string]string{})
	if denyRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 denying without reason, got %d", denyRec.Code)
	}

	denyRec = f.do(t, http.MethodPost, "/requests/"+submitted.Request.ID+"/deny", uuid.NewString(), map[string]string{"reason": "not allowed"})
	if denyRec.Code != http.StatusOK {
		t.Fatalf("expected 200 denying with reason, got %d", denyRec.Code)
	}
}

func TestGrantUsageAndRevoke(t *testing.T) {
	f := newAccessFixture(t)
	productID := f.seedProduct(t, catalogmodels.AccessInternal)
	requester := uuid.NewString()
	reviewer := uuid.NewString()

	rec := f.do(t, http.MethodPost, "/requests", requester, map[string]string{
		"product_id": productID.String(), "access_type": "api", "justification": "x",
	})
	var submitted SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	approveRec := f.do(t, http.MethodPost, "/requests/"+submitted.Request.ID+"/approve", reviewer, nil)
	var approved SubmitResponse
	if err := json.NewDecoder(approveRec.Body).Decode(&approved); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	grantID := approved.Grant.ID

	usageRec := f.do(t, http.MethodPost, "/grants/"+grantID+"/usage", requester, nil)
	if usageRec.Code != http.StatusOK {
		t.Fatalf("expected 200 recording usage, got %d", usageRec.Code)
	}
	var used GrantResponse
	if err := json.NewDecoder(usageRec.Body).Decode(&used); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if used.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", used.UsageCount)
	}

	revokeRec := f.do(t, http.MethodPost, "/grants/"+grantID+"/revoke", reviewer, map[string]string{"reason": "offboarding"})
	if revokeRec.Code != http.StatusOK {
		t.Fatalf("expected 200 revoking, got %d", revokeRec.Code)
	}

	// Usage after revocation is rejected.
	deadRec := f.do(t, http.MethodPost, "/grants/"+grantID+"/usage", requester, nil)
	if deadRec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 using revoked grant, got %d", deadRec.Code)
	}
}

func TestAPIKeyEndpoints(t *testing.T) {
	f := newAccessFixture(t)
	holder := uuid.NewString()

	issueRec := f.do(t, http.MethodPost, "/keys", holder, map[string]string{"label": "ci"})
	if issueRec.Code != http.StatusCreated {
		t.Fatalf("expected 201 issuing key, got %d: %s", issueRec.Code, issueRec.Body.String())
	}
	var issued IssuedKeyResponse
	if err := json.NewDecoder(issueRec.Body).Decode(&issued); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if issued.Secret == "" || issued.Secret == issued.Key.MaskedSecret {
		t.Fatalf("expected a full secret distinct from the mask")
	}

	listRec := f.do(t, http.MethodGet, "/keys", holder, nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing keys, got %d", listRec.Code)
	}
	if bytes.Contains(listRec.Body.Bytes(), []byte(issued.Secret)) {
		t.Fatalf("key listing must never contain the full secret")
	}

	revokeRec := f.do(t, http.MethodPost, "/keys/"+issued.Key.ID+"/revoke", holder, nil)
	if revokeRec.Code != http.StatusOK {
		t.Fatalf("expected 200 revoking key, got %d", revokeRec.Code)
	}

	// A fresh key owned by someone else cannot be revoked by this holder.
	foreignRec := f.do(t, http.MethodPost, "/keys", uuid.NewString(), map[string]string{"label": "foreign"})
	var foreign IssuedKeyResponse
	if err := json.NewDecoder(foreignRec.Body).Decode(&foreign); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	otherRec := f.do(t, http.MethodPost, "/keys/"+foreign.Key.ID+"/revoke", holder, nil)
	if otherRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 revoking foreign key, got %d", otherRec.Code)
	}
}
