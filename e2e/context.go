// Package e2e runs black-box scenarios against a running server. Point it at
// an instance with MESHGOV_E2E_BASE_URL; scenarios only use the public HTTP
// surface.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestContext carries per-scenario HTTP state: the acting user, the last
// response, and values saved between steps.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	// runID namespaces domains so reruns against a long-lived server do not
	// trip the catalog's per-domain name uniqueness.
	runID string

	actorID    string
	asAdmin    bool
	lastStatus int
	lastBody   map[string]interface{}
	saved      map[string]string
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
		runID:      uuid.NewString()[:8],
		saved:      map[string]string{},
	}
}

// Reset clears scenario state while keeping the run namespace.
func (tc *TestContext) Reset() {
	tc.actorID = ""
	tc.asAdmin = false
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.saved = map[string]string{}
}

// ActAs sets the acting user. The same name always maps to the same user ID
// so steps can switch between requester and owner roles.
func (tc *TestContext) ActAs(name string) {
	tc.actorID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("meshgov-e2e:"+name)).String()
}

// AsAdmin attaches the admin token to subsequent requests.
func (tc *TestContext) AsAdmin() { tc.asAdmin = true }

// Namespace scopes a domain name to this run.
func (tc *TestContext) Namespace(domain string) string {
	return domain + "-" + tc.runID
}

func (tc *TestContext) Save(key, value string)  { tc.saved[key] = value }
func (tc *TestContext) Saved(key string) string { return tc.saved[key] }

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.do(http.MethodPut, path, body)
}

// PUTAsAdmin attaches the admin token for a single request without making the
// rest of the scenario an admin.
func (tc *TestContext) PUTAsAdmin(path string, body interface{}) error {
	prev := tc.asAdmin
	tc.asAdmin = true
	err := tc.do(http.MethodPut, path, body)
	tc.asAdmin = prev
	return err
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.actorID != "" {
		req.Header.Set("X-Actor-ID", tc.actorID)
	}
	if tc.asAdmin {
		req.Header.Set("X-Admin-Token", tc.adminToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err == nil {
			tc.lastBody = decoded
		}
	}
	return nil
}

// ResponseStatus returns the status code of the last response.
func (tc *TestContext) ResponseStatus() int { return tc.lastStatus }

// GetResponseField resolves a dotted path like "request.status" in the last
// JSON response body.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response")
	}
	var current interface{} = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not present in response", field)
		}
	}
	return current, nil
}
