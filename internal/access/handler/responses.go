package handler

import (
	"time"

	"meshgov/internal/access/models"
	"meshgov/internal/access/service"
)

// RequestResponse is the HTTP representation of an access request.
type RequestResponse struct {
	ID             string     `json:"id"`
	RequesterID    string     `json:"requester_id"`
	ProductID      string     `json:"product_id"`
	AccessType     string     `json:"access_type"`
	Justification  string     `json:"justification"`
	RequestedAt    time.Time  `json:"requested_at"`
	Status         string     `json:"status"`
	DecidedBy      string     `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	DecisionReason string     `json:"decision_reason,omitempty"`
}

// GrantResponse is the HTTP representation of an access grant. Status is the
// derived status at request time.
type GrantResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	HolderID   string     `json:"holder_id"`
	AccessType string     `json:"access_type"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Status     string     `json:"status"`
	UsageCount int        `json:"usage_count"`
}

// KeyResponse is the HTTP representation of an API key. The secret only
// appears in IssuedKeyResponse, never here.
type KeyResponse struct {
	ID           string     `json:"id"`
	HolderID     string     `json:"holder_id"`
	Label        string     `json:"label"`
	MaskedSecret string     `json:"masked_secret"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	Status       string     `json:"status"`
}

// IssuedKeyResponse carries the full secret exactly once, at issue time.
type IssuedKeyResponse struct {
	Key    KeyResponse `json:"key"`
	Secret string      `json:"secret"`
}

// SubmitResponse is the HTTP response for request submissions and decisions.
// Grant is present only when the transition produced one.
type SubmitResponse struct {
	Request RequestResponse `json:"request"`
	Grant   *GrantResponse  `json:"grant,omitempty"`
}

// RequestListResponse is the HTTP response for GET /access/requests.
type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
}

// GrantListResponse is the HTTP response for GET /access/grants.
type GrantListResponse struct {
	Grants []GrantResponse `json:"grants"`
}

// KeyListResponse is the HTTP response for GET /access/keys.
type KeyListResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// FromRequest converts a domain AccessRequest to an HTTP response.
func FromRequest(r *models.AccessRequest) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID.String(),
		RequesterID:    r.RequesterID.String(),
		ProductID:      r.ProductID.String(),
		AccessType:     string(r.AccessType),
		Justification:  r.Justification,
		RequestedAt:    r.RequestedAt,
		Status:         string(r.Status),
		DecidedAt:      r.DecidedAt,
		DecisionReason: r.DecisionReason,
	}
	if !r.DecidedBy.IsNil() {
		resp.DecidedBy = r.DecidedBy.String()
	}
	return resp
}

// FromRequests converts a request slice, never returning nil.
func FromRequests(requests []models.AccessRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, FromRequest(&requests[i]))
	}
	return out
}

// FromGrant converts a domain AccessGrant to an HTTP response.
func FromGrant(g *models.AccessGrant) GrantResponse {
	return GrantResponse{
		ID:         g.ID.String(),
		ProductID:  g.ProductID.String(),
		HolderID:   g.HolderID.String(),
		AccessType: string(g.AccessType),
		GrantedAt:  g.GrantedAt,
		ExpiresAt:  g.ExpiresAt,
		Status:     string(g.Status),
		UsageCount: g.UsageCount,
	}
}

// FromGrants converts a grant slice, never returning nil.
func FromGrants(grants []models.AccessGrant) []GrantResponse {
	out := make([]GrantResponse, 0, len(grants))
	for i := range grants {
		out = append(out, FromGrant(&grants[i]))
	}
	return out
}

// FromKey converts a domain APIKey to an HTTP response.
func FromKey(k *models.APIKey) KeyResponse {
	return KeyResponse{
		ID:           k.ID.String(),
		HolderID:     k.HolderID.String(),
		Label:        k.Label,
		MaskedSecret: k.MaskedSecret,
		CreatedAt:    k.CreatedAt,
		LastUsed:     k.LastUsed,
		Status:       string(k.Status),
	}
}

// FromKeys converts a key slice, never returning nil.
func FromKeys(keys []models.APIKey) []KeyResponse {
	out := make([]KeyResponse, 0, len(keys))
	for i := range keys {
		out = append(out, FromKey(&keys[i]))
	}
	return out
}

// FromIssuedKey pairs the stored key with its one-time secret.
func FromIssuedKey(k *models.APIKey, secret string) IssuedKeyResponse {
	return IssuedKeyResponse{Key: FromKey(k), Secret: secret}
}

// FromSubmitResult converts a submission outcome.
func FromSubmitResult(result *service.SubmitResult) SubmitResponse {
	resp := SubmitResponse{Request: FromRequest(result.Request)}
	if result.Grant != nil {
		g := FromGrant(result.Grant)
		resp.Grant = &g
	}
	return resp
}
