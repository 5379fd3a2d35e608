// Package service implements the access lifecycle: request submission,
// review decisions, grants with lazy expiry, usage accounting, and API keys.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accessmetrics "meshgov/internal/access/metrics"
	"meshgov/internal/access/models"
	"meshgov/internal/audit"
	catalogmodels "meshgov/internal/catalog/models"
	"meshgov/internal/notify"
	"meshgov/internal/policy"
	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/sentinel"
	"meshgov/pkg/requestcontext"
)

// RequestStore is the persistence boundary for access requests.
type RequestStore interface {
	Create(ctx context.Context, req *models.AccessRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.AccessRequest, error)
	Execute(ctx context.Context, requestID id.RequestID, validate func(*models.AccessRequest) error, mutate func(*models.AccessRequest)) (*models.AccessRequest, error)
	ListByRequester(ctx context.Context, requesterID id.UserID) ([]models.AccessRequest, error)
	ListByProduct(ctx context.Context, productID id.ProductID, status models.RequestStatus) ([]models.AccessRequest, error)
}

// GrantStore is the persistence boundary for access grants.
type GrantStore interface {
	Create(ctx context.Context, g *models.AccessGrant) error
	FindByID(ctx context.Context, grantID id.GrantID) (*models.AccessGrant, error)
	Execute(ctx context.Context, grantID id.GrantID, validate func(*models.AccessGrant) error, mutate func(*models.AccessGrant)) (*models.AccessGrant, error)
	ListByHolder(ctx context.Context, holderID id.UserID) ([]models.AccessGrant, error)
}

// KeyStore is the persistence boundary for API keys.
type KeyStore interface {
	Create(ctx context.Context, key *models.APIKey) error
	Execute(ctx context.Context, keyID id.KeyID, validate func(*models.APIKey) error, mutate func(*models.APIKey)) (*models.APIKey, error)
	ListByHolder(ctx context.Context, holderID id.UserID) ([]models.APIKey, error)
}

// ProductCatalog is the slice of the catalog the lifecycle needs: product
// lookups and the consumer/download counters it maintains.
type ProductCatalog interface {
	FindByID(ctx context.Context, productID id.ProductID) (*catalogmodels.DataProduct, error)
	IncrementConsumers(ctx context.Context, productID id.ProductID) error
	IncrementDownloads(ctx context.Context, productID id.ProductID) error
}

// PolicyProvider exposes the policy snapshot in force.
type PolicyProvider interface {
	Current(ctx context.Context) policy.Policy
}

// Auditor records lifecycle transitions.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service owns the access request state machine and everything downstream of
// an approval.
type Service struct {
	requests RequestStore
	grants   GrantStore
	keys     KeyStore
	catalog  ProductCatalog
	engine   *policy.Engine
	policies PolicyProvider
	auditor  Auditor
	notifier notify.Notifier

	grantTTL      time.Duration
	warningWindow time.Duration

	logger  *slog.Logger
	metrics *accessmetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *accessmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the access lifecycle service. grantTTL bounds non-public
// grants; warningWindow controls when an unexpired grant reads as expiring.
func New(
	requests RequestStore,
	grants GrantStore,
	keys KeyStore,
	catalog ProductCatalog,
	engine *policy.Engine,
	policies PolicyProvider,
	auditor Auditor,
	notifier notify.Notifier,
	grantTTL time.Duration,
	warningWindow time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		requests:      requests,
		grants:        grants,
		keys:          keys,
		catalog:       catalog,
		engine:        engine,
		policies:      policies,
		auditor:       auditor,
		notifier:      notifier,
		grantTTL:      grantTTL,
		warningWindow: warningWindow,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput carries a new access request.
type SubmitInput struct {
	RequesterID   id.UserID
	ProductID     id.ProductID
	AccessType    models.AccessType
	Justification string
}

// SubmitResult is the stored request plus the grant when policy auto-approved.
type SubmitResult struct {
	Request *models.AccessRequest
	Grant   *models.AccessGrant
}

// SubmitRequest runs the policy engine against a new request and stores it in
// the resulting state. A policy denial is not an error: the request comes
// back in status denied with no grant.
func (s *Service) SubmitRequest(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}

	now := requestcontext.Now(ctx)
	pol := s.policies.Current(ctx)
	decision := s.engine.Decide(policy.DecisionInput{
		AccessLevel:   product.AccessLevel,
		Justification: strings.TrimSpace(input.Justification),
	}, pol)

	req := &models.AccessRequest{
		ID:            id.RequestID(uuid.New()),
		RequesterID:   input.RequesterID,
		ProductID:     input.ProductID,
		AccessType:    input.AccessType,
		Justification: strings.TrimSpace(input.Justification),
		RequestedAt:   now,
		Status:        models.RequestPending,
	}

	result := &SubmitResult{Request: req}
	var (
		action  audit.Action
		outcome = audit.OutcomeSuccess
		reason  string
	)

	switch decision {
	case policy.DecisionDeny:
		reason = "justification is required by policy"
		req.ApplyDecision(models.RequestDenied, id.UserID{}, reason, now)
		action = audit.ActionRequestDenied
		outcome = audit.OutcomeDenied

	case policy.DecisionAutoApprove:
		req.ApplyDecision(models.RequestApproved, id.UserID{}, "auto-approved by policy", now)
		action = audit.ActionRequestAutoApproved

	default: // policy.DecisionRequireReview
		action = audit.ActionRequestSubmitted
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store request")
	}

	if decision == policy.DecisionAutoApprove {
		grant, err := s.createGrant(ctx, req, product, now)
		if err != nil {
			return nil, err
		}
		result.Grant = grant
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      action,
		ActorID:     input.RequesterID,
		SubjectKind: audit.SubjectRequest,
		SubjectID:   req.ID.String(),
		Outcome:     outcome,
		Reason:      reason,
	}); err != nil {
		return nil, err
	}

	if decision != policy.DecisionDeny && pol.NotifyOwners {
		s.dispatch(ctx, notify.Event{
			Kind:      notify.KindRequestSubmitted,
			ProductID: product.ID,
			OwnerID:   product.OwnerID,
			SubjectID: req.ID.String(),
			ActorID:   input.RequesterID,
			Message:   "new access request for " + product.Name,
		})
	}

	s.metrics.IncrementDecision(string(decision))
	return result, nil
}

// BeginReview moves a pending request into review.
func (s *Service) BeginReview(ctx context.Context, requestID id.RequestID, reviewerID id.UserID) (*models.AccessRequest, error) {
	req, err := s.requests.Execute(ctx, requestID,
		func(r *models.AccessRequest) error { return r.CanBeginReview() },
		func(r *models.AccessRequest) { r.ApplyBeginReview() },
	)
	if err != nil {
		return nil, translateRequestErr(err)
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionReviewStarted,
		ActorID:     reviewerID,
		SubjectKind: audit.SubjectRequest,
		SubjectID:   requestID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve resolves a pending or under-review request and creates its grant.
// The request transition and the grant creation are separate critical
// sections: the Execute call decides the winner of racing decisions, so the
// grant is created at most once.
func (s *Service) Approve(ctx context.Context, requestID id.RequestID, approverID id.UserID) (*models.AccessRequest, *models.AccessGrant, error) {
	now := requestcontext.Now(ctx)

	req, err := s.requests.Execute(ctx, requestID,
		func(r *models.AccessRequest) error { return r.CanDecide() },
		func(r *models.AccessRequest) {
			r.ApplyDecision(models.RequestApproved, approverID, "", now)
		},
	)
	if err != nil {
		return nil, nil, translateRequestErr(err)
	}

	product, err := s.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		// Products are never deleted, so this only happens on storage loss.
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product for approved request")
	}

	grant, err := s.createGrant(ctx, req, product, now)
	if err != nil {
		return nil, nil, err
	}

	// The approval and grant are already committed at this point; a failed
	// audit append returns an error without undoing them.
	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionRequestApproved,
		ActorID:     approverID,
		SubjectKind: audit.SubjectRequest,
		SubjectID:   requestID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, nil, err
	}

	if s.policies.Current(ctx).NotifyOwners {
		s.dispatch(ctx, notify.Event{
			Kind:      notify.KindRequestApproved,
			ProductID: product.ID,
			OwnerID:   product.OwnerID,
			SubjectID: requestID.String(),
			ActorID:   approverID,
			Message:   "access request approved for " + product.Name,
		})
	}
	return req, grant, nil
}

// Deny resolves a pending or under-review request without creating a grant.
func (s *Service) Deny(ctx context.Context, requestID id.RequestID, approverID id.UserID, reason string) (*models.AccessRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a denial reason is required")
	}

	now := requestcontext.Now(ctx)
	req, err := s.requests.Execute(ctx, requestID,
		func(r *models.AccessRequest) error { return r.CanDecide() },
		func(r *models.AccessRequest) {
			r.ApplyDecision(models.RequestDenied, approverID, reason, now)
		},
	)
	if err != nil {
		return nil, translateRequestErr(err)
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionRequestDenied,
		ActorID:     approverID,
		SubjectKind: audit.SubjectRequest,
		SubjectID:   requestID.String(),
		Outcome:     audit.OutcomeDenied,
		Reason:      reason,
	}); err != nil {
		return nil, err
	}
	return req, nil
}

// createGrant creates exactly one active grant for an approved request and
// bumps the product's consumer count. Public products never expire.
func (s *Service) createGrant(ctx context.Context, req *models.AccessRequest, product *catalogmodels.DataProduct, now time.Time) (*models.AccessGrant, error) {
	grant := &models.AccessGrant{
		ID:         id.GrantID(uuid.New()),
		ProductID:  req.ProductID,
		HolderID:   req.RequesterID,
		AccessType: req.AccessType,
		GrantedAt:  now,
		Status:     models.GrantActive,
	}
	if product.AccessLevel != catalogmodels.AccessPublic {
		expiry := now.Add(s.grantTTL)
		grant.ExpiresAt = &expiry
	}

	if err := s.grants.Create(ctx, grant); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store grant")
	}
	if err := s.catalog.IncrementConsumers(ctx, req.ProductID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update consumer count")
	}

	s.metrics.IncrementGrantsCreated()
	return grant, nil
}

// Revoke ends a grant early. Expired and already-revoked grants reject the
// transition.
func (s *Service) Revoke(ctx context.Context, grantID id.GrantID, actorID id.UserID, reason string) (*models.AccessGrant, error) {
	now := requestcontext.Now(ctx)

	grant, err := s.grants.Execute(ctx, grantID,
		func(g *models.AccessGrant) error { return g.CanRevoke(now, s.warningWindow) },
		func(g *models.AccessGrant) { g.ApplyRevocation() },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grant not found")
		}
		return nil, err
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionGrantRevoked,
		ActorID:     actorID,
		SubjectKind: audit.SubjectGrant,
		SubjectID:   grantID.String(),
		Outcome:     audit.OutcomeSuccess,
		Reason:      strings.TrimSpace(reason),
	}); err != nil {
		return nil, err
	}

	if s.policies.Current(ctx).NotifyOwners {
		if product, perr := s.catalog.FindByID(ctx, grant.ProductID); perr == nil {
			s.dispatch(ctx, notify.Event{
				Kind:      notify.KindGrantRevoked,
				ProductID: product.ID,
				OwnerID:   product.OwnerID,
				SubjectID: grantID.String(),
				ActorID:   actorID,
				Message:   "access grant revoked for " + product.Name,
			})
		}
	}

	s.metrics.IncrementGrantsRevoked()
	return withDerivedStatus(grant, now, s.warningWindow), nil
}

// RecordUsage counts one consumption event against a usable grant. The
// usability check and the counter bump share the store's critical section, so
// a grant that expires mid-flight never gains usage.
func (s *Service) RecordUsage(ctx context.Context, grantID id.GrantID) (*models.AccessGrant, error) {
	now := requestcontext.Now(ctx)

	grant, err := s.grants.Execute(ctx, grantID,
		func(g *models.AccessGrant) error {
			if !g.Usable(now, s.warningWindow) {
				return dErrors.New(dErrors.CodeInvalidState, "grant does not authorize usage")
			}
			return nil
		},
		func(g *models.AccessGrant) { g.UsageCount++ },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grant not found")
		}
		return nil, err
	}

	if err := s.catalog.IncrementDownloads(ctx, grant.ProductID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update download count")
	}

	if err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionUsageRecorded,
		ActorID:     grant.HolderID,
		SubjectKind: audit.SubjectGrant,
		SubjectID:   grantID.String(),
		Outcome:     audit.OutcomeSuccess,
	}); err != nil {
		return nil, err
	}

	s.metrics.IncrementUsageRecorded()
	return withDerivedStatus(grant, now, s.warningWindow), nil
}

// GetRequest returns one request by ID.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.AccessRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, translateRequestErr(err)
	}
	return req, nil
}

// ListRequestsByRequester returns the requester's requests, newest first.
func (s *Service) ListRequestsByRequester(ctx context.Context, requesterID id.UserID) ([]models.AccessRequest, error) {
	reqs, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return reqs, nil
}

// ListRequestsByProduct returns a product's requests, optionally narrowed to
// one status. This backs the owner's review queue.
func (s *Service) ListRequestsByProduct(ctx context.Context, productID id.ProductID, status models.RequestStatus) ([]models.AccessRequest, error) {
	reqs, err := s.requests.ListByProduct(ctx, productID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return reqs, nil
}

// ListGrantsByHolder returns the holder's grants with derived statuses
// applied, newest first.
func (s *Service) ListGrantsByHolder(ctx context.Context, holderID id.UserID) ([]models.AccessGrant, error) {
	grants, err := s.grants.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list grants")
	}

	now := requestcontext.Now(ctx)
	for i := range grants {
		grants[i].Status = grants[i].EffectiveStatus(now, s.warningWindow)
	}
	return grants, nil
}

func withDerivedStatus(g *models.AccessGrant, now time.Time, warningWindow time.Duration) *models.AccessGrant {
	cp := g.Clone()
	cp.Status = cp.EffectiveStatus(now, warningWindow)
	return &cp
}

// dispatch sends an owner notification without awaiting delivery.
func (s *Service) dispatch(ctx context.Context, event notify.Event) {
	go s.notifier.Notify(context.WithoutCancel(ctx), event)
}

func translateRequestErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "access request not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "request store failure")
}
