package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access lifecycle module.
type Metrics struct {
	// Submitted requests by policy decision
	RequestDecisions *prometheus.CounterVec

	// Grants created (auto-approval and manual approval)
	GrantsCreated prometheus.Counter

	// Grant revocations
	GrantsRevoked prometheus.Counter

	// Usage events recorded against grants
	UsageRecorded prometheus.Counter
}

// New creates a new Metrics instance with all access module metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meshgov_access_request_decisions_total",
			Help: "Total access request submissions by policy decision",
		}, []string{"decision"}), // decision: "auto_approve", "require_review", "deny"

		GrantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meshgov_access_grants_created_total",
			Help: "Total access grants created",
		}),

		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meshgov_access_grants_revoked_total",
			Help: "Total access grants revoked",
		}),

		UsageRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meshgov_access_usage_recorded_total",
			Help: "Total usage events recorded against grants",
		}),
	}
}

// IncrementDecision records a submission outcome.
func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.RequestDecisions.WithLabelValues(decision).Inc()
	}
}

// IncrementGrantsCreated records a created grant.
func (m *Metrics) IncrementGrantsCreated() {
	if m != nil {
		m.GrantsCreated.Inc()
	}
}

// IncrementGrantsRevoked records a revoked grant.
func (m *Metrics) IncrementGrantsRevoked() {
	if m != nil {
		m.GrantsRevoked.Inc()
	}
}

// IncrementUsageRecorded records a usage event.
func (m *Metrics) IncrementUsageRecorded() {
	if m != nil {
		m.UsageRecorded.Inc()
	}
}
