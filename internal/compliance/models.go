// Package compliance tracks the governance rules the platform is checked
// against and the violations recorded against them.
package compliance

import (
	"time"

	id "meshgov/pkg/domain"
)

// RuleStatus is the state of a compliance rule.
type RuleStatus string

const (
	// RuleActive: the rule is enforced and currently clean.
	RuleActive RuleStatus = "active"
	// RuleWarning: the rule is enforced and has recorded violations.
	RuleWarning RuleStatus = "warning"
	// RuleInactive: the rule is switched off and excluded from scoring.
	RuleInactive RuleStatus = "inactive"
)

// Rule is one governance check.
type Rule struct {
	ID             id.RuleID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         RuleStatus `json:"status"`
	ViolationCount int        `json:"violation_count"`
	LastChecked    time.Time  `json:"last_checked"`
}

// Enforced reports whether the rule participates in compliance scoring.
func (r *Rule) Enforced() bool {
	return r.Status == RuleActive || r.Status == RuleWarning
}

// Clone returns a copy so snapshots never alias stored state.
func (r *Rule) Clone() Rule {
	return *r
}
