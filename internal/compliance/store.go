package compliance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/sentinel"
)

// Store keeps the rule set in memory. The platform ships with a seeded rule
// set; administrators toggle rules and automated checks record violations.
type Store struct {
	mu    sync.RWMutex
	rules map[id.RuleID]*Rule
}

// NewStore seeds the standard governance rule set.
func NewStore(now time.Time) *Store {
	s := &Store{rules: make(map[id.RuleID]*Rule)}
	for _, seed := range []Rule{
		{Name: "PII fields masked", Description: "Products containing personal data must declare masked columns"},
		{Name: "Quality score floor", Description: "Active products must keep a quality score of at least 60"},
		{Name: "Owner assigned", Description: "Every product must have a reachable owning team"},
		{Name: "Quarterly access review", Description: "Grants on restricted products must be re-reviewed every quarter"},
		{Name: "Justification retention", Description: "Access justifications must be retained with the audit trail"},
	} {
		rule := seed
		rule.ID = id.RuleID(uuid.New())
		rule.Status = RuleActive
		rule.LastChecked = now
		s.rules[rule.ID] = &rule
	}
	return s
}

// Snapshot returns every rule, sorted by name for stable listings.
func (s *Store) Snapshot(_ context.Context) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Toggle flips a rule between enforced and inactive. A rule in warning is
// enforced, so toggling it switches it off; toggling it back on returns it to
// active with its violation history intact.
func (s *Store) Toggle(_ context.Context, ruleID id.RuleID, now time.Time) (*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[ruleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.Enforced() {
		r.Status = RuleInactive
	} else if r.ViolationCount > 0 {
		r.Status = RuleWarning
	} else {
		r.Status = RuleActive
	}
	r.LastChecked = now

	cp := r.Clone()
	return &cp, nil
}

// RecordViolation counts one violation against an enforced rule and moves it
// to warning. Inactive rules reject violations.
func (s *Store) RecordViolation(_ context.Context, ruleID id.RuleID, now time.Time) (*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[ruleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !r.Enforced() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "rule is not enforced")
	}
	r.ViolationCount++
	r.Status = RuleWarning
	r.LastChecked = now

	cp := r.Clone()
	return &cp, nil
}
