package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "meshgov/pkg/domain"
	dErrors "meshgov/pkg/domain-errors"
	"meshgov/pkg/platform/sentinel"
)

type RuleStoreSuite struct {
	suite.Suite
	store *Store
	now   time.Time
}

func TestRuleStoreSuite(t *testing.T) {
	suite.Run(t, new(RuleStoreSuite))
}

func (s *RuleStoreSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.store = NewStore(s.now)
}

func (s *RuleStoreSuite) firstRule() Rule {
	s.T().Helper()
	rules, err := s.store.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Require().NotEmpty(rules)
	return rules[0]
}

func (s *RuleStoreSuite) TestSeededRules() {
	rules, err := s.store.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Len(rules, 5)
	for _, r := range rules {
		s.Equal(RuleActive, r.Status)
		s.Zero(r.ViolationCount)
		s.False(r.ID.IsNil())
	}
	// Sorted by name for stable listings.
	for i := 1; i < len(rules); i++ {
		s.LessOrEqual(rules[i-1].Name, rules[i].Name)
	}
}

func (s *RuleStoreSuite) TestToggle() {
	ctx := context.Background()
	rule := s.firstRule()
	later := s.now.Add(time.Hour)

	s.Run("active toggles off", func() {
		toggled, err := s.store.Toggle(ctx, rule.ID, later)
		s.Require().NoError(err)
		s.Equal(RuleInactive, toggled.Status)
		s.Equal(later, toggled.LastChecked)
	})

	s.Run("clean rule toggles back to active", func() {
		toggled, err := s.store.Toggle(ctx, rule.ID, later)
		s.Require().NoError(err)
		s.Equal(RuleActive, toggled.Status)
	})

	s.Run("violated rule toggles back to warning", func() {
		_, err := s.store.RecordViolation(ctx, rule.ID, later)
		s.Require().NoError(err)

		_, err = s.store.Toggle(ctx, rule.ID, later) // off
		s.Require().NoError(err)
		toggled, err := s.store.Toggle(ctx, rule.ID, later) // back on
		s.Require().NoError(err)
		s.Equal(RuleWarning, toggled.Status)
		s.Equal(1, toggled.ViolationCount)
	})

	s.Run("unknown rule returns not found", func() {
		_, err := s.store.Toggle(ctx, id.RuleID(uuid.New()), later)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RuleStoreSuite) TestRecordViolation() {
	ctx := context.Background()
	rule := s.firstRule()

	s.Run("violation moves the rule to warning", func() {
		violated, err := s.store.RecordViolation(ctx, rule.ID, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(RuleWarning, violated.Status)
		s.Equal(1, violated.ViolationCount)
	})

	s.Run("violations accumulate", func() {
		violated, err := s.store.RecordViolation(ctx, rule.ID, s.now.Add(2*time.Hour))
		s.Require().NoError(err)
		s.Equal(2, violated.ViolationCount)
	})

	s.Run("inactive rule rejects violations", func() {
		_, err := s.store.Toggle(ctx, rule.ID, s.now)
		s.Require().NoError(err)

		_, err = s.store.RecordViolation(ctx, rule.ID, s.now)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
