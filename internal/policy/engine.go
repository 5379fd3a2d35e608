package policy

import "meshgov/internal/catalog/models"

// DecisionInput is everything the engine looks at. Keeping the input explicit
// makes decisions reproducible: same input, same decision.
type DecisionInput struct {
	AccessLevel   models.AccessLevel
	Justification string
}

// Engine evaluates access requests against the governance policy. The rules
// are centralized here so the lifecycle manager never embeds policy logic.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Decide is a pure function. Rule order matters:
//
//  1. A required-but-missing justification denies outright.
//  2. Public products auto-approve when the policy allows it.
//  3. Restricted products always need a human, regardless of auto-approve.
//  4. Everything else goes to review.
func (e *Engine) Decide(input DecisionInput, pol Policy) Decision {
	if pol.RequireJustification && input.Justification == "" {
		return DecisionDeny
	}
	if input.AccessLevel == models.AccessPublic && pol.AutoApprove {
		return DecisionAutoApprove
	}
	if input.AccessLevel == models.AccessRestricted {
		return DecisionRequireReview
	}
	return DecisionRequireReview
}
