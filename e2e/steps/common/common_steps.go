package common

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	ActAs(name string)
	AsAdmin()
	GET(path string) error
	PUTAsAdmin(path string, body interface{}) error
	ResponseStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers actor selection, policy pinning, and generic
// response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am acting as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I am an administrator$`, steps.asAdmin)
	ctx.Step(`^the platform policy requires manual review$`, steps.policyManualReview)
	ctx.Step(`^the platform policy auto-approves public products$`, steps.policyAutoApprove)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusIs)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldIs)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) actAs(name string) error {
	s.tc.ActAs(name)
	return nil
}

func (s *commonSteps) asAdmin() error {
	s.tc.AsAdmin()
	return nil
}

func (s *commonSteps) policyManualReview() error {
	return s.setPolicy(false)
}

func (s *commonSteps) policyAutoApprove() error {
	return s.setPolicy(true)
}

func (s *commonSteps) setPolicy(autoApprove bool) error {
	if err := s.tc.PUTAsAdmin("/policy", map[string]interface{}{
		"auto_approve":          autoApprove,
		"require_justification": true,
		"notify_owners":         true,
		"audit_logging":         true,
	}); err != nil {
		return err
	}
	if got := s.tc.ResponseStatus(); got != 200 {
		return fmt.Errorf("policy update failed with status %d", got)
	}
	return nil
}

func (s *commonSteps) get(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) responseStatusIs(expected int) error {
	if got := s.tc.ResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d", expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldIs(field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", value); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}
