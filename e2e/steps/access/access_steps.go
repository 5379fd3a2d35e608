package access

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	Save(key, value string)
	Saved(key string) string
}

// RegisterSteps registers access lifecycle step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &accessSteps{tc: tc}

	ctx.Step(`^I request "([^"]*)" access to the saved product with justification "([^"]*)"$`, steps.requestAccess)
	ctx.Step(`^I request "([^"]*)" access to the saved product without justification$`, steps.requestAccessNoJustification)
	ctx.Step(`^I save the request ID$`, steps.saveRequestID)
	ctx.Step(`^I save the grant ID$`, steps.saveGrantID)
	ctx.Step(`^I begin review of the saved request$`, steps.beginReview)
	ctx.Step(`^I approve the saved request$`, steps.approveRequest)
	ctx.Step(`^I deny the saved request with reason "([^"]*)"$`, steps.denyRequest)
	ctx.Step(`^I record usage on the saved grant$`, steps.recordUsage)
	ctx.Step(`^I revoke the saved grant$`, steps.revokeGrant)
}

type accessSteps struct {
	tc TestContext
}

func (s *accessSteps) requestAccess(accessType, justification string) error {
	return s.tc.POST("/access/requests", map[string]interface{}{
		"product_id":    s.tc.Saved("product_id"),
		"access_type":   accessType,
		"justification": justification,
	})
}

func (s *accessSteps) requestAccessNoJustification(accessType string) error {
	return s.tc.POST("/access/requests", map[string]interface{}{
		"product_id":  s.tc.Saved("product_id"),
		"access_type": accessType,
	})
}

func (s *accessSteps) saveRequestID() error {
	id, err := s.tc.GetResponseField("request.id")
	if err != nil {
		return err
	}
	s.tc.Save("request_id", fmt.Sprintf("%v", id))
	return nil
}

func (s *accessSteps) saveGrantID() error {
	id, err := s.tc.GetResponseField("grant.id")
	if err != nil {
		return err
	}
	s.tc.Save("grant_id", fmt.Sprintf("%v", id))
	return nil
}

func (s *accessSteps) beginReview() error {
	return s.tc.POST("/access/requests/"+s.tc.Saved("request_id")+"/review", nil)
}

func (s *accessSteps) approveRequest() error {
	return s.tc.POST("/access/requests/"+s.tc.Saved("request_id")+"/approve", nil)
}

func (s *accessSteps) denyRequest(reason string) error {
	return s.tc.POST("/access/requests/"+s.tc.Saved("request_id")+"/deny", map[string]interface{}{
		"reason": reason,
	})
}

func (s *accessSteps) recordUsage() error {
	return s.tc.POST("/access/grants/"+s.tc.Saved("grant_id")+"/usage", nil)
}

func (s *accessSteps) revokeGrant() error {
	return s.tc.POST("/access/grants/"+s.tc.Saved("grant_id")+"/revoke", nil)
}
