package e2e

import (
	"github.com/cucumber/godog"

	"meshgov/e2e/steps/access"
	"meshgov/e2e/steps/catalog"
	"meshgov/e2e/steps/common"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	catalog.RegisterSteps(ctx, tc)
	access.RegisterSteps(ctx, tc)
}
