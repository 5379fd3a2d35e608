package catalog

import (
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	Namespace(domain string) string
	Save(key, value string)
	Saved(key string) string
}

// RegisterSteps registers catalog step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &catalogSteps{tc: tc}

	ctx.Step(`^I publish a product named "([^"]*)" in domain "([^"]*)" with access level "([^"]*)"$`, steps.publishProduct)
	ctx.Step(`^I save the product ID$`, steps.saveProductID)
	ctx.Step(`^I fetch the saved product$`, steps.fetchSavedProduct)
	ctx.Step(`^I deprecate the saved product$`, steps.deprecateSavedProduct)
	ctx.Step(`^I search the catalog for "([^"]*)"$`, steps.searchCatalog)
}

type catalogSteps struct {
	tc TestContext
}

func (s *catalogSteps) publishProduct(name, domain, accessLevel string) error {
	body := map[string]interface{}{
		"name":          name,
		"domain":        s.tc.Namespace(domain),
		"description":   "end-to-end scenario product",
		"tags":          []string{"e2e"},
		"access_level":  accessLevel,
		"quality_score": 80,
	}
	return s.tc.POST("/catalog/products", body)
}

func (s *catalogSteps) saveProductID() error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("product_id", fmt.Sprintf("%v", id))
	return nil
}

func (s *catalogSteps) fetchSavedProduct() error {
	return s.tc.GET("/catalog/products/" + s.tc.Saved("product_id"))
}

func (s *catalogSteps) deprecateSavedProduct() error {
	return s.tc.POST("/catalog/products/"+s.tc.Saved("product_id")+"/deprecate", nil)
}

func (s *catalogSteps) searchCatalog(query string) error {
	return s.tc.GET("/catalog/products?q=" + url.QueryEscape(query))
}
