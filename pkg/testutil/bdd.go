package testutil

import "testing"

// Given, When, and Then wrap subtests so governance scenarios (publish a
// product, request access, check the audit trail) read as prose in test
// output. Full gherkin lives in the e2e module; these cover the in-process
// scenario tests.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
