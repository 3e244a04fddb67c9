// Package testutil holds fixtures shared by the unit and integration
// suites: a fake WooCommerce storefront, a recording event publisher and
// helpers for driving the gin engine.
package testutil

import (
	"github.com/gin-gonic/gin"

	"github.com/shopsync/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestOperator is the operator name put in test tokens
const TestOperator = "test-operator"

// TestSites returns the four storefronts with com as the reference site
func TestSites() shared.SiteSet {
	return shared.SiteSet{"com", "uk", "de", "fr"}
}

// TestSKU returns a well-formed sku; suffix must be five upper-case alphanumerics
func TestSKU(suffix string) string {
	return "TST-2425-HOM-" + suffix
}
