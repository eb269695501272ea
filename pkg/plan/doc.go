// Package plan defines the closed set of subscription plans and their
// static attributes: AI-generation quota, feature flags, price, and
// billing interval.
//
// Plans are identified by a typed ID rather than free-form strings so
// call sites can switch exhaustively over the three tiers (Basic,
// PremiumMonthly, PremiumYearly). The Registry is a pure lookup table
// built once at startup, either from the compiled-in defaults or from a
// YAML catalog file:
//
//	reg := plan.MustNewRegistry()
//
//	p, err := reg.Get(plan.PremiumMonthly)
//	if err != nil {
//		// unknown id
//	}
//
// Paid plans carry the storefront SKU in ProductID, which the purchase
// reconciliation layer uses to map storefront events back to plans via
// ByProductID. Basic has no SKU and cannot be purchased.
package plan
