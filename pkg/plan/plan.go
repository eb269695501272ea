package plan

import "time"

// ID identifies one of the closed set of subscription plans.
// The set is fixed at compile time; code should switch on ID values
// rather than compare raw strings.
type ID string

const (
	Basic          ID = "basic"
	PremiumMonthly ID = "premium_monthly"
	PremiumYearly  ID = "premium_yearly"
)

// Valid reports whether the ID is one of the known plan identifiers.
func (id ID) Valid() bool {
	switch id {
	case Basic, PremiumMonthly, PremiumYearly:
		return true
	}
	return false
}

// Feature represents a plan-specific capability that can be enabled/disabled.
type Feature string

const (
	FeatureWritingPrompts    Feature = "writing_prompts"
	FeatureAdvancedFilters   Feature = "advanced_filters"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureDataExport        Feature = "data_export"
)

// BillingInterval represents the billing frequency for a subscription plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plan, never billed
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $4.99 USD is Amount: 499, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// Plan describes a subscription tier and its quota/feature constraints.
// ProductID is the storefront SKU for paid plans and must stay in sync with
// the billing provider's catalog; it is empty for Basic, which cannot be
// purchased.
type Plan struct {
	ID             ID              `yaml:"id"`
	DisplayName    string          `yaml:"display_name"`
	Description    string          `yaml:"description"`
	ProductID      string          `yaml:"product_id"`
	MonthlyAILimit int             `yaml:"monthly_ai_limit"`
	Features       []Feature       `yaml:"features"`
	Price          Money           `yaml:"price"`
	Interval       BillingInterval `yaml:"interval"`
}

// IsPremium reports whether the plan is a paid tier.
func (p Plan) IsPremium() bool {
	return p.Interval != BillingIntervalNone
}

// IsYearly reports whether the plan bills annually.
func (p Plan) IsYearly() bool {
	return p.Interval == BillingIntervalAnnual
}

// HasFeature reports whether the plan grants the given feature.
func (p Plan) HasFeature(f Feature) bool {
	for _, have := range p.Features {
		if have == f {
			return true
		}
	}
	return false
}

// ExpiryFrom returns when an entitlement purchased at start expires.
// Basic never expires and returns nil.
func (p Plan) ExpiryFrom(start time.Time) *time.Time {
	switch p.Interval {
	case BillingIntervalMonthly:
		t := start.AddDate(0, 0, 30)
		return &t
	case BillingIntervalAnnual:
		t := start.AddDate(0, 0, 365)
		return &t
	default:
		return nil
	}
}

// Defaults returns the compiled-in plan table in display order.
func Defaults() []Plan {
	return []Plan{
		{
			ID:             Basic,
			DisplayName:    "Basic",
			Description:    "Free photo diary with a small monthly AI allowance",
			MonthlyAILimit: 3,
			Interval:       BillingIntervalNone,
		},
		{
			ID:             PremiumMonthly,
			DisplayName:    "Premium Monthly",
			Description:    "Full access billed monthly",
			ProductID:      "snapdiary_premium_monthly",
			MonthlyAILimit: 100,
			Features: []Feature{
				FeatureWritingPrompts,
				FeatureAdvancedFilters,
				FeatureAdvancedAnalytics,
				FeatureDataExport,
			},
			Price:    Money{Amount: 499, Currency: "USD"},
			Interval: BillingIntervalMonthly,
		},
		{
			ID:             PremiumYearly,
			DisplayName:    "Premium Yearly",
			Description:    "Full access billed yearly",
			ProductID:      "snapdiary_premium_yearly",
			MonthlyAILimit: 100,
			Features: []Feature{
				FeatureWritingPrompts,
				FeatureAdvancedFilters,
				FeatureAdvancedAnalytics,
				FeatureDataExport,
				FeaturePrioritySupport,
			},
			Price:    Money{Amount: 3999, Currency: "USD"},
			Interval: BillingIntervalAnnual,
		},
	}
}
