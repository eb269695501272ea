package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// Entitlements answers capability queries by composing the status store,
// the usage tracker, and the plan registry.
//
// Every method is read-only and fails closed: any lookup error yields
// false. Checks are cheap in-memory reads and safe to call on every UI
// render.
type Entitlements struct {
	store   *Store
	tracker *UsageTracker
	plans   *plan.Registry
	now     func() time.Time
}

// EntitlementsOption configures the gate.
type EntitlementsOption func(*Entitlements)

// WithEntitlementsClock overrides the wall clock, for tests.
func WithEntitlementsClock(now func() time.Time) EntitlementsOption {
	return func(e *Entitlements) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEntitlements creates the gate. Panics on nil dependencies.
func NewEntitlements(store *Store, tracker *UsageTracker, plans *plan.Registry, opts ...EntitlementsOption) *Entitlements {
	if store == nil {
		panic("subscription: Store is required")
	}
	if tracker == nil {
		panic("subscription: UsageTracker is required")
	}
	if plans == nil {
		panic("subscription: plan.Registry is required")
	}
	e := &Entitlements{
		store:   store,
		tracker: tracker,
		plans:   plans,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanUseAIGeneration reports whether another AI generation is allowed.
func (e *Entitlements) CanUseAIGeneration(ctx context.Context) bool {
	return e.tracker.CanUseAIGeneration(ctx)
}

// CanAccessPremiumFeatures reports whether a valid premium entitlement applies.
func (e *Entitlements) CanAccessPremiumFeatures(ctx context.Context) bool {
	status, p, ok := e.validPlan(ctx)
	return ok && status.IsValidAt(e.now()) && p.IsPremium()
}

// CanAccessWritingPrompts reports access to AI writing prompts.
func (e *Entitlements) CanAccessWritingPrompts(ctx context.Context) bool {
	return e.hasFeature(ctx, plan.FeatureWritingPrompts)
}

// CanAccessAdvancedFilters reports access to advanced photo filters.
func (e *Entitlements) CanAccessAdvancedFilters(ctx context.Context) bool {
	return e.hasFeature(ctx, plan.FeatureAdvancedFilters)
}

// CanAccessAdvancedAnalytics reports access to diary statistics.
func (e *Entitlements) CanAccessAdvancedAnalytics(ctx context.Context) bool {
	return e.hasFeature(ctx, plan.FeatureAdvancedAnalytics)
}

// CanAccessPrioritySupport reports access to priority support.
func (e *Entitlements) CanAccessPrioritySupport(ctx context.Context) bool {
	return e.hasFeature(ctx, plan.FeaturePrioritySupport)
}

// CanExportData reports access to diary export.
func (e *Entitlements) CanExportData(ctx context.Context) bool {
	return e.hasFeature(ctx, plan.FeatureDataExport)
}

func (e *Entitlements) hasFeature(ctx context.Context, f plan.Feature) bool {
	status, p, ok := e.validPlan(ctx)
	return ok && status.IsValidAt(e.now()) && p.HasFeature(f)
}

func (e *Entitlements) validPlan(ctx context.Context) (Status, plan.Plan, bool) {
	// Storage being unavailable still yields the last-known status, which
	// keeps entitlements working offline.
	status, err := e.store.Current(ctx)
	if err != nil && !errors.Is(err, ErrStorageUnavailable) {
		return Status{}, plan.Plan{}, false
	}
	p, err := e.plans.Get(status.PlanID)
	if err != nil {
		return Status{}, plan.Plan{}, false
	}
	return status, p, true
}
