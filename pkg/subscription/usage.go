package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// UsageTracker counts AI-generation calls against the active plan's monthly
// quota and resets the counter on calendar-month rollover.
//
// The contract with the AI generation service is an explicit two-step
// protocol: call CanUseAIGeneration before generating, then IncrementAIUsage
// after the generation actually succeeded. The check is advisory — the
// increment does not re-enforce the quota — because generation is a slow
// external call and the counter must reflect completed work, not intent.
// Increments and rollover resets go through Store.Mutate, sharing one
// critical section with the reconciliation engine's mutations, so a
// concurrent cancel or purchase can never clobber the counter and vice
// versa.
type UsageTracker struct {
	store *Store
	plans *plan.Registry
	now   func() time.Time
}

// UsageTrackerOption configures a UsageTracker.
type UsageTrackerOption func(*UsageTracker)

// WithUsageClock overrides the wall clock, for tests.
func WithUsageClock(now func() time.Time) UsageTrackerOption {
	return func(t *UsageTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewUsageTracker creates a tracker over the given store and plan registry.
// Panics if either dependency is nil.
func NewUsageTracker(store *Store, plans *plan.Registry, opts ...UsageTrackerOption) *UsageTracker {
	if store == nil {
		panic("subscription: Store is required")
	}
	if plans == nil {
		panic("subscription: plan.Registry is required")
	}

	t := &UsageTracker{
		store: store,
		plans: plans,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CanUseAIGeneration reports whether another generation is allowed this
// period: the status is active and the counter is under the plan limit.
// Returns false on any lookup error to fail closed.
func (t *UsageTracker) CanUseAIGeneration(ctx context.Context) bool {
	status, err := t.currentWithRollover(ctx)
	if err != nil {
		return false
	}
	p, err := t.plans.Get(status.PlanID)
	if err != nil {
		return false
	}
	return status.IsActive && status.MonthlyUsage < p.MonthlyAILimit
}

// IncrementAIUsage records one completed generation. It must be called only
// after a successful generation; it never rejects on quota — the gate is
// CanUseAIGeneration. The rollover check and the increment are applied in
// one atomic mutation.
func (t *UsageTracker) IncrementAIUsage(ctx context.Context) error {
	_, err := t.store.Mutate(ctx, func(s *Status) bool {
		t.rollover(s)
		s.MonthlyUsage++
		return true
	})
	return err
}

// MonthlyUsage returns the number of generations consumed this period.
func (t *UsageTracker) MonthlyUsage(ctx context.Context) int {
	status, err := t.currentWithRollover(ctx)
	if err != nil {
		return 0
	}
	return status.MonthlyUsage
}

// RemainingGenerations returns how many generations are left this period,
// never negative. A downgrade mid-period can leave usage above the new
// plan's limit; the remainder is then zero until rollover.
func (t *UsageTracker) RemainingGenerations(ctx context.Context) int {
	status, err := t.currentWithRollover(ctx)
	if err != nil {
		return 0
	}
	p, err := t.plans.Get(status.PlanID)
	if err != nil {
		return 0
	}
	return max(0, p.MonthlyAILimit-status.MonthlyUsage)
}

// ResetMonthlyUsageIfNeeded zeroes the counter when the wall-clock month
// differs from the one the counter was last reset in. Safe to call
// redundantly; within one month only the first effective reset does
// anything. Plan changes never reset usage, only rollover does.
func (t *UsageTracker) ResetMonthlyUsageIfNeeded(ctx context.Context) error {
	_, err := t.currentWithRollover(ctx)
	return err
}

// NextResetAt returns the first day of the month following the current
// usage period.
func (t *UsageTracker) NextResetAt(ctx context.Context) time.Time {
	status, err := t.currentWithRollover(ctx)
	if err != nil {
		return firstOfMonth(t.now()).AddDate(0, 1, 0)
	}
	return firstOfMonth(status.LastResetAt).AddDate(0, 1, 0)
}

// currentWithRollover reads the current status and applies the month
// rollover opportunistically, committing the reset when one happens.
func (t *UsageTracker) currentWithRollover(ctx context.Context) (Status, error) {
	status, err := t.store.Current(ctx)
	if err != nil && !errors.Is(err, ErrStorageUnavailable) {
		return status, err
	}
	// ErrStorageUnavailable is non-fatal: the returned value is the
	// last-known status and stays usable for quota decisions.

	if !status.needsUsageReset(t.now()) {
		return status, nil
	}
	return t.store.Mutate(ctx, func(s *Status) bool {
		return t.rollover(s)
	})
}

// rollover zeroes the counter when the month changed since the last reset.
// Reports whether it changed anything.
func (t *UsageTracker) rollover(s *Status) bool {
	now := t.now()
	if !s.needsUsageReset(now) {
		return false
	}
	s.MonthlyUsage = 0
	s.LastResetAt = firstOfMonth(now)
	return true
}
