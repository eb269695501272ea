package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// Status is the single mutable subscription record for a user.
// Exactly one Status exists at a time; it is owned by the Store and every
// other component reads and mutates it through the Store.
type Status struct {
	PlanID         plan.ID    `json:"plan_id"`
	IsActive       bool       `json:"is_active"`
	StartDate      time.Time  `json:"start_date"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"` // nil for Basic
	AutoRenew      bool       `json:"auto_renew"`
	MonthlyUsage   int        `json:"monthly_usage"`
	LastResetAt    time.Time  `json:"last_reset_at"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	LastPurchaseAt *time.Time `json:"last_purchase_at,omitempty"`
}

// DefaultStatus returns the fresh-install status: Basic, active, no expiry.
func DefaultStatus(now time.Time) Status {
	return Status{
		PlanID:      plan.Basic,
		IsActive:    true,
		StartDate:   now,
		LastResetAt: firstOfMonth(now),
	}
}

// NewStatusFor builds a fresh status for a plan purchased (or defaulted) at now.
// Premium plans get a generated transaction id; Basic gets none.
func NewStatusFor(p plan.Plan, now time.Time) Status {
	s := Status{
		PlanID:      p.ID,
		IsActive:    true,
		StartDate:   now,
		ExpiresAt:   p.ExpiryFrom(now),
		AutoRenew:   p.IsPremium(),
		LastResetAt: firstOfMonth(now),
	}
	if p.IsPremium() {
		s.TransactionID = uuid.NewString()
		s.LastPurchaseAt = &now
	}
	return s
}

// IsValidAt reports whether the plan's entitlements apply at the given time.
// Basic is valid while active; a premium plan additionally needs an expiry
// in the future.
func (s Status) IsValidAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.PlanID == plan.Basic {
		return true
	}
	return s.ExpiresAt != nil && now.Before(*s.ExpiresAt)
}

// IsValid reports validity against the wall clock.
func (s Status) IsValid() bool {
	return s.IsValidAt(time.Now().UTC())
}

// IsExpiredAt reports whether a premium entitlement has lapsed.
// Basic never expires.
func (s Status) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// needsUsageReset reports whether the calendar month changed since the last
// reset. The comparison is by year and month, not elapsed days.
func (s Status) needsUsageReset(now time.Time) bool {
	return s.LastResetAt.Year() != now.Year() || s.LastResetAt.Month() != now.Month()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
