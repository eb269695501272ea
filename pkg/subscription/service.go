package subscription

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// Service is the purchase reconciliation engine. It consumes purchase and
// restore events from the storefront, transitions the subscription status,
// de-duplicates redelivered transactions, and publishes results on the
// purchase stream.
//
// At most one purchase transitions status at a time; restore, cancel, and
// webhook reconciliation share the same status-mutation critical section.
// Mutators re-read the current status inside that section before computing
// their delta, so concurrent usage increments are never clobbered.
type Service struct {
	plans  *plan.Registry
	store  *Store
	front  Storefront
	events *Events
	log    *slog.Logger
	now    func() time.Time

	attempt *attemptFSM

	// mu is the status-mutation critical section shared by purchase,
	// restore, cancel, and webhook application.
	mu      sync.Mutex
	applied map[string]PurchaseResult // by transaction id
	order   []string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the reconciliation engine.
// Panics if any required dependency is nil to fail fast during initialization.
func NewService(plans *plan.Registry, store *Store, front Storefront, events *Events, opts ...ServiceOption) *Service {
	if plans == nil {
		panic("subscription: plan.Registry is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if front == nil {
		panic("subscription: Storefront is required")
	}
	if events == nil {
		panic("subscription: Events is required")
	}

	s := &Service{
		plans:   plans,
		store:   store,
		front:   front,
		events:  events,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
		attempt: newAttemptFSM(),
		applied: make(map[string]PurchaseResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Products returns the purchasable storefront catalog, with each entry
// resolved to its plan. Entries whose SKU is unknown to the registry are
// skipped. Basic never appears: it has no product.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	items, err := s.front.FetchProducts(ctx)
	if err != nil {
		return nil, errors.Join(ErrStorefrontFailed, err)
	}

	out := make([]Product, 0, len(items))
	for _, item := range items {
		p, err := s.plans.ByProductID(item.ID)
		if err != nil {
			s.log.WarnContext(ctx, "storefront product has no matching plan", "product_id", item.ID)
			continue
		}
		item.PlanID = p.ID
		out = append(out, item)
	}
	return out, nil
}

// Purchase buys the given plan through the storefront.
//
// Precondition failures (unknown plan, Basic, a purchase already in flight)
// are returned as errors. Storefront-level outcomes — declines, user
// cancellation — are NOT errors: they come back as the PurchaseResult's
// Status with a nil error, and callers must branch on result.Status.
func (s *Service) Purchase(ctx context.Context, id plan.ID) (PurchaseResult, error) {
	p, err := s.plans.Get(id)
	if err != nil {
		return PurchaseResult{}, err
	}
	if !p.IsPremium() {
		return PurchaseResult{}, errors.Join(ErrPlanNotPurchasable,
			errors.New("basic is the default plan and cannot be bought"))
	}

	if err := s.attempt.begin(); err != nil {
		return PurchaseResult{}, err
	}
	// The attempt always returns to idle, whatever path the purchase takes.
	defer s.attempt.release()

	result, err := s.front.InitiatePurchase(ctx, p.ProductID)
	if err != nil {
		result = PurchaseResult{
			Status:       PurchaseStatusError,
			ProductID:    p.ProductID,
			ErrorMessage: err.Error(),
		}
		_ = s.attempt.to(AttemptFailed)
		s.events.publishPurchase(result)
		return result, nil
	}
	if result.ProductID == "" {
		result.ProductID = p.ProductID
	}

	switch result.Status {
	case PurchaseStatusPurchased:
		if result.TransactionID == "" {
			result.TransactionID = uuid.NewString()
		}
		if result.PurchaseDate == nil {
			now := s.now()
			result.PurchaseDate = &now
		}

		_ = s.attempt.to(AttemptPurchased)

		s.mu.Lock()
		defer s.mu.Unlock()

		// A redelivered transaction must not re-apply entitlements or
		// emit a second event.
		if prior, seen := s.applied[result.TransactionID]; seen {
			return prior, nil
		}
		if err := s.applyPurchase(ctx, p, result); err != nil && !errors.Is(err, ErrStorageUnavailable) {
			return PurchaseResult{}, err
		}
		s.record(result)
		s.events.publishPurchase(result)
		return result, nil

	case PurchaseStatusCancelled:
		// User backed out before storefront confirmation: no status change.
		_ = s.attempt.to(AttemptCancelled)
		s.events.publishPurchase(result)
		return result, nil

	case PurchaseStatusPending:
		// Checkout continues out of band; a storefront notification will
		// settle it through ApplyStorefrontEvent.
		s.events.publishPurchase(result)
		return result, nil

	default:
		_ = s.attempt.to(AttemptFailed)
		s.events.publishPurchase(result)
		return result, nil
	}
}

// Restore re-applies prior purchases reported by the storefront. It is
// idempotent: transactions already applied are skipped, so calling twice
// leaves status and history identical to calling once. The full normalized
// history is returned either way.
func (s *Service) Restore(ctx context.Context) ([]PurchaseResult, error) {
	records, err := s.front.FetchPurchaseHistory(ctx)
	if err != nil {
		if errors.Is(err, ErrRestoreUnsupported) {
			return nil, err
		}
		return nil, errors.Join(ErrStorefrontFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PurchaseResult, 0, len(records))
	for _, rec := range records {
		if rec.TransactionID == "" {
			s.log.WarnContext(ctx, "skipping purchase record without transaction id", "product_id", rec.ProductID)
			continue
		}
		rec.Status = PurchaseStatusRestored

		if prior, seen := s.applied[rec.TransactionID]; seen {
			out = append(out, prior)
			continue
		}

		p, err := s.plans.ByProductID(rec.ProductID)
		if err != nil {
			s.log.WarnContext(ctx, "purchase record has no matching plan", "product_id", rec.ProductID)
			continue
		}

		if err := s.applyPurchase(ctx, p, rec); err != nil && !errors.Is(err, ErrStorageUnavailable) {
			return out, err
		}
		s.record(rec)
		s.events.publishPurchase(rec)
		out = append(out, rec)
	}
	return out, nil
}

// Cancel turns auto-renewal off. Access persists until the expiry date;
// nothing is revoked immediately. On Basic there is nothing to cancel and
// the call succeeds trivially.
func (s *Service) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	_, err := s.store.Mutate(ctx, func(status *Status) bool {
		if status.PlanID == plan.Basic || !status.AutoRenew {
			return false
		}
		status.AutoRenew = false
		changed = true
		return true
	})
	if !changed && errors.Is(err, ErrStorageUnavailable) {
		// Nothing to cancel; on Basic the call succeeds even offline.
		return nil
	}
	return err
}

// ChangePlan migrates to another paid plan. Storefronts expose no portable
// proration API, so this is cancel-then-purchase: auto-renewal of the old
// plan is switched off and the new plan is bought immediately.
func (s *Service) ChangePlan(ctx context.Context, id plan.ID) (PurchaseResult, error) {
	p, err := s.plans.Get(id)
	if err != nil {
		return PurchaseResult{}, err
	}
	if !p.IsPremium() {
		return PurchaseResult{}, errors.Join(ErrPlanNotPurchasable,
			errors.New("downgrade to basic happens by letting premium expire"))
	}

	if err := s.Cancel(ctx); err != nil {
		return PurchaseResult{}, err
	}
	return s.Purchase(ctx, id)
}

// ValidatePurchase reports whether the given transaction still backs the
// current entitlement: it matches the status's transaction id, the status
// is active, and any expiry lies in the future. Used to detect stale or
// revoked entitlements.
func (s *Service) ValidatePurchase(ctx context.Context, transactionID string) bool {
	if transactionID == "" {
		return false
	}
	status, err := s.store.Current(ctx)
	if err != nil && !errors.Is(err, ErrStorageUnavailable) {
		return false
	}
	if status.TransactionID != transactionID || !status.IsActive {
		return false
	}
	if status.ExpiresAt != nil && !s.now().Before(*status.ExpiresAt) {
		return false
	}
	return true
}

// ApplyStorefrontEvent reconciles a verified server-side storefront
// notification. Redelivered purchase notifications (same transaction id)
// are no-ops.
func (s *Service) ApplyStorefrontEvent(ctx context.Context, ev StorefrontEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case StorefrontEventPurchaseCompleted:
		if ev.TransactionID == "" {
			return errors.Join(ErrMalformedWebhook, errors.New("missing transaction id"))
		}
		if _, seen := s.applied[ev.TransactionID]; seen {
			return nil
		}

		p, err := s.plans.ByProductID(ev.ProductID)
		if err != nil {
			return err
		}

		occurred := ev.OccurredAt
		if occurred.IsZero() {
			occurred = s.now()
		}
		result := PurchaseResult{
			Status:        PurchaseStatusPurchased,
			ProductID:     ev.ProductID,
			TransactionID: ev.TransactionID,
			PurchaseDate:  &occurred,
		}
		if err := s.applyPurchase(ctx, p, result); err != nil && !errors.Is(err, ErrStorageUnavailable) {
			return err
		}
		s.record(result)
		s.events.publishPurchase(result)
		return nil

	case StorefrontEventSubscriptionCancelled:
		_, err := s.store.Mutate(ctx, func(status *Status) bool {
			if status.PlanID == plan.Basic || !status.AutoRenew {
				return false
			}
			status.AutoRenew = false
			return true
		})
		return err

	case StorefrontEventPaymentFailed:
		// Renewal failed: entitlement lapses at expiry, nothing to change
		// now. Surface the event so the UI can warn.
		s.events.publishPurchase(PurchaseResult{
			Status:        PurchaseStatusError,
			ProductID:     ev.ProductID,
			TransactionID: ev.TransactionID,
			ErrorMessage:  "storefront reported a failed renewal payment",
		})
		return nil

	default:
		s.log.InfoContext(ctx, "ignoring unhandled storefront event", "event", ev.ProviderEvent)
		return nil
	}
}

// RefreshEntitlements deactivates a lapsed premium status. Called
// opportunistically on app resume; redundant calls are no-ops.
func (s *Service) RefreshEntitlements(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.Mutate(ctx, func(status *Status) bool {
		if !status.IsActive || !status.IsExpiredAt(s.now()) {
			return false
		}
		status.IsActive = false
		status.AutoRenew = false
		return true
	})
	return err
}

// History returns the purchase results applied so far, oldest first.
func (s *Service) History() []PurchaseResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PurchaseResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.applied[id])
	}
	return out
}

// applyPurchase transitions the subscription status for a purchase or
// restore. The caller must hold s.mu. The transition runs as one atomic
// mutation over the current status so the usage counter and reset date
// survive it even against a concurrent increment: usage resets only on
// natural month rollover, never on purchase.
func (s *Service) applyPurchase(ctx context.Context, p plan.Plan, result PurchaseResult) error {
	purchasedAt := s.now()
	if result.PurchaseDate != nil {
		purchasedAt = *result.PurchaseDate
	}
	expiresAt := p.ExpiryFrom(purchasedAt)

	// A restored purchase whose period already lapsed grants nothing.
	if result.Status == PurchaseStatusRestored && expiresAt != nil && !s.now().Before(*expiresAt) {
		return nil
	}

	_, err := s.store.Mutate(ctx, func(current *Status) bool {
		*current = Status{
			PlanID:         p.ID,
			IsActive:       true,
			StartDate:      purchasedAt,
			ExpiresAt:      expiresAt,
			AutoRenew:      true,
			MonthlyUsage:   current.MonthlyUsage,
			LastResetAt:    current.LastResetAt,
			TransactionID:  result.TransactionID,
			LastPurchaseAt: result.PurchaseDate,
		}
		return true
	})
	return err
}

func (s *Service) record(result PurchaseResult) {
	s.applied[result.TransactionID] = result
	s.order = append(s.order, result.TransactionID)
}
