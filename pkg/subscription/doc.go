// Package subscription implements the subscription and entitlement core of
// the photo diary app: the single mutable subscription status, the monthly
// AI-generation quota, purchase reconciliation against a storefront, and
// the capability gate the rest of the app queries.
//
// # Architecture
//
//   - Store: owns the singleton Status, persists it through a pluggable
//     Storage backend (memory, Redis, Postgres), and publishes every
//     committed change on the status stream.
//   - UsageTracker: counts AI generations against the plan's monthly quota
//     with calendar-month resets.
//   - Service: the purchase reconciliation engine — purchases, restores,
//     cancellation, transaction de-duplication, and server-side storefront
//     webhook application.
//   - Entitlements: read-only capability queries composed from the store,
//     the tracker, and the plan registry.
//   - Events: broadcast streams of status changes and purchase results for
//     UI observers. No replay: late subscribers see only later events.
//
// # Quick start
//
//	plans := plan.MustNewRegistry()
//	events := subscription.NewEvents(8)
//	store := subscription.NewStore(subscription.NewMemoryStorage(), events)
//	tracker := subscription.NewUsageTracker(store, plans)
//	gate := subscription.NewEntitlements(store, tracker, plans)
//	svc := subscription.NewService(plans, store, front, events)
//
//	if gate.CanUseAIGeneration(ctx) {
//		// run the generation, then:
//		_ = tracker.IncrementAIUsage(ctx)
//	}
//
//	result, err := svc.Purchase(ctx, plan.PremiumMonthly)
//	if err != nil {
//		// precondition violation: unknown plan, Basic, or purchase in flight
//	} else if result.Status == subscription.PurchaseStatusError {
//		// storefront decline: surface result.ErrorMessage
//	}
//
// # Failure semantics
//
// Storefront-level outcomes (declines, user cancellation) are successful
// deliveries of a failure-status PurchaseResult, not errors — "the engine
// failed" and "the purchase failed" stay distinct. Persistence failures
// are tagged ErrStorageUnavailable and degrade gracefully: reads and
// entitlement checks keep working against the last-known in-memory status.
package subscription
