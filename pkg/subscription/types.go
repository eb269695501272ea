package subscription

import (
	"time"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// PurchaseStatus represents the outcome of a single purchase or restore attempt.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusPurchased PurchaseStatus = "purchased"
	PurchaseStatusRestored  PurchaseStatus = "restored"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	PurchaseStatusError     PurchaseStatus = "error"
)

// PurchaseResult is the event value describing one storefront outcome.
// Results are broadcast on the purchase stream and kept in the engine's
// history for de-duplication; they are not persisted.
type PurchaseResult struct {
	Status        PurchaseStatus `json:"status"`
	ProductID     string         `json:"product_id"`
	TransactionID string         `json:"transaction_id,omitempty"`
	PurchaseDate  *time.Time     `json:"purchase_date,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Product is a read-only storefront catalog entry offered for purchase.
type Product struct {
	ID             string     `json:"id"` // storefront SKU
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	FormattedPrice string     `json:"formatted_price"`
	Price          plan.Money `json:"price"`
	PlanID         plan.ID    `json:"plan_id"`
}

// StorefrontEventType is the normalized server-side storefront notification type.
type StorefrontEventType string

const (
	StorefrontEventPurchaseCompleted     StorefrontEventType = "purchase_completed"
	StorefrontEventSubscriptionCancelled StorefrontEventType = "subscription_cancelled"
	StorefrontEventPaymentFailed         StorefrontEventType = "payment_failed"
)

// StorefrontEvent is a verified, normalized storefront webhook notification.
// Redeliveries carry the same TransactionID and must reconcile to a no-op.
type StorefrontEvent struct {
	Type          StorefrontEventType
	ProviderEvent string // original provider event name
	TransactionID string
	ProductID     string
	OccurredAt    time.Time
}
