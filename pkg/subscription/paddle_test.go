package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

func TestMapPaddleEventType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StorefrontEventPurchaseCompleted, mapPaddleEventType("transaction.completed"))
	assert.Equal(t, StorefrontEventPurchaseCompleted, mapPaddleEventType("transaction.payment_succeeded"))
	assert.Equal(t, StorefrontEventSubscriptionCancelled, mapPaddleEventType("subscription.canceled"))
	assert.Equal(t, StorefrontEventPaymentFailed, mapPaddleEventType("transaction.payment_failed"))

	// Unknown events pass through verbatim so the engine can log them.
	assert.Equal(t, StorefrontEventType("subscription.updated"), mapPaddleEventType("subscription.updated"))
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$4.99", formatPrice(plan.Money{Amount: 499, Currency: "USD"}))
	assert.Equal(t, "$39.99", formatPrice(plan.Money{Amount: 3999, Currency: "USD"}))
	assert.Equal(t, "€10.00", formatPrice(plan.Money{Amount: 1000, Currency: "EUR"}))
	assert.Equal(t, "12.50 GBP", formatPrice(plan.Money{Amount: 1250, Currency: "GBP"}))
}
