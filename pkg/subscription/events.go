package subscription

import (
	"context"

	"github.com/dmitrymomot/snapdiary/pkg/broadcast"
)

// Events carries the two broadcast streams UI observers subscribe to:
// committed status changes and purchase results (including errors and
// cancellations).
//
// Subscribers receive only events emitted after they subscribe; neither
// stream replays history. Screens needing an initial value read the store
// directly before subscribing.
type Events struct {
	status    *broadcast.Broadcaster[Status]
	purchases *broadcast.Broadcaster[PurchaseResult]
}

// NewEvents returns an event bus whose subscriber channels buffer up to
// buffer events each.
func NewEvents(buffer int) *Events {
	return &Events{
		status:    broadcast.New[Status](buffer),
		purchases: broadcast.New[PurchaseResult](buffer),
	}
}

// SubscribeStatus returns a channel of committed status changes.
func (e *Events) SubscribeStatus(ctx context.Context) <-chan Status {
	return e.status.Subscribe(ctx)
}

// SubscribePurchases returns a channel of purchase results.
func (e *Events) SubscribePurchases(ctx context.Context) <-chan PurchaseResult {
	return e.purchases.Subscribe(ctx)
}

// Close shuts both streams down.
func (e *Events) Close() {
	e.status.Close()
	e.purchases.Close()
}

func (e *Events) publishStatus(s Status) {
	e.status.Publish(s)
}

func (e *Events) publishPurchase(r PurchaseResult) {
	e.purchases.Publish(r)
}
