package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// PaddleConfig holds configuration for the Paddle storefront gateway.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleStorefront implements Storefront against Paddle Billing for
// server-side deployments.
//
// The catalog is mirrored from the plan registry rather than fetched per
// call: plan ProductIDs are Paddle price IDs managed in the dashboard, and
// rendering the paywall must not depend on a network round-trip.
//
// Purchases through Paddle settle asynchronously: InitiatePurchase creates
// a transaction and reports it pending; the purchase completes when the
// transaction.completed webhook arrives and is fed to
// Service.ApplyStorefrontEvent. Restore is an app-store concept with no
// Paddle equivalent — history is reconciled through webhooks instead.
type PaddleStorefront struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	plans    *plan.Registry
}

// NewPaddleStorefront creates the gateway. Panics if plans is nil.
func NewPaddleStorefront(cfg PaddleConfig, plans *plan.Registry) (*PaddleStorefront, error) {
	if plans == nil {
		panic("subscription: plan.Registry is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleStorefront{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		plans:    plans,
	}, nil
}

// FetchProducts returns the purchasable catalog derived from the registry.
func (p *PaddleStorefront) FetchProducts(_ context.Context) ([]Product, error) {
	purchasable := p.plans.Purchasable()
	out := make([]Product, 0, len(purchasable))
	for _, pl := range purchasable {
		out = append(out, Product{
			ID:             pl.ProductID,
			Title:          pl.DisplayName,
			Description:    pl.Description,
			FormattedPrice: formatPrice(pl.Price),
			Price:          pl.Price,
			PlanID:         pl.ID,
		})
	}
	return out, nil
}

// InitiatePurchase creates a Paddle transaction for the given price ID and
// reports it pending. The checkout completes out of band.
func (p *PaddleStorefront) InitiatePurchase(ctx context.Context, productID string) (PurchaseResult, error) {
	if productID == "" {
		return PurchaseResult{}, errors.New("product id is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  productID,
		Quantity: 1,
	})

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"product_id": productID,
		},
	})
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	now := time.Now().UTC()
	return PurchaseResult{
		Status:        PurchaseStatusPending,
		ProductID:     productID,
		TransactionID: transaction.ID,
		PurchaseDate:  &now,
	}, nil
}

// FetchPurchaseHistory reports restore as unsupported: Paddle deployments
// reconcile completed purchases through webhooks.
func (p *PaddleStorefront) FetchPurchaseHistory(_ context.Context) ([]PurchaseResult, error) {
	return nil, ErrRestoreUnsupported
}

// ParseWebhook verifies a Paddle webhook signature and normalizes the
// payload into a StorefrontEvent for Service.ApplyStorefrontEvent.
func (p *PaddleStorefront) ParseWebhook(ctx context.Context, payload []byte, signature string) (*StorefrontEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}
	if !valid {
		return nil, ErrWebhookVerification
	}

	var raw struct {
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrMalformedWebhook, err)
	}

	ev := &StorefrontEvent{
		Type:          mapPaddleEventType(raw.EventType),
		ProviderEvent: raw.EventType,
	}
	if t, err := time.Parse(time.RFC3339, raw.OccurredAt); err == nil {
		ev.OccurredAt = t
	}

	if id, ok := raw.Data["id"].(string); ok {
		ev.TransactionID = id
	}
	if custom, ok := raw.Data["custom_data"].(map[string]any); ok {
		if productID, ok := custom["product_id"].(string); ok {
			ev.ProductID = productID
		}
	}
	// Fall back to the first line item's price id when custom data is absent.
	if ev.ProductID == "" {
		if items, ok := raw.Data["items"].([]any); ok && len(items) > 0 {
			if item, ok := items[0].(map[string]any); ok {
				if price, ok := item["price"].(map[string]any); ok {
					if priceID, ok := price["id"].(string); ok {
						ev.ProductID = priceID
					}
				}
			}
		}
	}

	return ev, nil
}

func mapPaddleEventType(event string) StorefrontEventType {
	switch event {
	case "transaction.completed", "transaction.payment_succeeded":
		return StorefrontEventPurchaseCompleted
	case "subscription.canceled":
		return StorefrontEventSubscriptionCancelled
	case "transaction.payment_failed":
		return StorefrontEventPaymentFailed
	default:
		return StorefrontEventType(event)
	}
}

func formatPrice(m plan.Money) string {
	amount := fmt.Sprintf("%d.%02d", m.Amount/100, m.Amount%100)
	switch m.Currency {
	case "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	default:
		return amount + " " + m.Currency
	}
}
