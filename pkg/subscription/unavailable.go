package subscription

import (
	"context"
	"errors"
)

// UnavailableStorefront is a Storefront for deployments without a billing
// gateway: the catalog is empty, purchases fail with ErrStorefrontFailed,
// and restore is unsupported. Webhook reconciliation through
// Service.ApplyStorefrontEvent keeps working.
type UnavailableStorefront struct{}

// NewUnavailableStorefront returns the gateway-less storefront.
func NewUnavailableStorefront() *UnavailableStorefront {
	return &UnavailableStorefront{}
}

func (*UnavailableStorefront) FetchProducts(context.Context) ([]Product, error) {
	return nil, nil
}

func (*UnavailableStorefront) InitiatePurchase(context.Context, string) (PurchaseResult, error) {
	return PurchaseResult{}, errors.Join(ErrStorefrontFailed, errors.New("no storefront configured"))
}

func (*UnavailableStorefront) FetchPurchaseHistory(context.Context) ([]PurchaseResult, error) {
	return nil, ErrRestoreUnsupported
}
