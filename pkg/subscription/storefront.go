package subscription

import "context"

// Storefront is the platform billing boundary: the App Store, Play Store,
// or a hosted billing provider. The reconciliation engine treats it as an
// opaque async collaborator; all cryptographic receipt validation happens
// behind this interface.
type Storefront interface {
	// FetchProducts returns the purchasable catalog entries.
	// Basic has no product and never appears here.
	FetchProducts(ctx context.Context) ([]Product, error)

	// InitiatePurchase starts a purchase for the given SKU and reports the
	// outcome. User declines and payment failures are reported in the
	// result's Status, not as errors; errors mean the storefront itself
	// could not be reached.
	InitiatePurchase(ctx context.Context, productID string) (PurchaseResult, error)

	// FetchPurchaseHistory returns the user's prior purchase records for
	// restore. Implementations without a restore concept return
	// ErrRestoreUnsupported.
	FetchPurchaseHistory(ctx context.Context) ([]PurchaseResult, error)
}
