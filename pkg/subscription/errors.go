package subscription

import "errors"

var (
	ErrNotInitialized      = errors.New("subscription store is not initialized")
	ErrStatusNotFound      = errors.New("subscription status not found")
	ErrStorageUnavailable  = errors.New("subscription storage unavailable")
	ErrPlanNotPurchasable  = errors.New("plan cannot be purchased")
	ErrPurchaseInProgress  = errors.New("another purchase is already in progress")
	ErrStorefrontFailed    = errors.New("storefront request failed")
	ErrRestoreUnsupported  = errors.New("purchase restore not supported by storefront")
	ErrUnknownTransaction  = errors.New("transaction does not match current subscription")
	ErrInvalidAttemptState = errors.New("invalid purchase attempt transition")
	ErrWebhookVerification = errors.New("storefront webhook verification failed")
	ErrMalformedWebhook    = errors.New("malformed storefront webhook payload")
)
