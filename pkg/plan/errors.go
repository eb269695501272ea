package plan

import "errors"

var (
	ErrPlanNotFound     = errors.New("subscription plan not found")
	ErrUnknownProduct   = errors.New("no plan matches storefront product")
	ErrNoPlans          = errors.New("at least one plan is required")
	ErrInvalidPlan      = errors.New("invalid plan configuration")
	ErrFailedToLoad     = errors.New("failed to load plan catalog")
	ErrDuplicatePlanID  = errors.New("duplicate plan id in catalog")
	ErrMissingBasicPlan = errors.New("plan catalog must include the basic plan")
)
