package plan

import (
	"context"
	"errors"
	"fmt"
)

// Registry is an immutable lookup table over the closed plan set.
// It is safe for concurrent use after construction.
type Registry struct {
	plans map[ID]Plan
	order []ID
}

// NewRegistry loads plans from the given source and validates them.
// Panics if src is nil to fail fast during initialization.
func NewRegistry(ctx context.Context, src Source) (*Registry, error) {
	if src == nil {
		panic("plan: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	if len(plans) == 0 {
		return nil, ErrNoPlans
	}

	r := &Registry{
		plans: make(map[ID]Plan, len(plans)),
		order: make([]ID, 0, len(plans)),
	}
	for _, p := range plans {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, exists := r.plans[p.ID]; exists {
			return nil, errors.Join(ErrDuplicatePlanID, fmt.Errorf("plan %q", p.ID))
		}
		r.plans[p.ID] = clone(p)
		r.order = append(r.order, p.ID)
	}

	if _, exists := r.plans[Basic]; !exists {
		return nil, ErrMissingBasicPlan
	}

	return r, nil
}

// MustNewRegistry is NewRegistry with the compiled-in default catalog.
// Panics on validation failure, which cannot happen for the defaults.
func MustNewRegistry() *Registry {
	r, err := NewRegistry(context.Background(), NewMemorySource(Defaults()...))
	if err != nil {
		panic(fmt.Sprintf("plan: failed to build default registry: %v", err))
	}
	return r
}

// Get returns the plan for the given id.
func (r *Registry) Get(id ID) (Plan, error) {
	p, exists := r.plans[id]
	if !exists {
		return Plan{}, errors.Join(ErrPlanNotFound, fmt.Errorf("plan %q", id))
	}
	return clone(p), nil
}

// Available returns all plans in catalog order.
func (r *Registry) Available() []Plan {
	out := make([]Plan, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.plans[id]))
	}
	return out
}

// Purchasable returns the plans that have a storefront product, in catalog order.
func (r *Registry) Purchasable() []Plan {
	out := make([]Plan, 0, len(r.order))
	for _, id := range r.order {
		if p := r.plans[id]; p.ProductID != "" {
			out = append(out, clone(p))
		}
	}
	return out
}

// ByProductID resolves a storefront SKU back to its plan.
// Used during purchase reconciliation when only the product id is known.
func (r *Registry) ByProductID(productID string) (Plan, error) {
	if productID == "" {
		return Plan{}, ErrUnknownProduct
	}
	for _, p := range r.plans {
		if p.ProductID == productID {
			return clone(p), nil
		}
	}
	return Plan{}, errors.Join(ErrUnknownProduct, fmt.Errorf("product %q", productID))
}

func validate(p Plan) error {
	if !p.ID.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("unknown plan id %q", p.ID))
	}
	if p.MonthlyAILimit < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has negative AI limit %d", p.ID, p.MonthlyAILimit))
	}
	if p.IsPremium() && p.ProductID == "" {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("premium plan %q has no product id", p.ID))
	}
	if !p.IsPremium() && p.ProductID != "" {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("free plan %q must not have a product id", p.ID))
	}
	return nil
}

func clone(p Plan) Plan {
	cp := p
	if p.Features != nil {
		cp.Features = append([]Feature(nil), p.Features...)
	}
	return cp
}
