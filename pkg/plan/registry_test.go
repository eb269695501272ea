package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()

	p, err := reg.Get(plan.PremiumMonthly)
	require.NoError(t, err)
	assert.Equal(t, plan.PremiumMonthly, p.ID)

	_, err = reg.Get(plan.ID("nonexistent"))
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestRegistry_Available(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()

	plans := reg.Available()
	require.Len(t, plans, 3)
	assert.Equal(t, plan.Basic, plans[0].ID)
	assert.Equal(t, plan.PremiumMonthly, plans[1].ID)
	assert.Equal(t, plan.PremiumYearly, plans[2].ID)
}

func TestRegistry_Purchasable_ExcludesBasic(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()

	for _, p := range reg.Purchasable() {
		assert.NotEqual(t, plan.Basic, p.ID)
		assert.NotEmpty(t, p.ProductID)
	}
	assert.Len(t, reg.Purchasable(), 2)
}

func TestRegistry_ByProductID(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()
	monthly, _ := reg.Get(plan.PremiumMonthly)

	p, err := reg.ByProductID(monthly.ProductID)
	require.NoError(t, err)
	assert.Equal(t, plan.PremiumMonthly, p.ID)

	_, err = reg.ByProductID("sku_unknown")
	assert.ErrorIs(t, err, plan.ErrUnknownProduct)

	_, err = reg.ByProductID("")
	assert.ErrorIs(t, err, plan.ErrUnknownProduct)
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects empty catalog", func(t *testing.T) {
		t.Parallel()
		_, err := plan.NewRegistry(ctx, plan.NewMemorySource())
		assert.ErrorIs(t, err, plan.ErrNoPlans)
	})

	t.Run("rejects unknown plan id", func(t *testing.T) {
		t.Parallel()
		bad := plan.Plan{ID: plan.ID("gold"), Interval: plan.BillingIntervalNone}
		_, err := plan.NewRegistry(ctx, plan.NewMemorySource(bad))
		assert.ErrorIs(t, err, plan.ErrInvalidPlan)
	})

	t.Run("rejects premium plan without product id", func(t *testing.T) {
		t.Parallel()
		bad := plan.Plan{ID: plan.PremiumMonthly, Interval: plan.BillingIntervalMonthly}
		_, err := plan.NewRegistry(ctx, plan.NewMemorySource(bad))
		assert.ErrorIs(t, err, plan.ErrInvalidPlan)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		t.Parallel()
		defaults := plan.Defaults()
		_, err := plan.NewRegistry(ctx, plan.NewMemorySource(append(defaults, defaults[0])...))
		assert.ErrorIs(t, err, plan.ErrDuplicatePlanID)
	})

	t.Run("rejects catalog without basic", func(t *testing.T) {
		t.Parallel()
		defaults := plan.Defaults()
		_, err := plan.NewRegistry(ctx, plan.NewMemorySource(defaults[1:]...))
		assert.ErrorIs(t, err, plan.ErrMissingBasicPlan)
	})

	t.Run("panics on nil source", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			_, _ = plan.NewRegistry(ctx, nil)
		})
	})
}
