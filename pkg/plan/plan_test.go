package plan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

func TestID_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, plan.Basic.Valid())
	assert.True(t, plan.PremiumMonthly.Valid())
	assert.True(t, plan.PremiumYearly.Valid())
	assert.False(t, plan.ID("premium_weekly").Valid())
	assert.False(t, plan.ID("").Valid())
}

func TestPlan_Tiers(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()

	basic, err := reg.Get(plan.Basic)
	require.NoError(t, err)
	assert.False(t, basic.IsPremium())
	assert.False(t, basic.IsYearly())
	assert.Empty(t, basic.ProductID)

	monthly, err := reg.Get(plan.PremiumMonthly)
	require.NoError(t, err)
	assert.True(t, monthly.IsPremium())
	assert.False(t, monthly.IsYearly())
	assert.NotEmpty(t, monthly.ProductID)

	yearly, err := reg.Get(plan.PremiumYearly)
	require.NoError(t, err)
	assert.True(t, yearly.IsPremium())
	assert.True(t, yearly.IsYearly())
}

func TestPlan_ExpiryFrom(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()
	start := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

	basic, _ := reg.Get(plan.Basic)
	assert.Nil(t, basic.ExpiryFrom(start))

	monthly, _ := reg.Get(plan.PremiumMonthly)
	require.NotNil(t, monthly.ExpiryFrom(start))
	assert.Equal(t, start.AddDate(0, 0, 30), *monthly.ExpiryFrom(start))

	yearly, _ := reg.Get(plan.PremiumYearly)
	require.NotNil(t, yearly.ExpiryFrom(start))
	assert.Equal(t, start.AddDate(0, 0, 365), *yearly.ExpiryFrom(start))
}

func TestPlan_HasFeature(t *testing.T) {
	t.Parallel()

	reg := plan.MustNewRegistry()

	basic, _ := reg.Get(plan.Basic)
	assert.False(t, basic.HasFeature(plan.FeatureWritingPrompts))

	monthly, _ := reg.Get(plan.PremiumMonthly)
	assert.True(t, monthly.HasFeature(plan.FeatureWritingPrompts))
	assert.False(t, monthly.HasFeature(plan.FeaturePrioritySupport))

	yearly, _ := reg.Get(plan.PremiumYearly)
	assert.True(t, yearly.HasFeature(plan.FeaturePrioritySupport))
}
