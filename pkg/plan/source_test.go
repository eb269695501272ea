package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

const testCatalog = `
plans:
  - id: basic
    display_name: Basic
    monthly_ai_limit: 5
    interval: none
  - id: premium_monthly
    display_name: Premium Monthly
    product_id: sku_premium_monthly
    monthly_ai_limit: 200
    features: [writing_prompts, advanced_filters]
    price:
      amount: 599
      currency: USD
    interval: monthly
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSource_Load(t *testing.T) {
	t.Parallel()

	src := plan.NewFileSource(writeCatalog(t, testCatalog))
	reg, err := plan.NewRegistry(context.Background(), src)
	require.NoError(t, err)

	basic, err := reg.Get(plan.Basic)
	require.NoError(t, err)
	assert.Equal(t, 5, basic.MonthlyAILimit)

	monthly, err := reg.Get(plan.PremiumMonthly)
	require.NoError(t, err)
	assert.Equal(t, "sku_premium_monthly", monthly.ProductID)
	assert.Equal(t, int64(599), monthly.Price.Amount)
	assert.True(t, monthly.HasFeature(plan.FeatureWritingPrompts))
	assert.False(t, monthly.HasFeature(plan.FeaturePrioritySupport))
}

func TestFileSource_MissingFile(t *testing.T) {
	t.Parallel()

	src := plan.NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := plan.NewRegistry(context.Background(), src)
	assert.ErrorIs(t, err, plan.ErrFailedToLoad)
}

func TestFileSource_EmptyCatalog(t *testing.T) {
	t.Parallel()

	src := plan.NewFileSource(writeCatalog(t, "plans: []\n"))
	_, err := plan.NewRegistry(context.Background(), src)
	assert.ErrorIs(t, err, plan.ErrNoPlans)
}

func TestFileSource_MalformedYAML(t *testing.T) {
	t.Parallel()

	src := plan.NewFileSource(writeCatalog(t, "plans: [unclosed"))
	_, err := plan.NewRegistry(context.Background(), src)
	assert.ErrorIs(t, err, plan.ErrFailedToLoad)
}
