package subscription_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
	"github.com/dmitrymomot/snapdiary/pkg/subscription"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	t.Parallel()

	storage := subscription.NewMemoryStorage()
	ctx := context.Background()

	_, err := storage.Load(ctx)
	assert.ErrorIs(t, err, subscription.ErrStatusNotFound)

	status := subscription.DefaultStatus(testNow)
	status.PlanID = plan.PremiumMonthly
	require.NoError(t, storage.Save(ctx, status))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, status, loaded)

	require.NoError(t, storage.Delete(ctx))
	_, err = storage.Load(ctx)
	assert.ErrorIs(t, err, subscription.ErrStatusNotFound)

	// Deleting an absent status is a no-op.
	require.NoError(t, storage.Delete(ctx))
}
