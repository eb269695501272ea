package subscription

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptFSM_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newAttemptFSM()
	assert.Equal(t, AttemptIdle, f.current())

	require.NoError(t, f.begin())
	assert.Equal(t, AttemptPurchasing, f.current())

	require.NoError(t, f.to(AttemptPurchased))
	assert.Equal(t, AttemptPurchased, f.current())

	f.release()
	assert.Equal(t, AttemptIdle, f.current())
}

func TestAttemptFSM_BeginWhileInFlight(t *testing.T) {
	t.Parallel()

	f := newAttemptFSM()
	require.NoError(t, f.begin())

	assert.ErrorIs(t, f.begin(), ErrPurchaseInProgress)

	f.release()
	assert.NoError(t, f.begin())
}

func TestAttemptFSM_InvalidTransition(t *testing.T) {
	t.Parallel()

	f := newAttemptFSM()

	// Terminal states are unreachable from idle.
	assert.ErrorIs(t, f.to(AttemptPurchased), ErrInvalidAttemptState)

	require.NoError(t, f.begin())
	require.NoError(t, f.to(AttemptFailed))

	// A settled attempt cannot settle again.
	assert.ErrorIs(t, f.to(AttemptPurchased), ErrInvalidAttemptState)
	assert.Equal(t, AttemptFailed, f.current())
}

func TestAttemptFSM_ConcurrentBegin(t *testing.T) {
	t.Parallel()

	f := newAttemptFSM()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	wins := make(chan struct{}, workers)
	for range workers {
		go func() {
			defer wg.Done()
			if f.begin() == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	assert.Equal(t, 1, n, "exactly one concurrent caller may enter purchasing")
}
