package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/snapdiary/pkg/broadcast"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[string](4)
	defer hub.Close()

	ctx := context.Background()
	first := hub.Subscribe(ctx)
	second := hub.Subscribe(ctx)

	hub.Publish("hello")

	require.Equal(t, "hello", <-first)
	require.Equal(t, "hello", <-second)
}

func TestBroadcaster_NoReplayForLateSubscribers(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[int](4)
	defer hub.Close()

	hub.Publish(1)
	hub.Publish(2)

	late := hub.Subscribe(context.Background())
	hub.Publish(3)

	require.Equal(t, 3, <-late)
	select {
	case v, ok := <-late:
		t.Fatalf("unexpected value %v (ok=%v)", v, ok)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_SlowConsumerDropsValues(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[int](1)
	defer hub.Close()

	ch := hub.Subscribe(context.Background())

	hub.Publish(1)
	hub.Publish(2) // buffer full, dropped

	require.Equal(t, 1, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("expected drop, got %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_ContextCancelEndsSubscription(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[int](1)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcaster_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[int](1)
	ch := hub.Subscribe(context.Background())

	hub.Close()
	hub.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing and subscribing after close must not panic.
	hub.Publish(1)
	closed := hub.Subscribe(context.Background())
	_, ok = <-closed
	assert.False(t, ok)
}

func TestBroadcaster_ConcurrentPublish(t *testing.T) {
	t.Parallel()

	hub := broadcast.New[int](128)
	defer hub.Close()

	ch := hub.Subscribe(context.Background())

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			hub.Publish(v)
		}(i)
	}
	wg.Wait()

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, 64, received)
			return
		}
	}
}
