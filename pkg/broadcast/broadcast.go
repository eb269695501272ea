package broadcast

import (
	"context"
	"sync"
)

// Broadcaster fans values out to any number of subscribers.
//
// Delivery is non-blocking: a subscriber whose buffer is full misses the
// value rather than stalling the publisher. Subscribers receive only values
// published after they subscribe; there is no replay of earlier values.
// All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	buffer int
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New returns a Broadcaster whose subscribers buffer up to buffer values.
// A minimum buffer of 1 is enforced so publishing never blocks.
func New[T any](buffer int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subs:   make(map[chan T]struct{}),
		buffer: max(buffer, 1),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a new subscriber and returns its receive channel.
// The subscription ends when ctx is cancelled or the broadcaster closes;
// either way the returned channel is closed. Subscribing to a closed
// broadcaster returns an already-closed channel.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			select {
			case <-ctx.Done():
				b.drop(ch)
			case <-b.done:
				// Close already shut the channel down.
			}
		}()
	}

	return ch
}

// Publish delivers v to every current subscriber whose buffer has room.
// Publishing on a closed broadcaster is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Slow consumer: skip rather than block the publisher.
		}
	}
}

// Close shuts the broadcaster down and closes all subscriber channels.
// Close is idempotent.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		close(ch)
	}
	clear(b.subs)
	b.mu.Unlock()

	// Context-cancel watchers may still be in flight; Close waits so drop
	// never touches a channel already closed here.
	b.wg.Wait()
}

func (b *Broadcaster[T]) drop(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
