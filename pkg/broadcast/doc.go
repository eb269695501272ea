// Package broadcast provides a minimal in-memory fan-out primitive used to
// push subscription status changes and purchase results to UI observers.
//
// A Broadcaster[T] delivers published values to every live subscriber
// channel without blocking the publisher: slow consumers miss values
// instead of stalling status writes. Late subscribers see only values
// published after they subscribe; nothing is replayed.
//
//	hub := broadcast.New[int](8)
//	defer hub.Close()
//
//	ch := hub.Subscribe(ctx)
//	go func() {
//		for v := range ch {
//			_ = v
//		}
//	}()
//
//	hub.Publish(42)
package broadcast
