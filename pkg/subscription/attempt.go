package subscription

import (
	"errors"
	"fmt"
	"sync"
)

// AttemptState is the state of the in-flight purchase attempt:
// idle → purchasing → {purchased|restored|cancelled|failed} → idle.
type AttemptState string

const (
	AttemptIdle       AttemptState = "idle"
	AttemptPurchasing AttemptState = "purchasing"
	AttemptPurchased  AttemptState = "purchased"
	AttemptRestored   AttemptState = "restored"
	AttemptCancelled  AttemptState = "cancelled"
	AttemptFailed     AttemptState = "failed"
)

// attemptTransitions is the closed transition table. Terminal states only
// return to idle, which happens when the attempt is released.
var attemptTransitions = map[AttemptState][]AttemptState{
	AttemptIdle:       {AttemptPurchasing},
	AttemptPurchasing: {AttemptPurchased, AttemptRestored, AttemptCancelled, AttemptFailed, AttemptIdle},
	AttemptPurchased:  {AttemptIdle},
	AttemptRestored:   {AttemptIdle},
	AttemptCancelled:  {AttemptIdle},
	AttemptFailed:     {AttemptIdle},
}

// attemptFSM serializes purchase attempts: at most one may hold the
// purchasing state at a time.
type attemptFSM struct {
	mu    sync.Mutex
	state AttemptState
}

func newAttemptFSM() *attemptFSM {
	return &attemptFSM{state: AttemptIdle}
}

func (f *attemptFSM) current() AttemptState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// begin moves idle → purchasing. Any other current state means a purchase
// is already in flight.
func (f *attemptFSM) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != AttemptIdle {
		return ErrPurchaseInProgress
	}
	f.state = AttemptPurchasing
	return nil
}

// to applies a transition, validating it against the table.
func (f *attemptFSM) to(next AttemptState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, allowed := range attemptTransitions[f.state] {
		if allowed == next {
			f.state = next
			return nil
		}
	}
	return errors.Join(ErrInvalidAttemptState,
		fmt.Errorf("no transition from %q to %q", f.state, next))
}

// release returns the attempt to idle from any state. Called in a deferred
// path so the purchasing flag is always cleared, even on panic-free error
// returns.
func (f *attemptFSM) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = AttemptIdle
}
