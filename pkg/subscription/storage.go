package subscription

import "context"

// Storage is the persistence backend for the single subscription status
// record. Implementations must make Save an atomic replace.
type Storage interface {
	// Load returns the persisted status.
	// Returns ErrStatusNotFound if none has been saved yet.
	Load(ctx context.Context) (Status, error)

	// Save atomically replaces the persisted status.
	Save(ctx context.Context, status Status) error

	// Delete removes the persisted status. Deleting an absent record is a no-op.
	Delete(ctx context.Context) error
}
