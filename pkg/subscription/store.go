package subscription

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
)

// Store owns the singleton subscription status: it loads it from the
// persistence backend, caches it in memory, and is the only component
// allowed to write it. Every committed write is pushed to the status
// stream.
//
// Persistence failures are non-fatal: reads fall back to the last-known
// in-memory value (or the fresh-install default) and writes still update
// the cache so entitlement checks keep working, with the error surfaced as
// ErrStorageUnavailable for the caller to log or retry.
type Store struct {
	storage Storage
	events  *Events
	log     *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	cached *Status
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for non-fatal persistence failures.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStoreClock overrides the wall clock, for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a status store over the given backend.
// Panics if storage or events is nil to fail fast during initialization.
func NewStore(storage Storage, events *Events, opts ...StoreOption) *Store {
	if storage == nil {
		panic("subscription: Storage is required")
	}
	if events == nil {
		panic("subscription: Events is required")
	}

	s := &Store{
		storage: storage,
		events:  events,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the singleton status, lazily creating the fresh-install
// default (Basic, active, no expiry) on first use.
//
// When the backend is unavailable the last-known in-memory value is
// returned together with ErrStorageUnavailable; the value stays usable.
func (s *Store) Current(ctx context.Context) (Status, error) {
	s.mu.RLock()
	if s.cached != nil {
		cached := *s.cached
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

// currentLocked is the slow path of Current. The caller must hold s.mu.
func (s *Store) currentLocked(ctx context.Context) (Status, error) {
	if s.cached != nil {
		return *s.cached, nil
	}

	status, err := s.storage.Load(ctx)
	switch {
	case err == nil:
		s.cached = &status
		return status, nil

	case errors.Is(err, ErrStatusNotFound):
		// First use: initialize the default Basic status. Idempotent
		// because the write races only with itself under s.mu.
		status = DefaultStatus(s.now())
		if saveErr := s.storage.Save(ctx, status); saveErr != nil {
			s.log.WarnContext(ctx, "failed to persist initial subscription status", "error", saveErr)
		}
		s.cached = &status
		s.events.publishStatus(status)
		return status, nil

	default:
		s.log.WarnContext(ctx, "failed to load subscription status", "error", err)
		status = DefaultStatus(s.now())
		return status, errors.Join(ErrStorageUnavailable, err)
	}
}

// Mutate applies fn to the current status as one atomic read-modify-write:
// the read, the mutation, and the commit share a single critical section,
// so concurrent mutators can never clobber each other's fields. fn reports
// whether it changed anything; returning false skips the commit and no
// event is published. The committed (or unchanged) status is returned.
//
// A backend read failure still runs fn against the last-known value, so
// mutations keep working offline; the commit error surfaces as
// ErrStorageUnavailable.
func (s *Store) Mutate(ctx context.Context, fn func(*Status) bool) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, loadErr := s.currentLocked(ctx)
	if loadErr != nil && !errors.Is(loadErr, ErrStorageUnavailable) {
		return status, loadErr
	}

	if !fn(&status) {
		return status, loadErr
	}
	return status, s.commitLocked(ctx, status)
}

// Update atomically replaces the status and publishes it on the status
// stream. The cache is updated even when persistence fails so the app keeps
// operating on the committed value; the failure is surfaced as
// ErrStorageUnavailable.
func (s *Store) Update(ctx context.Context, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, status)
}

// commitLocked installs the new status, publishes it, and persists it.
// The caller must hold s.mu.
func (s *Store) commitLocked(ctx context.Context, status Status) error {
	s.cached = &status
	s.events.publishStatus(status)

	if err := s.storage.Save(ctx, status); err != nil {
		s.log.WarnContext(ctx, "failed to persist subscription status", "error", err)
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// Create builds a fresh status for the given plan without committing it.
// Premium plans get expiry per their billing period and auto-renewal on.
func (s *Store) Create(p plan.Plan) Status {
	return NewStatusFor(p, s.now())
}

// Clear removes the persisted status; the next Current recreates the
// default. Used for sign-out and account reset.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := s.storage.Delete(ctx); err != nil {
		s.log.WarnContext(ctx, "failed to clear subscription status", "error", err)
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// Refresh re-reads persisted state into the cache, discarding the in-memory
// copy. Used after external mutation, e.g. on app resume. When the backend
// is unavailable the existing cache is kept.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.storage.Load(ctx)
	switch {
	case err == nil:
		s.cached = &status
		return nil
	case errors.Is(err, ErrStatusNotFound):
		s.cached = nil
		return nil
	default:
		s.log.WarnContext(ctx, "failed to refresh subscription status", "error", err)
		return errors.Join(ErrStorageUnavailable, err)
	}
}
