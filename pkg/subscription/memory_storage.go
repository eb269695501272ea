package subscription

import (
	"context"
	"sync"
)

// MemoryStorage is an in-process Storage implementation.
// It backs tests and acts as the fallback when no durable backend is
// configured; contents are lost on process exit.
type MemoryStorage struct {
	mu     sync.RWMutex
	status *Status
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load(_ context.Context) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status == nil {
		return Status{}, ErrStatusNotFound
	}
	return *s.status, nil
}

func (s *MemoryStorage) Save(_ context.Context, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = &status
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = nil
	return nil
}
