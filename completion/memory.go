package completion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Useful for testing and single-process ephemeral deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]time.Time
	closed atomic.Bool
}

// NewMemoryStore creates a new in-memory completion log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]time.Time),
	}
}

// Get returns when the task was confirmed complete.
func (s *MemoryStore) Get(ctx context.Context, taskID string) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.data[taskID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return ts, nil
}

// SetIfAbsent records a completion timestamp unless one already exists.
func (s *MemoryStore) SetIfAbsent(ctx context.Context, taskID string, ts time.Time) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[taskID]; ok {
		return existing, nil
	}

	// Round-trip through the wire codec so all backends return the same
	// canonical precision.
	canonical, err := DecodeTime(EncodeTime(ts))
	if err != nil {
		return time.Time{}, err
	}
	s.data[taskID] = canonical
	return canonical, nil
}

// Close shuts down the store.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
