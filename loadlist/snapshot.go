package loadlist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/warenwerk/palletkit/taskapi"
)

// Common errors.
var (
	// ErrNotFound indicates the snapshot ID is unknown.
	ErrNotFound = errors.New("snapshot not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("snapshot store closed")

	// ErrEmptyLabel indicates a snapshot was requested without a label.
	ErrEmptyLabel = errors.New("label must not be empty")
)

// Snapshot is an immutable, point-in-time capture of the open tasks of one
// commission, already sorted, shared with drivers via link or QR code.
type Snapshot struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	CreatedAt time.Time      `json:"created_at"`
	Tasks     []taskapi.Task `json:"tasks"`
}

// Count returns the number of pallets on the load list.
func (s *Snapshot) Count() int {
	return len(s.Tasks)
}

// Store keeps load-list snapshots under opaque generated IDs. Snapshots
// are never mutated after creation; no durability is promised beyond the
// process lifetime.
type Store struct {
	mu     sync.RWMutex
	data   map[string]*Snapshot
	index  *Index
	closed atomic.Bool
}

// NewStore creates a snapshot store. The index may be nil to disable
// search.
func NewStore(index *Index) *Store {
	return &Store{
		data:  make(map[string]*Snapshot),
		index: index,
	}
}

// Create captures a new snapshot of the given tasks. The input is sorted
// into a private copy; the caller's slice is not retained.
func (s *Store) Create(ctx context.Context, label string, tasks []taskapi.Task) (*Snapshot, error) {
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	snap := &Snapshot{
		ID:        uuid.New().String(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Tasks:     SortedCopy(tasks),
	}

	s.mu.Lock()
	s.data[snap.ID] = snap
	s.mu.Unlock()

	if s.index != nil {
		if err := s.index.IndexSnapshot(snap); err != nil {
			// Search is enrichment; the snapshot itself is already stored.
			return snap, err
		}
	}
	return snap, nil
}

// Get returns a stored snapshot.
func (s *Store) Get(ctx context.Context, id string) (*Snapshot, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Search queries the attached index. Returns empty results when no index
// is configured.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, query, limit)
}

// Close shuts down the store and its index.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()

	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
