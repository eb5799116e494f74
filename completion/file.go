package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// FileStore implements Store backed by a single JSON file mapping task IDs
// to RFC 3339 timestamps. Every accepted write rewrites the whole file
// atomically (temp file, fsync, rename) before SetIfAbsent returns, so an
// acknowledged completion survives a crash.
type FileStore struct {
	path   string
	mu     sync.Mutex
	data   map[string]string
	closed atomic.Bool
}

// NewFileStore opens or creates the completion log at path.
// The parent directory must exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read completion log: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("parse completion log %s: %w", path, err)
		}
	}
	return s, nil
}

// Get returns when the task was confirmed complete.
func (s *FileStore) Get(ctx context.Context, taskID string) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	s.mu.Lock()
	raw, ok := s.data[taskID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, ErrNotFound
	}
	ts, err := DecodeTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt completion record for %s: %w", taskID, err)
	}
	return ts, nil
}

// SetIfAbsent records a completion timestamp unless one already exists.
// The write is persisted synchronously before returning.
func (s *FileStore) SetIfAbsent(ctx context.Context, taskID string, ts time.Time) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[taskID]; ok {
		recorded, err := DecodeTime(existing)
		if err != nil {
			return time.Time{}, fmt.Errorf("corrupt completion record for %s: %w", taskID, err)
		}
		return recorded, nil
	}

	encoded := EncodeTime(ts)
	s.data[taskID] = encoded
	if err := s.persistLocked(); err != nil {
		delete(s.data, taskID)
		return time.Time{}, err
	}

	recorded, err := DecodeTime(encoded)
	if err != nil {
		return time.Time{}, err
	}
	return recorded, nil
}

// persistLocked writes the whole map atomically. Caller holds s.mu.
func (s *FileStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode completion log: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".completions-*.json")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace completion log: %w", err)
	}
	return nil
}

// Close shuts down the store. The log is already on disk; nothing to flush.
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}
