package completion

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrNotFound indicates no completion has been recorded for the task.
	ErrNotFound = errors.New("no completion recorded")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("completion store closed")

	// ErrInvalidTaskID indicates an empty or malformed task ID.
	ErrInvalidTaskID = errors.New("invalid task id")
)

// Store is the completion log: the local record of when each pallet task
// was confirmed complete. It exists to answer "has this pallet already been
// checked in" without touching the remote task service.
type Store interface {
	// Get returns when the task was confirmed complete.
	// Returns ErrNotFound if the task has never been completed.
	Get(ctx context.Context, taskID string) (time.Time, error)

	// SetIfAbsent records a completion timestamp unless one already exists.
	// The first write wins: when a record is present, the existing
	// timestamp is returned unchanged and the store is not modified.
	// The returned time is always the canonical recorded value.
	SetIfAbsent(ctx context.Context, taskID string, ts time.Time) (time.Time, error)

	// Close shuts down the store and releases resources.
	Close() error
}

// ValidateTaskID checks that a task ID is usable as a store key.
func ValidateTaskID(taskID string) error {
	if taskID == "" || len(taskID) > 256 {
		return ErrInvalidTaskID
	}
	return nil
}

// EncodeTime renders a timestamp in the persisted wire form (RFC 3339, UTC,
// second precision). All backends share this codec so a record written by
// one can be read by another.
func EncodeTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// DecodeTime parses the persisted wire form.
func DecodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
