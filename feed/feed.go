package feed

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed = errors.New("feed closed")
)

// Event is one confirmed pallet completion, published after the remote
// task was closed and the completion log written.
type Event struct {
	// TaskID is the remote task that was closed.
	TaskID string `json:"task_id"`

	// Label is the commission the pallet belongs to, when known.
	Label string `json:"label,omitempty"`

	// Content is the pallet description, when known.
	Content string `json:"content,omitempty"`

	// CompletedAt is the recorded completion timestamp.
	CompletedAt time.Time `json:"completed_at"`
}

// Feed distributes completion events to dashboard subscribers. Delivery is
// best-effort: a slow subscriber's full buffer drops events and never
// blocks the completion workflow.
type Feed interface {
	// Publish sends an event to all current subscribers.
	Publish(ev Event) error

	// Subscribe registers a new subscriber.
	Subscribe() (Subscription, error)

	// Close shuts down the feed and all subscriptions.
	Close() error
}

// Subscription is one subscriber's view of the feed.
type Subscription interface {
	// Events returns the channel of incoming events.
	// The channel is closed when the subscription ends.
	Events() <-chan Event

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds common feed configuration.
type Config struct {
	// BufferSize for subscriber channels.
	// Default: 64
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64,
	}
}
