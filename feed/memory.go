package feed

import (
	"sync"
	"sync/atomic"
)

// MemoryFeed implements Feed using in-process channels.
// The default for single-instance deployments.
type MemoryFeed struct {
	config Config

	mu     sync.RWMutex
	subs   []*memorySub
	closed atomic.Bool
}

type memorySub struct {
	ch     chan Event
	closed atomic.Bool
	feed   *MemoryFeed
}

// NewMemoryFeed creates a new in-process completion feed.
func NewMemoryFeed(cfg Config) *MemoryFeed {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryFeed{config: cfg}
}

// Publish sends an event to all current subscribers.
// The read lock is held across the sends; channels are only closed under
// the write lock, so a send can never hit a closed channel. Sends are
// non-blocking, so holding the lock costs nothing.
func (f *MemoryFeed) Publish(ev Event) error {
	if f.closed.Load() {
		return ErrClosed
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		if sub.closed.Load() {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Buffer full, drop for this subscriber.
		}
	}
	return nil
}

// Subscribe registers a new subscriber.
func (f *MemoryFeed) Subscribe() (Subscription, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		ch:   make(chan Event, f.config.BufferSize),
		feed: f,
	}

	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()

	return sub, nil
}

// Close shuts down the feed and all subscriptions.
func (f *MemoryFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		if !sub.closed.Swap(true) {
			close(sub.ch)
		}
	}
	f.subs = nil
	return nil
}

// Events returns the channel of incoming events.
func (s *memorySub) Events() <-chan Event {
	return s.ch
}

// Unsubscribe cancels the subscription. The channel close happens under
// the feed's write lock, mutually exclusive with Publish.
func (s *memorySub) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	for i, sub := range s.feed.subs {
		if sub == s {
			s.feed.subs = append(s.feed.subs[:i], s.feed.subs[i+1:]...)
			break
		}
	}
	close(s.ch)
	return nil
}
