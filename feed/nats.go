package feed

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
)

// NATSFeed implements Feed over a NATS subject, letting several service
// instances share one completion stream.
type NATSFeed struct {
	conn    *nats.Conn
	config  NATSConfig
	ownConn bool
	closed  atomic.Bool
}

// NATSConfig holds NATS feed configuration.
type NATSConfig struct {
	Config // Embed base config

	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	// Ignored when Conn is provided.
	URL string

	// Conn is an existing connection to reuse (e.g., shared with the
	// completion log's NATS store). When set, Close leaves it open.
	Conn *nats.Conn

	// Subject events are published to.
	Subject string

	// Name is the client name for identification.
	Name string
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Config:  DefaultConfig(),
		URL:     nats.DefaultURL,
		Subject: "pallets.completions",
		Name:    "palletkit-feed",
	}
}

// NewNATSFeed creates a completion feed over NATS.
func NewNATSFeed(cfg NATSConfig) (*NATSFeed, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultNATSConfig().Subject
	}

	conn := cfg.Conn
	ownConn := false
	if conn == nil {
		url := cfg.URL
		if url == "" {
			url = nats.DefaultURL
		}
		var err error
		conn, err = nats.Connect(url, nats.Name(cfg.Name))
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		ownConn = true
	}

	return &NATSFeed{
		conn:    conn,
		config:  cfg,
		ownConn: ownConn,
	}, nil
}

// Publish sends an event to all subscribers across instances.
func (f *NATSFeed) Publish(ev Event) error {
	if f.closed.Load() || f.conn.IsClosed() {
		return ErrClosed
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return f.conn.Publish(f.config.Subject, data)
}

// Subscribe registers a new subscriber.
func (f *NATSFeed) Subscribe() (Subscription, error) {
	if f.closed.Load() || f.conn.IsClosed() {
		return nil, ErrClosed
	}

	ch := make(chan Event, f.config.BufferSize)
	sub := &natsSub{ch: ch}

	nsub, err := f.conn.Subscribe(f.config.Subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// Malformed event on the subject; skip it.
			return
		}
		// nats.Subscription.Unsubscribe does not wait for an in-flight
		// callback, so the closed check and the send must share a lock
		// with the channel close.
		sub.mu.Lock()
		defer sub.mu.Unlock()
		if sub.closed {
			return
		}
		select {
		case ch <- ev:
		default:
			// Buffer full, drop for this subscriber.
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}
	sub.nsub = nsub
	return sub, nil
}

// Close shuts down the feed. A connection passed in via config stays open.
func (f *NATSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	if f.ownConn {
		f.conn.Close()
	}
	return nil
}

// natsSub implements Subscription for NATSFeed.
type natsSub struct {
	nsub *nats.Subscription

	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// Events returns the channel of incoming events.
func (s *natsSub) Events() <-chan Event {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *natsSub) Unsubscribe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	return s.nsub.Unsubscribe()
}
