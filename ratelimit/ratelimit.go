package ratelimit

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed        = errors.New("limiter closed")
	ErrInvalidConfig = errors.New("invalid limiter configuration")
)

// Limiter answers whether a request from a given client key (normally
// its IP address) may proceed right now.
type Limiter interface {
	// Allow consumes a token for the key without blocking. A fresh key
	// gets a full bucket; an exhausted one refills over the window.
	Allow(key string) bool

	// Snapshot returns the current bucket state for a key, or nil when
	// the key has never been seen (or has been swept).
	Snapshot(key string) *Capacity

	// Close shuts down the limiter. Allow returns false afterwards.
	Close() error
}

// Config sets the per-key budget.
type Config struct {
	// Capacity is the number of requests per window for one key.
	Capacity int

	// Window is the refill period.
	Window time.Duration

	// IdleTTL is how long an untouched bucket is kept before it is
	// swept. Zero keeps buckets forever.
	IdleTTL time.Duration
}

// DefaultConfig returns a budget sized for hand-held QR scanning: a
// short burst of rescans is fine, a scripted flood is not.
func DefaultConfig() Config {
	return Config{
		Capacity: 30,
		Window:   time.Minute,
		IdleTTL:  10 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Capacity <= 0 || c.Window <= 0 || c.IdleTTL < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Capacity describes the bucket state for one key.
type Capacity struct {
	// Key identifies the client.
	Key string

	// Available is the current number of tokens.
	Available int

	// Total is the bucket capacity.
	Total int

	// Window is the refill period.
	Window time.Duration
}
