package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket for one client key.
type bucket struct {
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
	lastSeen   time.Time
}

// refill adds tokens proportional to the time elapsed since the last
// refill, capped at capacity.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	tokens := int(float64(b.capacity) * float64(elapsed) / float64(b.window))
	if tokens > 0 {
		b.available += tokens
		if b.available > b.capacity {
			b.available = b.capacity
		}
		b.lastRefill = now
	}
}

// MemoryLimiter rate-limits per client key with lazily created token
// buckets. Safe for concurrent use.
type MemoryLimiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[string]*bucket
	closed  bool
	nowFunc func() time.Time // for testing

	// lastSweep bounds how often the stale-bucket sweep runs.
	lastSweep time.Time
}

// NewMemoryLimiter creates an in-memory per-key limiter.
func NewMemoryLimiter(cfg Config) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &MemoryLimiter{
		config:    cfg,
		buckets:   make(map[string]*bucket),
		nowFunc:   time.Now,
		lastSweep: now,
	}, nil
}

// Allow consumes a token for the key without blocking.
func (m *MemoryLimiter) Allow(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	now := m.nowFunc()
	m.sweepLocked(now)

	b, exists := m.buckets[key]
	if !exists {
		b = &bucket{
			capacity:   m.config.Capacity,
			available:  m.config.Capacity,
			window:     m.config.Window,
			lastRefill: now,
		}
		m.buckets[key] = b
	}
	b.lastSeen = now
	b.refill(now)

	if b.available > 0 {
		b.available--
		return true
	}
	return false
}

// Snapshot returns the current bucket state for a key.
func (m *MemoryLimiter) Snapshot(key string) *Capacity {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[key]
	if !exists {
		return nil
	}
	b.refill(m.nowFunc())

	return &Capacity{
		Key:       key,
		Available: b.available,
		Total:     b.capacity,
		Window:    b.window,
	}
}

// Len reports how many keys currently hold a bucket.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close shuts down the limiter.
func (m *MemoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.buckets = nil
	return nil
}

// sweepLocked drops buckets idle past IdleTTL. Runs at most once per
// TTL period so hot paths stay cheap. Caller holds mu.
func (m *MemoryLimiter) sweepLocked(now time.Time) {
	if m.config.IdleTTL == 0 || now.Sub(m.lastSweep) < m.config.IdleTTL {
		return
	}
	m.lastSweep = now
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= m.config.IdleTTL {
			delete(m.buckets, key)
		}
	}
}

// Ensure MemoryLimiter implements Limiter.
var _ Limiter = (*MemoryLimiter)(nil)
