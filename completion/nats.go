package completion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore implements Store using a NATS JetStream KV bucket. The KV
// Create operation only succeeds for a new key, so first-write-wins is
// enforced server-side even across multiple service instances.
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	config NATSStoreConfig
	closed atomic.Bool
}

// NATSStoreConfig holds NATS KV store configuration.
type NATSStoreConfig struct {
	// Conn is the NATS connection to use.
	Conn *nats.Conn

	// Bucket is the KV bucket name.
	Bucket string

	// OpTimeout bounds individual KV operations when the caller's context
	// has no deadline.
	OpTimeout time.Duration
}

// DefaultNATSStoreConfig returns configuration with sensible defaults.
func DefaultNATSStoreConfig() NATSStoreConfig {
	return NATSStoreConfig{
		Bucket:    "pallet-completions",
		OpTimeout: 5 * time.Second,
	}
}

// NewNATSStore creates a completion log backed by NATS JetStream KV.
func NewNATSStore(cfg NATSStoreConfig) (*NATSStore, error) {
	if cfg.Conn == nil {
		return nil, fmt.Errorf("nats connection required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultNATSStoreConfig().Bucket
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultNATSStoreConfig().OpTimeout
	}

	js, err := jetstream.New(cfg.Conn)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.Bucket,
		History: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket: %w", err)
	}

	return &NATSStore{
		conn:   cfg.Conn,
		kv:     kv,
		config: cfg,
	}, nil
}

// Get returns when the task was confirmed complete.
func (s *NATSStore) Get(ctx context.Context, taskID string) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	entry, err := s.kv.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("kv get: %w", err)
	}

	ts, err := DecodeTime(string(entry.Value()))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt completion record for %s: %w", taskID, err)
	}
	return ts, nil
}

// SetIfAbsent records a completion timestamp unless one already exists.
func (s *NATSStore) SetIfAbsent(ctx context.Context, taskID string, ts time.Time) (time.Time, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return time.Time{}, err
	}
	if s.closed.Load() {
		return time.Time{}, ErrClosed
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	encoded := EncodeTime(ts)
	_, err := s.kv.Create(opCtx, taskID, []byte(encoded))
	if err == nil {
		return DecodeTime(encoded)
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return time.Time{}, fmt.Errorf("kv create: %w", err)
	}

	// Lost the race (or the record predates us): the first write wins.
	return s.Get(ctx, taskID)
}

// opContext applies the configured per-operation timeout when the caller's
// context carries no deadline.
func (s *NATSStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.OpTimeout)
}

// Close shuts down the store. The NATS connection is owned by the caller
// and is not closed here.
func (s *NATSStore) Close() error {
	s.closed.Store(true)
	return nil
}
