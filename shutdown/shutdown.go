package shutdown

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Service shutdown phases. Lower phases run first: the HTTP server
// drains before the feed and stores close under it, telemetry flushes
// last so the final requests still produce spans.
const (
	PhaseServer    = 10
	PhaseFeed      = 20
	PhaseStores    = 30
	PhaseTelemetry = 40
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown begins. The context is
	// cancelled when the overall timeout is reached; implementations
	// should stop accepting work, drain, and release resources.
	OnShutdown(ctx context.Context) error
}

// Func adapts a plain function to Handler.
type Func func(ctx context.Context) error

// OnShutdown implements Handler.
func (f Func) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// Config configures the coordinator.
type Config struct {
	// Timeout bounds the whole shutdown when triggered by a signal or
	// ShutdownWithTimeout(0). Default: 30 seconds.
	Timeout time.Duration

	// ContinueOnError keeps later phases running after a handler fails.
	// Default: true.
	ContinueOnError bool

	// OnDone is called after each handler finishes, for logging.
	OnDone func(name string, phase int, d time.Duration, err error)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		ContinueOnError: true,
	}
}
