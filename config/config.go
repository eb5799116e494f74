// Package config loads service configuration from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Common errors.
var (
	// ErrInsecurePermissions is returned when a file carrying inline
	// secrets is readable by group or others.
	ErrInsecurePermissions = fmt.Errorf("config file has insecure permissions")

	// ErrNotFound is returned when no config file exists at any
	// standard location.
	ErrNotFound = fmt.Errorf("no config file found")
)

// Environment fallbacks for secrets kept out of the config file.
const (
	EnvSigningSecret = "PALLETKIT_SIGNING_SECRET"
	EnvTaskAPIToken  = "PALLETKIT_TASKAPI_TOKEN"
)

// Duration is a time.Duration that unmarshals from TOML strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Auth       AuthConfig       `toml:"auth"`
	Signing    SigningConfig    `toml:"signing"`
	TaskAPI    TaskAPIConfig    `toml:"taskapi"`
	Completion CompletionConfig `toml:"completion"`
	Feed       FeedConfig       `toml:"feed"`
	Search     SearchConfig     `toml:"search"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Listen is the bind address, e.g. ":8080".
	Listen string `toml:"listen"`

	// BaseURL is the externally reachable prefix printed into QR codes,
	// e.g. "https://pallets.example.com".
	BaseURL string `toml:"base_url"`
}

// AuthConfig holds the Basic Auth accounts guarding the private routes.
type AuthConfig struct {
	// Users maps username to password.
	Users map[string]string `toml:"users"`
}

// SigningConfig holds the scan-URL signing secret.
type SigningConfig struct {
	// Secret signs completion URLs. Leave empty and set
	// PALLETKIT_SIGNING_SECRET to keep it out of the file.
	Secret string `toml:"secret"`
}

// TaskAPIConfig configures the remote task service gateway.
type TaskAPIConfig struct {
	BaseURL   string `toml:"base_url"`
	ProjectID string `toml:"project_id"`

	// Token authenticates against the task service. Leave empty and set
	// PALLETKIT_TASKAPI_TOKEN to keep it out of the file.
	Token string `toml:"token"`

	Timeout Duration `toml:"timeout"`
}

// CompletionConfig selects and configures the completion log backend.
type CompletionConfig struct {
	// Backend is "file", "nats" or "memory".
	Backend string `toml:"backend"`

	// Path is the JSON log file for the file backend.
	Path string `toml:"path"`

	// NATSURL and Bucket configure the nats backend.
	NATSURL string `toml:"nats_url"`
	Bucket  string `toml:"bucket"`
}

// FeedConfig selects the completion feed backend.
type FeedConfig struct {
	// Backend is "memory" or "nats".
	Backend string `toml:"backend"`

	NATSURL string `toml:"nats_url"`
	Subject string `toml:"subject"`
}

// SearchConfig configures the load-list search index.
type SearchConfig struct {
	// IndexPath is the on-disk Bleve index; empty keeps it in memory.
	IndexPath string `toml:"index_path"`
}

// RateLimitConfig bounds unauthenticated scan traffic per client IP.
type RateLimitConfig struct {
	Capacity int      `toml:"capacity"`
	Window   Duration `toml:"window"`
}

// TelemetryConfig configures the optional OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`

	// Protocol is "grpc" or "http".
	Protocol string `toml:"protocol"`
	Insecure bool   `toml:"insecure"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
}

// Default returns the configuration used when a section is absent.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:  ":8080",
			BaseURL: "http://localhost:8080",
		},
		Completion: CompletionConfig{
			Backend: "file",
			Path:    "completions.json",
		},
		Feed: FeedConfig{
			Backend: "memory",
		},
		RateLimit: RateLimitConfig{
			Capacity: 30,
			Window:   Duration{time.Minute},
		},
		Telemetry: TelemetryConfig{
			Protocol: "grpc",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// StandardPaths returns the config file locations in priority order.
func StandardPaths() []string {
	paths := []string{"palletkit.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "palletkit", "config.toml"))
	}
	paths = append(paths, filepath.Join("/etc", "palletkit", "config.toml"))
	return paths
}

// Load reads the first config file found at a standard location.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			return cfg, path, err
		}
	}
	return nil, "", ErrNotFound
}

// LoadFile reads one config file. When the file carries inline secrets
// (signing secret or API token) it must not be readable by group or
// others; secrets from the environment lift that requirement.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if (cfg.Signing.Secret != "" || cfg.TaskAPI.Token != "") && runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be owner-only)",
				ErrInsecurePermissions, path, mode)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSigningSecret); v != "" {
		c.Signing.Secret = v
	}
	if v := os.Getenv(EnvTaskAPIToken); v != "" {
		c.TaskAPI.Token = v
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must be set")
	}
	if c.Signing.Secret == "" {
		return fmt.Errorf("signing secret missing: set signing.secret or %s", EnvSigningSecret)
	}
	switch c.Completion.Backend {
	case "file":
		if c.Completion.Path == "" {
			return fmt.Errorf("completion.path must be set for the file backend")
		}
	case "nats", "memory":
	default:
		return fmt.Errorf("unknown completion backend %q", c.Completion.Backend)
	}
	switch c.Feed.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("unknown feed backend %q", c.Feed.Backend)
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http":
		default:
			return fmt.Errorf("unknown telemetry protocol %q", c.Telemetry.Protocol)
		}
	}
	return nil
}
