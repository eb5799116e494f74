package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "palletkit.toml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
listen = ":9090"
base_url = "https://pallets.example.com"

[auth]
users = { lagerchef = "geheim" }

[signing]
secret = "hmac-secret"

[taskapi]
base_url = "https://api.example.com/rest/v2"
token = "api-token"
project_id = "p-1"
timeout = "20s"

[completion]
backend = "file"
path = "/var/lib/palletkit/completions.json"
`, 0o600)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Auth.Users["lagerchef"] != "geheim" {
		t.Errorf("Auth users not parsed: %+v", cfg.Auth.Users)
	}
	if cfg.TaskAPI.Timeout.Duration != 20*time.Second {
		t.Errorf("Timeout = %v", cfg.TaskAPI.Timeout.Duration)
	}
	if cfg.Completion.Path != "/var/lib/palletkit/completions.json" {
		t.Errorf("Completion path = %q", cfg.Completion.Path)
	}
	// Defaults fill absent sections.
	if cfg.Feed.Backend != "memory" {
		t.Errorf("Feed backend default = %q", cfg.Feed.Backend)
	}
	if cfg.RateLimit.Capacity != 30 {
		t.Errorf("RateLimit capacity default = %d", cfg.RateLimit.Capacity)
	}
}

func TestLoadFileInsecurePermissions(t *testing.T) {
	path := writeConfig(t, `
[signing]
secret = "hmac-secret"
`, 0o644)

	_, err := LoadFile(path)
	if !errors.Is(err, ErrInsecurePermissions) {
		t.Errorf("Expected ErrInsecurePermissions for world-readable secrets, got %v", err)
	}
}

func TestLoadFileSecretFromEnv(t *testing.T) {
	// No inline secret, so a world-readable file is fine.
	path := writeConfig(t, `
[server]
listen = ":8080"
`, 0o644)

	t.Setenv(EnvSigningSecret, "env-secret")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Signing.Secret != "env-secret" {
		t.Errorf("Secret = %q, expected environment fallback", cfg.Signing.Secret)
	}
}

func TestLoadFileMissingSecret(t *testing.T) {
	path := writeConfig(t, `
[server]
listen = ":8080"
`, 0o600)

	os.Unsetenv(EnvSigningSecret)
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "signing secret") {
		t.Errorf("Expected missing-secret error, got %v", err)
	}
}

func TestValidateBackends(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown completion backend", func(c *Config) { c.Completion.Backend = "redis" }, "completion backend"},
		{"file backend without path", func(c *Config) { c.Completion.Path = "" }, "completion.path"},
		{"unknown feed backend", func(c *Config) { c.Feed.Backend = "kafka" }, "feed backend"},
		{"unknown telemetry protocol", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Protocol = "udp"
		}, "telemetry protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Signing.Secret = "s"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v", d.Duration)
	}
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Error("Expected error for malformed duration")
	}
}
