package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-streamd
server:
  port: 9000
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-streamd" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-streamd")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-streamd
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-streamd
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Hub.QueueSize != DefaultQueueSize {
		t.Errorf("Hub.QueueSize = %d, want %d", cfg.Hub.QueueSize, DefaultQueueSize)
	}
	if cfg.Hub.PingInterval != 54*time.Second {
		t.Errorf("Hub.PingInterval = %s, want 54s", cfg.Hub.PingInterval)
	}
	if cfg.Hub.ReadTimeout != 60*time.Second {
		t.Errorf("Hub.ReadTimeout = %s, want 60s", cfg.Hub.ReadTimeout)
	}
	if cfg.Journal.BatchSize != DefaultBatchSize {
		t.Errorf("Journal.BatchSize = %d, want %d", cfg.Journal.BatchSize, DefaultBatchSize)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoadAndValidate(t *testing.T) {
	yaml := `
instance:
  id: test-streamd
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if !cfg.JournalEnabled() {
		t.Error("JournalEnabled() = false, want true")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "bad queue size",
			mutate:  func(c *Config) { c.Hub.QueueSize = 0 },
			wantErr: "hub.queue_size",
		},
		{
			name: "ping interval longer than read timeout",
			mutate: func(c *Config) {
				c.Hub.PingInterval = 2 * time.Minute
			},
			wantErr: "hub.ping_interval",
		},
		{
			name: "journal without user",
			mutate: func(c *Config) {
				c.Database.Postgres.Host = "localhost"
				c.Database.Postgres.Name = "db"
				c.Database.Postgres.User = ""
			},
			wantErr: "database.postgres.user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Instance: InstanceConfig{ID: "test"}}
			cfg.applyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNoDatabase(t *testing.T) {
	cfg := &Config{Instance: InstanceConfig{ID: "test"}}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil when no database configured", err)
	}
	if cfg.JournalEnabled() {
		t.Error("JournalEnabled() = true, want false")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
