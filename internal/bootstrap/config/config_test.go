package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: fleet.sqlite
storage:
  server_url: https://fleet.example.com
saga:
  max_attempts: 2
permissions:
  safety_manager:
    events: write
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "fleet.sqlite" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Storage.Driver != "fs" || cfg.Storage.ServerURL != "https://fleet.example.com" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.WriteTimeout != 30*time.Second || cfg.Saga.MaxAttempts != 2 || cfg.Saga.InitialBackoff != 50*time.Millisecond {
		t.Fatalf("durations not decoded: %+v %+v", cfg.Storage, cfg.Saga)
	}
	if cfg.Permissions["safety_manager"]["events"] != "write" {
		t.Fatalf("permissions = %v", cfg.Permissions)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: fleet.sqlite\n")
	t.Setenv("FLEET_STORAGE_DRIVER", "memory")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage.driver = %q, want memory", cfg.Storage.Driver)
	}
}

func TestLoadRejectsS3WithoutBucket(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: s3\n")
	if _, err := Load(context.Background(), path); err == nil {
		t.Fatalf("Load() expected error for s3 without bucket")
	}
}
