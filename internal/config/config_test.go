package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{
			"bad log level",
			func(c *Config) { c.LogLevel = "verbose" },
			"log_level",
		},
		{
			"negative debounce",
			func(c *Config) { c.SnapshotDebounceMS = -1 },
			"snapshot_debounce_ms",
		},
		{
			"zero reconcile interval",
			func(c *Config) { c.ReconcileIntervalSeconds = 0 },
			"reconcile_interval_seconds",
		},
		{
			"host enabled without classes",
			func(c *Config) {
				c.WindowHost.Enabled = true
				c.WindowHost.Classes = nil
			},
			"window_host.classes",
		},
		{
			"blank class",
			func(c *Config) { c.WindowHost.Classes = []string{" "} },
			"window_host.classes[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T", err)
			}
			if verr.Path != tt.wantPath {
				t.Errorf("path = %s, want %s", verr.Path, tt.wantPath)
			}
		})
	}
}

func TestLoadFromPathMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.SnapshotDebounceMS != 50 {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFromPathLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
snapshot_debounce_ms: 100
reconcile_interval_seconds: 30
window_host:
  enabled: true
  classes: ["firefox", "Firefox"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %s", cfg.LogLevel)
	}
	if cfg.SnapshotDebounce() != 100*time.Millisecond {
		t.Errorf("debounce = %v", cfg.SnapshotDebounce())
	}
	if cfg.ReconcileInterval() != 30*time.Second {
		t.Errorf("interval = %v", cfg.ReconcileInterval())
	}
	if !cfg.WindowHost.Enabled || len(cfg.WindowHost.Classes) != 2 {
		t.Errorf("window_host = %+v", cfg.WindowHost)
	}
}

func TestLoadFromPathRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_levle: debug\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("misspelled key accepted")
	}
}

func TestDatabasePathHonorsDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/tabdeck"

	path, err := cfg.DatabasePath()
	if err != nil {
		t.Fatalf("database path: %v", err)
	}
	if path != "/var/lib/tabdeck/tabdeck.db" {
		t.Errorf("path = %s", path)
	}
}
