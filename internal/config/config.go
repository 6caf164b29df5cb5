package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tabdeck/internal/runtimepath"
)

// WindowHost configures the X11 window host collaborator.
type WindowHost struct {
	// Enabled turns host window tracking on. Without it the shell only
	// manages windows it created itself.
	Enabled bool `yaml:"enabled"`
	// Classes lists the WM_CLASS values recognized as shell windows.
	Classes []string `yaml:"classes"`
}

// Config holds the daemon configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// SnapshotDebounceMS is the quiet period before a burst of state
	// changes is persisted as one ordering snapshot.
	SnapshotDebounceMS int `yaml:"snapshot_debounce_ms"`

	// ReconcileIntervalSeconds is the period of the corrective host-window
	// reconciliation pass.
	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`

	// DataDir overrides the snapshot database location. Empty means the
	// XDG data dir.
	DataDir string `yaml:"data_dir,omitempty"`

	WindowHost WindowHost `yaml:"window_host"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:                 "info",
		SnapshotDebounceMS:       50,
		ReconcileIntervalSeconds: 10,
		WindowHost: WindowHost{
			Enabled: false,
			Classes: []string{"tabdeck", "Tabdeck"},
		},
	}
}

// SnapshotDebounce returns the snapshot debounce window as a duration.
func (c *Config) SnapshotDebounce() time.Duration {
	return time.Duration(c.SnapshotDebounceMS) * time.Millisecond
}

// ReconcileInterval returns the reconciler period as a duration.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// DatabasePath resolves the snapshot database file path.
func (c *Config) DatabasePath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		var err error
		dir, err = runtimepath.DataDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "tabdeck.db"), nil
}

// ValidationError describes an invalid config value at a YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.SnapshotDebounceMS < 0 {
		return &ValidationError{Path: "snapshot_debounce_ms", Err: fmt.Errorf("snapshot_debounce_ms must be >= 0")}
	}
	if c.ReconcileIntervalSeconds <= 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be > 0")}
	}
	if c.WindowHost.Enabled && len(c.WindowHost.Classes) == 0 {
		return &ValidationError{Path: "window_host.classes", Err: fmt.Errorf("window_host.classes must not be empty when the host is enabled")}
	}
	for i, class := range c.WindowHost.Classes {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: fmt.Sprintf("window_host.classes[%d]", i), Err: fmt.Errorf("class must not be empty")}
		}
	}
	return nil
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tabdeck", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path, layered over
// the defaults. Unknown keys are rejected.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
