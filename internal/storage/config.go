package storage

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/jacksmith/rk/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the default name of the user configuration file.
	ConfigFile = ".rkconfig.yaml"

	// Default configuration values
	DefaultKind     = "task"
	DefaultBackend  = BackendCSV
	DefaultLogFile  = "rk.log"
	DefaultLogLevel = "info"
)

// Config represents user configuration from .rkconfig.yaml.
// This file is user-managed and never written by rk.
type Config struct {
	// Kind selects the record schema: task, todo or contact.
	Kind string `yaml:"kind"`

	// Backend selects the store: csv, json, yaml, sqlite or badger.
	Backend string `yaml:"backend"`

	// Path is the canonical file or directory. Empty means DefaultPath.
	Path string `yaml:"path"`

	// MaxBackups bounds the number of backups kept per canonical path.
	MaxBackups int `yaml:"max_backups"`

	// LogFile receives the structured log. Empty disables file logging.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Kind:       DefaultKind,
		Backend:    DefaultBackend,
		MaxBackups: DefaultMaxBackups,
		LogFile:    DefaultLogFile,
		LogLevel:   DefaultLogLevel,
	}
}

// LoadConfig loads the config file at path if it exists, otherwise returns
// defaults. Partial config files are merged with defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file - return defaults
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Parse YAML and merge with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that every setting names something rk knows.
func (c *Config) Validate() error {
	if _, err := model.LookupSchema(c.Kind); err != nil {
		return err
	}
	if !slices.Contains(Backends(), strings.ToLower(c.Backend)) {
		return fmt.Errorf("unknown backend %q (valid: %s)", c.Backend, strings.Join(Backends(), ", "))
	}
	if c.MaxBackups < 1 {
		return fmt.Errorf("max_backups must be at least 1, got %d", c.MaxBackups)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// StorePath returns the configured canonical path, or DefaultPath when unset.
func (c *Config) StorePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	s, err := model.LookupSchema(c.Kind)
	if err != nil {
		return "", err
	}
	return DefaultPath(c.Backend, s), nil
}

// DefaultPath returns the conventional canonical path for a backend and kind,
// e.g. "tasks.csv", "contacts.json" or "todos.db".
func DefaultPath(backend string, s *model.Schema) string {
	name := s.Kind + "s"
	switch strings.ToLower(backend) {
	case BackendJSON:
		return name + ".json"
	case BackendYAML:
		return name + ".yaml"
	case BackendSQLite:
		return name + ".db"
	case BackendBadger:
		return name + ".badger"
	default:
		return name + ".csv"
	}
}
