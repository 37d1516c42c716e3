// Package config loads the touchread YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/touchread/internal/db"
	"github.com/jwulff/touchread/internal/settings"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Reader preferences saved in the
// database take precedence over Defaults.
type Config struct {
	DBPath         string `yaml:"db_path"`
	SocketPath     string `yaml:"socket_path"`
	LogFile        string `yaml:"log_file"`
	LogLevel       string `yaml:"log_level"`
	RewindPeriodMS int    `yaml:"rewind_period_ms"`

	Defaults settings.Settings `yaml:"defaults"`

	path string
}

// Dir returns the touchread configuration directory.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "touchread")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:         db.DefaultDBPath(),
		SocketPath:     filepath.Join(Dir(), "touchread.sock"),
		LogFile:        filepath.Join(Dir(), "touchread.log"),
		LogLevel:       "info",
		RewindPeriodMS: 100,
		Defaults:       settings.Default(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Fields absent from the file keep their defaults.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// RewindPeriod returns the rewind repeat interval.
func (c *Config) RewindPeriod() time.Duration {
	return time.Duration(c.RewindPeriodMS) * time.Millisecond
}

func (c *Config) normalize() {
	c.DBPath = expandHome(strings.TrimSpace(c.DBPath))
	c.SocketPath = expandHome(strings.TrimSpace(c.SocketPath))
	c.LogFile = expandHome(strings.TrimSpace(c.LogFile))
	if c.DBPath == "" {
		c.DBPath = db.DefaultDBPath()
	}
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(Dir(), "touchread.sock")
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}

	if c.RewindPeriodMS <= 0 {
		c.RewindPeriodMS = 100
	}
	c.Defaults = c.Defaults.Normalize()
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
