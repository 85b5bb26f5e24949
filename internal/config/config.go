// Package config loads certtrack configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all certtrack configuration.
type Config struct {
	// HTTP listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	Database DatabaseConfig `yaml:"database"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Session  SessionConfig  `yaml:"session"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UploadsConfig configures attachment storage.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
	// MaxBytes caps a single uploaded file. 0 means the default (20 MiB).
	MaxBytes int64 `yaml:"max_bytes"`
}

// SessionConfig configures login sessions.
type SessionConfig struct {
	TTL string `yaml:"ttl"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	// TemplatesDir, when set, overrides the embedded page templates and
	// enables hot reload on change. Development only.
	TemplatesDir    string `yaml:"templates_dir"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoggingConfig configures zap output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr: ":8080",
		Database: DatabaseConfig{
			Path: "certtrack.db",
		},
		Uploads: UploadsConfig{
			Dir:      "uploads",
			MaxBytes: 20 << 20,
		},
		Session: SessionConfig{
			TTL: "12h",
		},
		Server: ServerConfig{
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CERTTRACK_ADDR"); addr != "" {
		c.Addr = addr
	}
	if path := os.Getenv("CERTTRACK_DB"); path != "" {
		c.Database.Path = path
	}
	if dir := os.Getenv("CERTTRACK_UPLOADS"); dir != "" {
		c.Uploads.Dir = dir
	}
	if ttl := os.Getenv("CERTTRACK_SESSION_TTL"); ttl != "" {
		c.Session.TTL = ttl
	}
	if lvl := os.Getenv("CERTTRACK_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// SessionTTL parses the session TTL, defaulting to 12h on bad input.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// ReadTimeout parses the HTTP read timeout, defaulting to 15s.
func (c *Config) ReadTimeout() time.Duration {
	return parseDurationOr(c.Server.ReadTimeout, 15*time.Second)
}

// WriteTimeout parses the HTTP write timeout, defaulting to 30s.
func (c *Config) WriteTimeout() time.Duration {
	return parseDurationOr(c.Server.WriteTimeout, 30*time.Second)
}

// ShutdownTimeout parses the graceful-shutdown budget, defaulting to 10s.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// MaxUploadBytes returns the per-file upload cap.
func (c *Config) MaxUploadBytes() int64 {
	if c.Uploads.MaxBytes <= 0 {
		return 20 << 20
	}
	return c.Uploads.MaxBytes
}

// Validate checks for configuration that cannot work.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir must not be empty")
	}
	return nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
