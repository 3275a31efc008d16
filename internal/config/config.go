// Package config provides YAML-based configuration with environment
// overrides.
//
// The file is created with defaults on first run. Values are then
// overridden from CLAIMS_* environment variables, for example
// CLAIMS_SERVER_PORT=9000 or CLAIMS_ANALYTICS_ENGINE=duckdb.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CLAIMS"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Export    ExportConfig    `yaml:"export"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	BindAddress          string        `yaml:"bind_address" split_words:"true"`
	Port                 int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout          time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout         time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout          time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	BodyLimit            string        `yaml:"body_limit" split_words:"true" validate:"required"`
	EnableCORS           bool          `yaml:"enable_cors" split_words:"true"`
	AllowOrigins         []string      `yaml:"allow_origins" split_words:"true"`
	EnableCompression    bool          `yaml:"enable_compression" split_words:"true"`
	CompressionLevel     int           `yaml:"compression_level" split_words:"true" validate:"min=-1,max=9"`
	EnableRequestLogging bool          `yaml:"enable_request_logging" split_words:"true"`
	// UploadRate is the sustained number of uploads per second per client.
	UploadRate  float64 `yaml:"upload_rate" split_words:"true" validate:"gt=0"`
	UploadBurst int     `yaml:"upload_burst" split_words:"true" validate:"min=1"`
}

// SessionConfig contains session lifecycle settings.
type SessionConfig struct {
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" split_words:"true" validate:"gt=0"`
	MaxSessions     int           `yaml:"max_sessions" split_words:"true" validate:"min=1"`
	ParseCacheTTL   time.Duration `yaml:"parse_cache_ttl" split_words:"true" validate:"gt=0"`
}

// AnalyticsConfig selects the query engine.
type AnalyticsConfig struct {
	Engine        string `yaml:"engine" split_words:"true" validate:"oneof=memory duckdb"`
	TempDirectory string `yaml:"temp_directory" split_words:"true" validate:"required"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=json text"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	DefaultName string `yaml:"default_name" split_words:"true" validate:"required"`
	SheetName   string `yaml:"sheet_name" split_words:"true" validate:"required,max=31"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:          "0.0.0.0",
			Port:                 8089,
			ReadTimeout:          30 * time.Second,
			WriteTimeout:         60 * time.Second,
			IdleTimeout:          120 * time.Second,
			BodyLimit:            "200M",
			EnableCORS:           true,
			AllowOrigins:         []string{"*"},
			EnableCompression:    true,
			CompressionLevel:     5,
			EnableRequestLogging: true,
			UploadRate:           2,
			UploadBurst:          5,
		},
		Session: SessionConfig{
			IdleTimeout:     30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxSessions:     50,
			ParseCacheTTL:   10 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Engine:        "memory",
			TempDirectory: "./data/temp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			DefaultName: "filtered_claims",
			SheetName:   "Filtered Results",
		},
	}
}

// Load reads the YAML file at path, creating it with defaults when it does
// not exist, then applies environment overrides and validates the result.
// Relative directories are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# Claims dashboard configuration\n# This file is auto-generated on first run\n\n")
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(header, out...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Analytics.TempDirectory) {
		c.Analytics.TempDirectory = filepath.Join(configDir, c.Analytics.TempDirectory)
	}
}

// ServerAddr returns the listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates the directories the service writes to.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Analytics.TempDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Analytics.TempDirectory, err)
	}
	return nil
}
