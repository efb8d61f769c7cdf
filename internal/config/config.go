// Package config loads and validates the application configuration from
// environment variables (FLARE_ prefix) layered over an optional YAML file.
// Environment values take precedence over file values.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// defaultsPrefix is an env prefix no deployment sets. Processing under it
// yields the struct-tag defaults untouched by the real environment.
const defaultsPrefix = "FLARE_TAG_DEFAULTS"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Dataset  DatasetConfig  `yaml:"dataset" envconfig:"DATASET"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DatasetConfig locates the source CSV and names its columns. Two schema
// presets cover the known export variants; an explicit column mapping
// overrides the preset field by field.
type DatasetConfig struct {
	// Source is the CSV file the canonical table is loaded from.
	Source string `yaml:"source" envconfig:"SOURCE" default:"data/euvs_summary.csv"`

	// SchemaPreset selects a built-in column mapping: "euvs" or "events".
	SchemaPreset string `yaml:"schema_preset" envconfig:"SCHEMA_PRESET" default:"euvs"`

	// Columns override individual preset entries when non-empty.
	Columns ColumnMapping `yaml:"columns" envconfig:"COLUMNS"`

	// HighActivityThreshold is the default W/m² threshold used when a
	// request does not supply one. 1e-6 is the C-class boundary.
	HighActivityThreshold float64 `yaml:"high_activity_threshold" envconfig:"HIGH_ACTIVITY_THRESHOLD" default:"1e-6"`
}

// ColumnMapping maps logical field names to physical CSV header names.
// Empty entries mean "use the preset value" (or "column absent" for the
// optional fields when the preset has no entry either).
type ColumnMapping struct {
	Timestamp      string `yaml:"timestamp" envconfig:"TIMESTAMP"`
	Flux           string `yaml:"flux" envconfig:"FLUX"`
	Status         string `yaml:"status" envconfig:"STATUS"`
	FlareClass     string `yaml:"flare_class" envconfig:"FLARE_CLASS"`
	IntegratedFlux string `yaml:"integrated_flux" envconfig:"INTEGRATED_FLUX"`
	BackgroundFlux string `yaml:"background_flux" envconfig:"BACKGROUND_FLUX"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load layers the configuration: struct-tag defaults, then the optional
// YAML file, then FLARE_ environment variables.
//
// envconfig fills the struct-tag default for every variable the environment
// does not set, so a single Process call cannot tell an env value from a
// default. The defaults are therefore captured separately under a prefix no
// deployment sets, the file is unmarshaled over them, and env values are
// applied only where they differ from the defaults. The one blind spot: an
// env variable set to exactly its default cannot be distinguished from
// unset and yields to the file.
func Load() (*Config, error) {
	var defaults Config
	if err := envconfig.Process(defaultsPrefix, &defaults); err != nil {
		return nil, fmt.Errorf("failed to resolve config defaults: %w", err)
	}

	cfg := defaults
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	var env Config
	if err := envconfig.Process("FLARE", &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	applyEnv(&cfg, env, defaults)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile unmarshals the YAML file over cfg in place, so keys absent
// from the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays env onto cfg field by field, skipping fields where env
// still carries the struct-tag default.
func applyEnv(cfg *Config, env, defaults Config) {
	if env.Server.Port != defaults.Server.Port {
		cfg.Server.Port = env.Server.Port
	}
	if env.Server.ReadTimeout != defaults.Server.ReadTimeout {
		cfg.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if env.Server.WriteTimeout != defaults.Server.WriteTimeout {
		cfg.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if env.Server.IdleTimeout != defaults.Server.IdleTimeout {
		cfg.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if env.Server.MaxHeaderBytes != defaults.Server.MaxHeaderBytes {
		cfg.Server.MaxHeaderBytes = env.Server.MaxHeaderBytes
	}
	if env.Server.ShutdownTimeout != defaults.Server.ShutdownTimeout {
		cfg.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}

	if !slices.Equal(env.Security.AllowedOrigins, defaults.Security.AllowedOrigins) {
		cfg.Security.AllowedOrigins = env.Security.AllowedOrigins
	}
	if env.Security.EnableCORS != defaults.Security.EnableCORS {
		cfg.Security.EnableCORS = env.Security.EnableCORS
	}
	if env.Security.RateLimit.Enabled != defaults.Security.RateLimit.Enabled {
		cfg.Security.RateLimit.Enabled = env.Security.RateLimit.Enabled
	}
	if env.Security.RateLimit.RPS != defaults.Security.RateLimit.RPS {
		cfg.Security.RateLimit.RPS = env.Security.RateLimit.RPS
	}
	if env.Security.RateLimit.Burst != defaults.Security.RateLimit.Burst {
		cfg.Security.RateLimit.Burst = env.Security.RateLimit.Burst
	}

	if env.Logging.Level != defaults.Logging.Level {
		cfg.Logging.Level = env.Logging.Level
	}
	if env.Logging.Format != defaults.Logging.Format {
		cfg.Logging.Format = env.Logging.Format
	}
	if env.Logging.Output != defaults.Logging.Output {
		cfg.Logging.Output = env.Logging.Output
	}
	if env.Logging.FilePath != defaults.Logging.FilePath {
		cfg.Logging.FilePath = env.Logging.FilePath
	}
	if env.Logging.Development != defaults.Logging.Development {
		cfg.Logging.Development = env.Logging.Development
	}

	if env.Dataset.Source != defaults.Dataset.Source {
		cfg.Dataset.Source = env.Dataset.Source
	}
	if env.Dataset.SchemaPreset != defaults.Dataset.SchemaPreset {
		cfg.Dataset.SchemaPreset = env.Dataset.SchemaPreset
	}
	if env.Dataset.Columns.Timestamp != defaults.Dataset.Columns.Timestamp {
		cfg.Dataset.Columns.Timestamp = env.Dataset.Columns.Timestamp
	}
	if env.Dataset.Columns.Flux != defaults.Dataset.Columns.Flux {
		cfg.Dataset.Columns.Flux = env.Dataset.Columns.Flux
	}
	if env.Dataset.Columns.Status != defaults.Dataset.Columns.Status {
		cfg.Dataset.Columns.Status = env.Dataset.Columns.Status
	}
	if env.Dataset.Columns.FlareClass != defaults.Dataset.Columns.FlareClass {
		cfg.Dataset.Columns.FlareClass = env.Dataset.Columns.FlareClass
	}
	if env.Dataset.Columns.IntegratedFlux != defaults.Dataset.Columns.IntegratedFlux {
		cfg.Dataset.Columns.IntegratedFlux = env.Dataset.Columns.IntegratedFlux
	}
	if env.Dataset.Columns.BackgroundFlux != defaults.Dataset.Columns.BackgroundFlux {
		cfg.Dataset.Columns.BackgroundFlux = env.Dataset.Columns.BackgroundFlux
	}
	if env.Dataset.HighActivityThreshold != defaults.Dataset.HighActivityThreshold {
		cfg.Dataset.HighActivityThreshold = env.Dataset.HighActivityThreshold
	}

	if env.Paths.DataDir != defaults.Paths.DataDir {
		cfg.Paths.DataDir = env.Paths.DataDir
	}
	if env.Paths.ReportsDir != defaults.Paths.ReportsDir {
		cfg.Paths.ReportsDir = env.Paths.ReportsDir
	}
	if env.Paths.LogsDir != defaults.Paths.LogsDir {
		cfg.Paths.LogsDir = env.Paths.LogsDir
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Dataset.SchemaPreset) {
	case "euvs", "events", "":
	default:
		return fmt.Errorf("unknown dataset schema preset: %s", c.Dataset.SchemaPreset)
	}

	if c.Dataset.HighActivityThreshold < 0 {
		return fmt.Errorf("high activity threshold must be non-negative, got %g", c.Dataset.HighActivityThreshold)
	}

	return nil
}

// getConfigFilePath returns the config file path, honoring FLARE_CONFIG_FILE
func getConfigFilePath() string {
	if path := os.Getenv("FLARE_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
