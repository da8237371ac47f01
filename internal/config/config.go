// Package config loads and validates the exporter configuration. A YAML
// file provides the base (optional); enumerated environment variables
// override it, so a bare environment-driven deployment needs no file at
// all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"apigw-exporter/internal/logger"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and the environment are consulted.
const (
	DefaultRegion          = "us-east-1"
	DefaultStage           = "$default"
	DefaultRefreshInterval = 60
	DefaultPort            = 8200
	DefaultMaxWorkers      = 20
)

// Config is the root configuration for the exporter process.
type Config struct {
	AWS       AWSConfig       `yaml:"aws"`
	Exporter  ExporterConfig  `yaml:"exporter"`
	Logger    LoggerConfig    `yaml:"logger"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AWSConfig locates the monitored gateway.
type AWSConfig struct {
	Region string `yaml:"region"`
	APIID  string `yaml:"api_id"`
	Stage  string `yaml:"stage"`
	// Endpoint overrides the AWS endpoint for both the CloudWatch and
	// API Gateway clients. Used to point the exporter at cmd/mock-gateway.
	Endpoint string `yaml:"endpoint"`
}

// ExporterConfig controls the scrape server and the refresh loop.
type ExporterConfig struct {
	Port            int `yaml:"port"`
	RefreshInterval int `yaml:"refresh_interval"` // seconds
	MaxWorkers      int `yaml:"max_workers"`
}

// LoggerConfig configures the zap backend.
type LoggerConfig struct {
	Active   bool          `yaml:"active"`
	Level    string        `yaml:"level"`
	Encoding string        `yaml:"encoding"` // "json" or "console"
	File     LogFileConfig `yaml:"file"`
}

// LogFileConfig enables rotated file output in addition to stderr.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TelemetryConfig configures distributed tracing.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig selects a span exporter. Exporter is "otlp" or "stdout".
type TracingConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Exporter string  `yaml:"exporter"`
	Endpoint string  `yaml:"endpoint"`
	Insecure bool    `yaml:"insecure"`
	Sample   float64 `yaml:"sample"`
}

// LoadConfig builds a Config from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		AWS: AWSConfig{
			Region: DefaultRegion,
			Stage:  DefaultStage,
		},
		Exporter: ExporterConfig{
			Port:            DefaultPort,
			RefreshInterval: DefaultRefreshInterval,
			MaxWorkers:      DefaultMaxWorkers,
		},
		Logger: LoggerConfig{
			Active:   true,
			Level:    "info",
			Encoding: "console",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Exporter: "stdout",
				Sample:   1.0,
			},
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %q: %w", path, err)
			}
			// missing file is fine, the environment carries everything
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays the enumerated environment variables onto cfg.
func (c *Config) applyEnv() error {
	envString(&c.AWS.Region, "AWS_REGION")
	envString(&c.AWS.APIID, "API_ID")
	envString(&c.AWS.Stage, "API_STAGE")
	envString(&c.AWS.Endpoint, "AWS_ENDPOINT_URL")
	envString(&c.Logger.Level, "LOG_LEVEL")

	if err := envInt(&c.Exporter.RefreshInterval, "REFRESH_INTERVAL"); err != nil {
		return err
	}
	if err := envInt(&c.Exporter.Port, "PORT"); err != nil {
		return err
	}
	return envInt(&c.Exporter.MaxWorkers, "MAX_WORKERS")
}

// ValidateConfig checks the invariants that must hold before any loop runs.
// A violation is fatal at startup.
func (c *Config) ValidateConfig() error {
	if c.AWS.APIID == "" {
		return fmt.Errorf("API_ID is required")
	}
	if c.Exporter.Port <= 0 || c.Exporter.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Exporter.Port)
	}
	if c.Exporter.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %d", c.Exporter.RefreshInterval)
	}
	if c.Exporter.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive, got %d", c.Exporter.MaxWorkers)
	}
	switch c.Telemetry.Tracing.Exporter {
	case "", "otlp", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.Tracing.Exporter)
	}
	return nil
}

// LogConfig records the effective configuration at startup.
func (c *Config) LogConfig(lgr logger.Logger) {
	lgr.Info("configuration loaded",
		logger.F("region", c.AWS.Region),
		logger.F("api_id", c.AWS.APIID),
		logger.F("stage", c.AWS.Stage),
		logger.F("endpoint", c.AWS.Endpoint),
		logger.F("port", c.Exporter.Port),
		logger.F("refresh_interval_s", c.Exporter.RefreshInterval),
		logger.F("max_workers", c.Exporter.MaxWorkers),
		logger.F("tracing", c.Telemetry.Tracing.Enabled))
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: expected integer, got %q", key, v)
	}
	*dst = n
	return nil
}
