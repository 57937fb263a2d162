// Package config provides configuration management for the timeline
// service. Settings come from an optional YAML file plus environment
// variables with the TIMELINE_ prefix; environment variables override
// file values, and sensible defaults cover everything else.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the timeline service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Security  SecurityConfig  `yaml:"security"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 7430)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)

	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig contains entity store configuration.
type StorageConfig struct {
	// Engine selects the store backend: sqlite, postgres, or memory
	// (default: sqlite).
	Engine string `yaml:"engine"`

	// DataPath is the SQLite database location (default: ./data/timeline.db).
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string for the postgres engine.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SecurityConfig contains authentication and rate-limit settings.
type SecurityConfig struct {
	// SecurityMode: development or production (default: development).
	// Production requires an APIToken.
	SecurityMode string `yaml:"security_mode"`

	// APIToken is the bearer token required on API requests when set.
	APIToken string `yaml:"api_token"`

	// RateLimit is the sustained requests-per-second allowance per
	// client (default: 25). Zero disables rate limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst allowance on top of RateLimit (default: 50).
	RateBurst int `yaml:"rate_burst"`
}

// BreakerConfig controls the circuit breaker in front of the store.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`      // default: true
	MaxFailures int           `yaml:"max_failures"` // default: 5
	Timeout     time.Duration `yaml:"timeout"`      // open-state dwell (default: 30s)
}

// AnalyticsConfig tunes the engagement analytics defaults.
type AnalyticsConfig struct {
	// WindowDays is the default activity-summary window (default: 90).
	WindowDays int `yaml:"window_days"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the TIMELINE_ prefix.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML file, then applies
// environment overrides on top. A missing file is not an error; the env
// and defaults still apply.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires TIMELINE_POSTGRES_DSN")
	}
	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: production mode requires TIMELINE_API_TOKEN")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            7430,
			Host:            "127.0.0.1",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data/timeline.db",
		},
		Security: SecurityConfig{
			SecurityMode: "development",
			RateLimit:    25,
			RateBurst:    50,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Analytics: AnalyticsConfig{
			WindowDays: 90,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("TIMELINE_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("TIMELINE_HOST", cfg.Server.Host)
	cfg.Server.ReadTimeout = getEnvDuration("TIMELINE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("TIMELINE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("TIMELINE_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Storage.Engine = getEnv("TIMELINE_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("TIMELINE_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("TIMELINE_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.Security.SecurityMode = getEnv("TIMELINE_SECURITY_MODE", cfg.Security.SecurityMode)
	cfg.Security.APIToken = getEnv("TIMELINE_API_TOKEN", cfg.Security.APIToken)
	cfg.Security.RateLimit = getEnvFloat("TIMELINE_RATE_LIMIT", cfg.Security.RateLimit)
	cfg.Security.RateBurst = getEnvInt("TIMELINE_RATE_BURST", cfg.Security.RateBurst)

	cfg.Breaker.Enabled = getEnvBool("TIMELINE_BREAKER_ENABLED", cfg.Breaker.Enabled)
	cfg.Breaker.MaxFailures = getEnvInt("TIMELINE_BREAKER_MAX_FAILURES", cfg.Breaker.MaxFailures)
	cfg.Breaker.Timeout = getEnvDuration("TIMELINE_BREAKER_TIMEOUT", cfg.Breaker.Timeout)

	cfg.Analytics.WindowDays = getEnvInt("TIMELINE_ANALYTICS_WINDOW_DAYS", cfg.Analytics.WindowDays)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. Accepts the forms strconv.ParseBool accepts.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (e.g. "30s")
// or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
