// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, PANACEA_* prefix)
//  2. Config file (~/.panacea/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - API: Backend base URL, bearer token, dev-mode auth bypass
//   - Log: Level, format
//   - Storage: Local data directory for the durable client store
//
// Security: The API token is never logged; config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBaseURL indicates the API base URL is missing or not http(s).
	ErrInvalidBaseURL = errors.New("invalid API base URL")

	// ErrMissingToken indicates no API token is configured outside dev mode.
	ErrMissingToken = errors.New("missing API token")

	// ErrInvalidLogLevel indicates the log level is not one of debug/info/warn/error.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidDataDir indicates the data directory cannot be created.
	ErrInvalidDataDir = errors.New("invalid data directory")
)

// Log level identifiers used in Config.LogLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (tokens, secrets), update MarshalJSON.
type Config struct {
	// Backend API configuration
	APIBaseURL string `mapstructure:"api_base_url" json:"api_base_url"`
	APIToken   string `mapstructure:"api_token" json:"api_token"` // SENSITIVE: masked in MarshalJSON
	DevMode    bool   `mapstructure:"dev_mode" json:"dev_mode"`   // Skip bearer auth against a local backend

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // "debug", "info", "warn", "error"
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Local storage configuration
	DataDir string `mapstructure:"data_dir" json:"data_dir"` // Durable store location (default ~/.panacea)
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.panacea/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".panacea")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("api_base_url", "http://localhost:8000/api")
	v.SetDefault("dev_mode", false)
	v.SetDefault("log_level", LevelInfo)
	v.SetDefault("log_json", false)
	v.SetDefault("data_dir", configDir)
}

// bindEnvVariables binds environment variables explicitly.
// The token is env-only by convention so it never lands in a config file
// committed by accident; the rest are overrides.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_token", "PANACEA_API_TOKEN")
	mustBind("api_base_url", "PANACEA_API_BASE_URL")
	mustBind("dev_mode", "PANACEA_DEV_MODE")
	mustBind("log_level", "PANACEA_LOG_LEVEL")
	mustBind("data_dir", "PANACEA_DATA_DIR")
}

// Validate checks the configuration for fatal misconfiguration.
// Returns a sentinel error (wrapped with detail) on the first failure.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.APIBaseURL)
	}

	if !c.DevMode && c.APIToken == "" {
		return fmt.Errorf("%w: set PANACEA_API_TOKEN or enable dev_mode", ErrMissingToken)
	}

	switch c.LogLevel {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDataDir)
	}

	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
// Validate guarantees the value is one of the four known levels.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// maskedValue is the placeholder for masked sensitive data.
// Using ████████ (full-width blocks U+2588) to avoid substring matching.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: For secrets <=8 chars, fully masks to prevent substring attacks.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - APIToken
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIToken = maskSecret(a.APIToken)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// BaseURL returns the API base URL with any trailing slash trimmed,
// so resource clients can join paths without double slashes.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIBaseURL, "/")
}
