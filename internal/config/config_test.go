package config

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL: "https://api.panacea.test/api",
		APIToken:   "tok-1234567890",
		LogLevel:   LevelInfo,
		DataDir:    "/tmp/panacea",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"nil config", nil, ErrConfigNil},
		{"empty base url", func(c *Config) { c.APIBaseURL = "" }, ErrInvalidBaseURL},
		{"non http scheme", func(c *Config) { c.APIBaseURL = "ftp://host" }, ErrInvalidBaseURL},
		{"missing host", func(c *Config) { c.APIBaseURL = "http://" }, ErrInvalidBaseURL},
		{"missing token", func(c *Config) { c.APIToken = "" }, ErrMissingToken},
		{"dev mode allows empty token", func(c *Config) { c.APIToken = ""; c.DevMode = true }, nil},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrInvalidDataDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.mutate == nil {
				var c *Config
				assert.ErrorIs(t, c.Validate(), tt.wantErr)
				return
			}

			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
	}

	for _, tt := range tests {
		c := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, c.SlogLevel(), tt.level)
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty stays empty", "", ""},
		{"short fully masked", "abc12345", maskedValue},
		{"long keeps edges", "sk-panacea-abcdef", "sk<" + maskedValue + ">ef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, maskSecret(tt.in))
		})
	}
}

func TestMarshalJSON_MasksToken(t *testing.T) {
	t.Parallel()

	c := validConfig()
	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.NotContains(t, string(data), c.APIToken)
	assert.Contains(t, string(data), maskedValue)
	assert.Contains(t, string(data), c.APIBaseURL, "non-sensitive fields intact")
}

func TestString_NeverLeaksToken(t *testing.T) {
	t.Parallel()

	c := validConfig()
	assert.False(t, strings.Contains(c.String(), c.APIToken))
}

func TestBaseURL_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	c := &Config{APIBaseURL: "https://api.test/api/"}
	assert.Equal(t, "https://api.test/api", c.BaseURL())

	c = &Config{APIBaseURL: "https://api.test/api"}
	assert.Equal(t, "https://api.test/api", c.BaseURL())
}
