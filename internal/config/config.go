package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/partyline/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer    int   `mapstructure:"client_buffer" yaml:"client_buffer"`
	MaxNameLength   int   `mapstructure:"max_name_length" yaml:"max_name_length"`

	DatabasePath string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer    string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience  string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	AuthRequired bool          `mapstructure:"auth_required" yaml:"auth_required"`

	AdminName        string `mapstructure:"admin_name" yaml:"admin_name"`
	AdminDisplayName string `mapstructure:"admin_display_name" yaml:"admin_display_name"`
	// AdminPassword, when set, provisions a login account for AdminName at startup.
	AdminPassword string `mapstructure:"admin_password" yaml:"admin_password"`

	UploadDir      string `mapstructure:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	Timezone        string `mapstructure:"timezone" yaml:"timezone"`
	TimestampLayout string `mapstructure:"timestamp_layout" yaml:"timestamp_layout"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// TrustForwardedFor takes the client address from X-Forwarded-For.
	// Enable it only behind a reverse proxy that overwrites the header.
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for" yaml:"trust_forwarded_for"`
}

// DefaultJWTSecret is the placeholder secret shipped in new config files.
const DefaultJWTSecret = "change-me"

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   1 << 20,
		ClientBuffer:      core.DefaultClientBuffer,
		MaxNameLength:     core.DefaultMaxNameLength,
		DatabasePath:      "partyline.db",
		JWTSecret:         DefaultJWTSecret,
		JWTIssuer:         "partyline",
		JWTAudience:       "partyline",
		JWTTTL:            24 * time.Hour,
		AdminName:         core.DefaultAdminName,
		AdminDisplayName:  core.DefaultAdminDisplayName,
		UploadDir:         "uploads",
		MaxUploadBytes:    10 << 20,
		Timezone:          core.DefaultTimezone,
		TimestampLayout:   core.DefaultTimestampLayout,
		AllowedOrigins:    []string{"*"},
		TrustForwardedFor: false,
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if f := strings.ToLower(c.LogFormat); f != "" && f != "console" && f != "json" {
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if c.MaxNameLength <= 0 {
		errs = append(errs, fmt.Errorf("max_name_length must be positive, got %d", c.MaxNameLength))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.AuthRequired && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("auth_required needs jwt_secret changed from the default"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("jwt_ttl must be positive, got %s", c.JWTTTL))
	}
	if c.AdminPassword != "" && c.AdminName == "" {
		errs = append(errs, errors.New("admin_password is set but admin_name is empty"))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves the configured time zone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
