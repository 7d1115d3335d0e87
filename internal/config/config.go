// Package config loads and validates broker configuration from env and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Store backends selectable via TOKEN_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// AppName is used for the startup banner and log context.
	AppName string `mapstructure:"APP_NAME"`
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`

	// TokenStore selects the durable store backend: memory or postgres.
	// Memory is for development and tests only.
	TokenStore string `mapstructure:"TOKEN_STORE"`
	// DatabaseURL is the Postgres DSN; required when TOKEN_STORE=postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RedisURL, when set, moves SSO tickets to Redis; codes and token
	// pairs stay on the primary store.
	RedisURL string `mapstructure:"REDIS_URL"`

	// UserDirectoryURL is the base URL of the internal user service used to
	// enrich SSO redemptions. Empty disables enrichment.
	UserDirectoryURL string `mapstructure:"USER_DIRECTORY_URL"`

	// SSOTokenTTL is the single-use ticket lifetime (e.g. "5m").
	SSOTokenTTL string `mapstructure:"SSO_TOKEN_TTL"`
	// AuthCodeTTL is the authorization-code lifetime (e.g. "10m").
	AuthCodeTTL string `mapstructure:"AUTH_CODE_TTL"`
	// AccessTokenTTL is the access-token lifetime (e.g. "1h").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// SweepInterval is the expiry-sweeper cadence (e.g. "15m").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`

	// BootstrapClientID/Secret seed a first client into an empty registry
	// on startup (dev convenience; leave empty in production).
	BootstrapClientID     string `mapstructure:"BOOTSTRAP_CLIENT_ID"`
	BootstrapClientSecret string `mapstructure:"BOOTSTRAP_CLIENT_SECRET"`
	BootstrapRedirectURI  string `mapstructure:"BOOTSTRAP_REDIRECT_URI"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored (e.g. in CI); env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "Auth Broker")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TOKEN_STORE", StoreMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("USER_DIRECTORY_URL", "")
	v.SetDefault("SSO_TOKEN_TTL", "5m")
	v.SetDefault("AUTH_CODE_TTL", "10m")
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("SWEEP_INTERVAL", "15m")
	v.SetDefault("BOOTSTRAP_CLIENT_ID", "")
	v.SetDefault("BOOTSTRAP_CLIENT_SECRET", "")
	v.SetDefault("BOOTSTRAP_REDIRECT_URI", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.TokenStore {
	case StoreMemory:
		if cfg.Env == "production" {
			return nil, errors.New("config: TOKEN_STORE=memory must not be used when APP_ENV=production")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when TOKEN_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("config: unknown TOKEN_STORE %q", cfg.TokenStore)
	}

	return &cfg, nil
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// SSOExpiry parses SSOTokenTTL. Returns 5m if unset or invalid.
func (c *Config) SSOExpiry() time.Duration {
	return durationOr(c.SSOTokenTTL, 5*time.Minute)
}

// CodeExpiry parses AuthCodeTTL. Returns 10m if unset or invalid.
func (c *Config) CodeExpiry() time.Duration {
	return durationOr(c.AuthCodeTTL, 10*time.Minute)
}

// AccessExpiry parses AccessTokenTTL. Returns 1h if unset or invalid.
func (c *Config) AccessExpiry() time.Duration {
	return durationOr(c.AccessTokenTTL, time.Hour)
}

// SweeperInterval parses SweepInterval. Returns 15m if unset or invalid.
func (c *Config) SweeperInterval() time.Duration {
	return durationOr(c.SweepInterval, 15*time.Minute)
}
