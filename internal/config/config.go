// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// SafeCheck REST backend
	APIURL     string
	APITimeout time.Duration

	// PostgreSQL connection. An empty DBHost disables the audit log and the
	// second factor, both of which need a database.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible store for sessions and builder drafts)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Admin2FA requires a TOTP code after the backend login.
	Admin2FA bool
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		APIURL: envOrDefault("SAFECHECK_API_URL", "http://localhost:3030"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "safecheck"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "safecheck_admin"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	timeout, err := time.ParseDuration(envOrDefault("SAFECHECK_API_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("SAFECHECK_API_TIMEOUT must be a positive duration, got %q", os.Getenv("SAFECHECK_API_TIMEOUT"))
	}
	cfg.APITimeout = timeout

	if v := os.Getenv("ADMIN_2FA"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_2FA must be a boolean, got %q", v)
		}
		cfg.Admin2FA = enabled
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("SAFECHECK_API_URL must be an http(s) URL, got %q", cfg.APIURL)
	}

	if cfg.Env == "production" {
		if cfg.DBEnabled() && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if u.Scheme != "https" {
			return nil, fmt.Errorf("SAFECHECK_API_URL must use https in production")
		}
	}

	if cfg.Admin2FA && !cfg.DBEnabled() {
		return nil, fmt.Errorf("ADMIN_2FA requires POSTGRES_HOST")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// DBEnabled reports whether a PostgreSQL database is configured.
func (c *Config) DBEnabled() bool {
	return c.DBHost != ""
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
