// Package config holds the gcdserver configuration: one struct, loaded once
// at process start and passed by reference into the components that need it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full gcdserver configuration.
type Config struct {
	// Addr is the HTTP listen address. Default: ":8080".
	Addr string `yaml:"addr"`

	// DBPath is the SQLite database path. Default: "data/gcd.db".
	DBPath string `yaml:"db_path"`

	// LogLevel is one of debug, info, warn, error. Default: "info".
	LogLevel string `yaml:"log_level"`

	Auth  AuthConfig  `yaml:"auth"`
	Audit AuditConfig `yaml:"audit"`
}

// AuthConfig configures token issuance and validation.
type AuthConfig struct {
	// Secret signs HS256 tokens. Required; minimum 32 bytes after derivation.
	Secret string `yaml:"secret"`

	// TokenTTL is the lifetime of issued tokens. Default: 12h.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// AdminUser and AdminPassword seed the first user when the users table
	// is empty. Default user: "admin". No default password: if unset and the
	// table is empty, seeding is skipped.
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
}

// AuditConfig configures the business event log.
type AuditConfig struct {
	// RetentionDays trims audit events older than this. 0 disables cleanup.
	RetentionDays int `yaml:"retention_days"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "data/gcd.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.Auth.AdminUser == "" {
		c.Auth.AdminUser = "admin"
	}
}

// Load reads an optional YAML file, applies environment overrides on top,
// then fills defaults. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.defaults()
	return &cfg, nil
}

// applyEnv overrides file values from the environment. Environment wins so
// deployments can keep one base file and vary secrets per instance.
func (c *Config) applyEnv() {
	if v := os.Getenv("GCD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("GCD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GCD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GCD_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("GCD_ADMIN_USER"); v != "" {
		c.Auth.AdminUser = v
	}
	if v := os.Getenv("GCD_ADMIN_PASSWORD"); v != "" {
		c.Auth.AdminPassword = v
	}
	if v := os.Getenv("GCD_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Auth.TokenTTL = d
		}
	}
}

// Validate reports configuration errors that must stop startup.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("config: auth secret is required (GCD_AUTH_SECRET or auth.secret)")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}
