// Package config builds process configuration from the environment, with an
// optional YAML file for deployments that prefer files over env vars. Env
// vars win over file values so container overrides keep working.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"admin_token"`

	// GrantTTL is the default lifetime of a new access grant. Public
	// products get grants without expiry regardless of this value.
	GrantTTL time.Duration `yaml:"grant_ttl"`
	// ExpiryWarningWindow is how long before expiry a grant reads as
	// "expiring".
	ExpiryWarningWindow time.Duration `yaml:"expiry_warning_window"`

	// CollationLocale drives locale-aware catalog name sorting (BCP 47 tag).
	CollationLocale string `yaml:"collation_locale"`

	// ViolationWeight is the compliance-score penalty per recorded violation.
	ViolationWeight int `yaml:"violation_weight"`

	// PostgresDSN selects the Postgres audit store when set; empty keeps the
	// in-memory store.
	PostgresDSN string `yaml:"postgres_dsn"`
	// RedisURL selects the Redis owner-notification publisher when set.
	RedisURL string `yaml:"redis_url"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	return Config{
		Addr:                ":8080",
		AdminToken:          "dev-admin-token-change-in-production",
		GrantTTL:            180 * 24 * time.Hour,
		ExpiryWarningWindow: 30 * 24 * time.Hour,
		CollationLocale:     "en",
		ViolationWeight:     4,
	}
}

// Load builds a Config from defaults, an optional YAML file named by
// MESHGOV_CONFIG, and finally environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("MESHGOV_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MESHGOV_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MESHGOV_ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("MESHGOV_GRANT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GrantTTL = d
		}
	}
	if v := os.Getenv("MESHGOV_EXPIRY_WARNING_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ExpiryWarningWindow = d
		}
	}
	if v := os.Getenv("MESHGOV_COLLATION_LOCALE"); v != "" {
		cfg.CollationLocale = v
	}
	if v := os.Getenv("MESHGOV_VIOLATION_WEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ViolationWeight = n
		}
	}
	if v := os.Getenv("MESHGOV_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("MESHGOV_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
}
