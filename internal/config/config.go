package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "allowance-development-secret"

type Config struct {
	// Application
	AppEnv string
	Port   string

	// Database (driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Household
	HouseholdTZ string
	Currency    string

	// Security
	JWTSecret          string
	RateLimitPerMinute int

	// Observability (optional)
	LogLevel  string
	SentryDSN string

	location *time.Location
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:             envString("APP_ENV", "development"),
		Port:               envString("PORT", "8080"),
		DBDriver:           envString("DB_DRIVER", "sqlite"),
		DBConnection:       envString("DB_CONNECTION", "allowance.db"),
		HouseholdTZ:        envString("HOUSEHOLD_TZ", "Local"),
		Currency:           envString("CURRENCY", "USD"),
		JWTSecret:          envString("JWT_SECRET", ""),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:           envString("LOG_LEVEL", "info"),
		SentryDSN:          envString("SENTRY_DSN", ""),
	}

	loc, err := time.LoadLocation(cfg.HouseholdTZ)
	if err != nil {
		return nil, fmt.Errorf("HOUSEHOLD_TZ %q: %w", cfg.HouseholdTZ, err)
	}
	cfg.location = loc

	switch cfg.DBDriver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q: want sqlite or pgx", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("production deployment requires JWT_SECRET")
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// Location is the household time zone. Every calendar day is computed in it.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}
