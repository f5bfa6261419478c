package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DB_DRIVER", "DB_CONNECTION", "HOUSEHOLD_TZ", "CURRENCY", "JWT_SECRET", "RATE_LIMIT_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "sqlite")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want 120", cfg.RateLimitPerMinute)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development by default")
	}
	if cfg.Location() == nil {
		t.Error("expected a location")
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Errorf("JWTSecret = %q, want development secret", cfg.JWTSecret)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HOUSEHOLD_TZ", "UTC")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location = %q, want UTC", cfg.Location())
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad tz", map[string]string{"HOUSEHOLD_TZ": "Mars/Olympus"}},
		{"bad driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"production without secret", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOUSEHOLD_TZ", "UTC")
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv("APP_ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
