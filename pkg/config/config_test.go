package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 15s
telemetry:
  logging:
    level: debug
    format: text
engine:
  global_limit_factor: 20
  cleanup_schedule: "*/10 * * * *"
policies:
  - name: CASE_READ
    base_limit: 100
    window: 60s
    priority: 1
    role_multipliers:
      admin: 3.0
      anonymous: 0.5
quota:
  execution_warning: 4m
  execution_critical: 5m
  reset_hour_utc: 3
  daily:
    - name: SHEETS_API_CALLS
      limit: 20000
      warning_at: 0.8
      critical_at: 0.95
abuse:
  violation_window: 1h
  threshold: 5
  block_step: 60s
  max_block: 1h
queue:
  max_depth: 1000
  max_age: 5m
storage:
  backend: sqlite
  path: /var/lib/sentinel/counters.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("Unexpected listen address: %s", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout.Std() != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %v", cfg.Server.ReadTimeout.Std())
	}
	if cfg.Engine.GlobalLimitFactor != 20 {
		t.Errorf("Expected global limit factor 20, got %d", cfg.Engine.GlobalLimitFactor)
	}
	if len(cfg.Policies) != 1 || cfg.Policies[0].Window.Std() != time.Minute {
		t.Errorf("Unexpected policies: %+v", cfg.Policies)
	}
	if cfg.Policies[0].RoleMultipliers["admin"] != 3.0 {
		t.Errorf("Unexpected role multipliers: %v", cfg.Policies[0].RoleMultipliers)
	}
	if cfg.Quota.ResetHourUTC != 3 {
		t.Errorf("Expected reset hour 3, got %d", cfg.Quota.ResetHourUTC)
	}
	if cfg.Abuse.BlockStep.Std() != time.Minute {
		t.Errorf("Expected block step 60s, got %v", cfg.Abuse.BlockStep.Std())
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", cfg.Storage.Backend)
	}
}

func TestLoad_EmptyFileGetsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:8787" {
		t.Errorf("Unexpected default listen address: %s", cfg.Server.ListenAddress)
	}
	if cfg.Engine.GlobalLimitFactor != 10 {
		t.Errorf("Expected default global limit factor 10, got %d", cfg.Engine.GlobalLimitFactor)
	}
	if len(cfg.Policies) != 7 {
		t.Errorf("Expected 7 default policies, got %d", len(cfg.Policies))
	}
	if cfg.Quota.ExecutionCritical.Std() != 5*time.Minute {
		t.Errorf("Expected default execution critical 5m, got %v", cfg.Quota.ExecutionCritical.Std())
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Expected memory backend default, got %s", cfg.Storage.Backend)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  read_timeout: "not-a-duration"
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Errorf("Default configuration failed validation: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			want:   "logging.level",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "bad cron schedule",
			mutate: func(c *Config) { c.Engine.CleanupSchedule = "every five minutes" },
			want:   "cleanup_schedule",
		},
		{
			name: "duplicate policy",
			mutate: func(c *Config) {
				c.Policies = append(c.Policies, c.Policies[0])
			},
			want: "duplicate",
		},
		{
			name:   "reset hour out of range",
			mutate: func(c *Config) { c.Quota.ResetHourUTC = 25 },
			want:   "reset_hour_utc",
		},
		{
			name: "threshold fraction out of range",
			mutate: func(c *Config) {
				c.Quota.Daily[0].WarningAt = 1.5
			},
			want: "fractions",
		},
		{
			name: "max block below step",
			mutate: func(c *Config) {
				c.Abuse.BlockStep = Duration(2 * time.Hour)
			},
			want: "max_block",
		},
		{
			name:   "negative queue depth",
			mutate: func(c *Config) { c.Queue.MaxDepth = -1 },
			want:   "max_depth",
		},
		{
			name:   "unknown storage backend",
			mutate: func(c *Config) { c.Storage.Backend = "redis" },
			want:   "storage.backend",
		},
		{
			name:   "sqlite without path",
			mutate: func(c *Config) { c.Storage.Backend = "sqlite" },
			want:   "storage.path",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDuration_RoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML failed: %v", err)
	}
	if out != "1m30s" {
		t.Errorf("Expected 1m30s, got %v", out)
	}
}
