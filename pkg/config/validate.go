package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for consistency.
// Call after ApplyDefaults; zero values that defaults would have filled are
// treated as errors here.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address cannot be empty")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level %q is not one of debug, info, warn, error", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text", cfg.Telemetry.Logging.Format)
	}

	if cfg.Engine.GlobalLimitFactor <= 0 {
		return fmt.Errorf("engine.global_limit_factor must be positive, got %d", cfg.Engine.GlobalLimitFactor)
	}
	if cfg.Engine.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Engine.CleanupSchedule); err != nil {
			return fmt.Errorf("engine.cleanup_schedule: %w", err)
		}
	}

	seen := make(map[string]bool, len(cfg.Policies))
	for i, p := range cfg.Policies {
		if p.Name == "" {
			return fmt.Errorf("policies[%d]: name cannot be empty", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("policies[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.BaseLimit <= 0 {
			return fmt.Errorf("policy %q: base_limit must be positive, got %d", p.Name, p.BaseLimit)
		}
		if p.Window <= 0 {
			return fmt.Errorf("policy %q: window must be positive", p.Name)
		}
		if p.Priority < 1 {
			return fmt.Errorf("policy %q: priority must be >= 1, got %d", p.Name, p.Priority)
		}
		for role, m := range p.RoleMultipliers {
			if m < 0 {
				return fmt.Errorf("policy %q: negative multiplier %v for role %q", p.Name, m, role)
			}
		}
	}

	if cfg.Quota.ExecutionCritical < cfg.Quota.ExecutionWarning {
		return fmt.Errorf("quota.execution_critical %v below quota.execution_warning %v",
			cfg.Quota.ExecutionCritical.Std(), cfg.Quota.ExecutionWarning.Std())
	}
	if cfg.Quota.ResetHourUTC < 0 || cfg.Quota.ResetHourUTC > 23 {
		return fmt.Errorf("quota.reset_hour_utc must be 0-23, got %d", cfg.Quota.ResetHourUTC)
	}
	for i, d := range cfg.Quota.Daily {
		if d.Name == "" {
			return fmt.Errorf("quota.daily[%d]: name cannot be empty", i)
		}
		if d.Limit <= 0 {
			return fmt.Errorf("quota.daily %q: limit must be positive, got %d", d.Name, d.Limit)
		}
		if d.WarningAt < 0 || d.WarningAt > 1 || d.CriticalAt < 0 || d.CriticalAt > 1 {
			return fmt.Errorf("quota.daily %q: thresholds must be fractions in 0..1", d.Name)
		}
		if d.WarningAt > 0 && d.CriticalAt > 0 && d.CriticalAt < d.WarningAt {
			return fmt.Errorf("quota.daily %q: critical_at below warning_at", d.Name)
		}
	}

	if cfg.Abuse.Threshold < 1 {
		return fmt.Errorf("abuse.threshold must be >= 1, got %d", cfg.Abuse.Threshold)
	}
	if cfg.Abuse.MaxBlock < cfg.Abuse.BlockStep {
		return fmt.Errorf("abuse.max_block %v below abuse.block_step %v",
			cfg.Abuse.MaxBlock.Std(), cfg.Abuse.BlockStep.Std())
	}

	if cfg.Queue.MaxDepth < 0 {
		return fmt.Errorf("queue.max_depth cannot be negative, got %d", cfg.Queue.MaxDepth)
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, sqlite", cfg.Storage.Backend)
	}

	return nil
}
