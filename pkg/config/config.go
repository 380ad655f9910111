package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "60s" or "1h" parse
// directly. yaml.v3 has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root sentinel configuration.
type Config struct {
	// Server configures the admin/ops HTTP surface.
	Server ServerConfig `yaml:"server"`

	// Telemetry configures logging.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Engine configures the governance engine itself.
	Engine EngineConfig `yaml:"engine"`

	// Policies is the operation policy table. Empty uses the built-in
	// defaults.
	Policies []PolicyConfig `yaml:"policies"`

	// Quota configures the shared budget tracker.
	Quota QuotaConfig `yaml:"quota"`

	// Abuse configures the abuse detector.
	Abuse AbuseConfig `yaml:"abuse"`

	// Queue configures the deferred-admission queue.
	Queue QueueConfig `yaml:"queue"`

	// Storage configures the persistent counter store.
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port the admin server binds to.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds request reading.
	ReadTimeout Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writing.
	WriteTimeout Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`

	// AddSource includes file:line in log entries.
	AddSource bool `yaml:"add_source"`
}

// EngineConfig configures the governance engine.
type EngineConfig struct {
	// GlobalLimitFactor scales a policy's base limit into the aggregate
	// limit across all principals.
	GlobalLimitFactor int `yaml:"global_limit_factor"`

	// CleanupSchedule is the cron expression for the recurring cleanup
	// sweep. Empty disables scheduled sweeps.
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// PolicyFile, when set, is watched for changes and hot-reloaded into
	// the policy registry.
	PolicyFile string `yaml:"policy_file"`
}

// PolicyConfig describes one operation policy.
type PolicyConfig struct {
	Name            string             `yaml:"name"`
	BaseLimit       int                `yaml:"base_limit"`
	Window          Duration           `yaml:"window"`
	Priority        int                `yaml:"priority"`
	RoleMultipliers map[string]float64 `yaml:"role_multipliers"`
}

// QuotaConfig configures the shared budget tracker.
type QuotaConfig struct {
	// ExecutionWarning and ExecutionCritical bound the run-scoped
	// wall-clock budget.
	ExecutionWarning  Duration `yaml:"execution_warning"`
	ExecutionCritical Duration `yaml:"execution_critical"`

	// ResetHourUTC is the hour of day (UTC) daily counters reset at.
	ResetHourUTC int `yaml:"reset_hour_utc"`

	// Daily lists the daily shared resources.
	Daily []DailyQuotaConfig `yaml:"daily"`
}

// DailyQuotaConfig describes one daily shared resource.
type DailyQuotaConfig struct {
	Name       string   `yaml:"name"`
	Limit      int64    `yaml:"limit"`
	WarningAt  float64  `yaml:"warning_at"`
	CriticalAt float64  `yaml:"critical_at"`
	Operations []string `yaml:"operations"`
}

// AbuseConfig configures the abuse detector.
type AbuseConfig struct {
	ViolationWindow Duration `yaml:"violation_window"`
	Threshold       int      `yaml:"threshold"`
	BlockStep       Duration `yaml:"block_step"`
	MaxBlock        Duration `yaml:"max_block"`
}

// QueueConfig configures the deferred-admission queue.
type QueueConfig struct {
	// MaxDepth bounds the queue; zero means unbounded.
	MaxDepth int `yaml:"max_depth"`

	// MaxAge is how long an entry may wait before cleanup drops it.
	MaxAge Duration `yaml:"max_age"`
}

// StorageConfig configures the persistent counter store.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file (sqlite backend only).
	Path string `yaml:"path"`
}
