package config

import "time"

// ApplyDefaults fills zero values with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8787"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(5 * time.Second)
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}

	if cfg.Engine.GlobalLimitFactor == 0 {
		cfg.Engine.GlobalLimitFactor = 10
	}
	if cfg.Engine.CleanupSchedule == "" {
		cfg.Engine.CleanupSchedule = "*/5 * * * *"
	}

	if len(cfg.Policies) == 0 {
		cfg.Policies = DefaultPolicies()
	}

	if cfg.Quota.ExecutionWarning == 0 {
		cfg.Quota.ExecutionWarning = Duration(4 * time.Minute)
	}
	if cfg.Quota.ExecutionCritical == 0 {
		cfg.Quota.ExecutionCritical = Duration(5 * time.Minute)
	}
	if len(cfg.Quota.Daily) == 0 {
		cfg.Quota.Daily = DefaultDailyQuotas()
	}

	if cfg.Abuse.ViolationWindow == 0 {
		cfg.Abuse.ViolationWindow = Duration(time.Hour)
	}
	if cfg.Abuse.Threshold == 0 {
		cfg.Abuse.Threshold = 5
	}
	if cfg.Abuse.BlockStep == 0 {
		cfg.Abuse.BlockStep = Duration(time.Minute)
	}
	if cfg.Abuse.MaxBlock == 0 {
		cfg.Abuse.MaxBlock = Duration(time.Hour)
	}

	if cfg.Queue.MaxAge == 0 {
		cfg.Queue.MaxAge = Duration(5 * time.Minute)
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
}

// DefaultPolicies is the built-in policy table for the protected backend's
// operation families. Base limits are per principal per window; aggregate
// limits are derived via the engine's global limit factor.
func DefaultPolicies() []PolicyConfig {
	standardRoles := map[string]float64{
		"admin":      3.0,
		"teamLeader": 2.0,
		"user":       1.0,
		"anonymous":  0.5,
	}

	return []PolicyConfig{
		{
			Name:            "CASE_READ",
			BaseLimit:       120,
			Window:          Duration(time.Minute),
			Priority:        1,
			RoleMultipliers: standardRoles,
		},
		{
			Name:            "CASE_CREATE",
			BaseLimit:       20,
			Window:          Duration(time.Minute),
			Priority:        2,
			RoleMultipliers: standardRoles,
		},
		{
			Name:            "CASE_UPDATE",
			BaseLimit:       60,
			Window:          Duration(time.Minute),
			Priority:        2,
			RoleMultipliers: standardRoles,
		},
		{
			Name:            "SEARCH_ADVANCED",
			BaseLimit:       20,
			Window:          Duration(time.Minute),
			Priority:        3,
			RoleMultipliers: standardRoles,
		},
		{
			Name:            "DASHBOARD_REFRESH",
			BaseLimit:       30,
			Window:          Duration(time.Minute),
			Priority:        4,
			RoleMultipliers: standardRoles,
		},
		{
			Name:      "EXPORT_BULK",
			BaseLimit: 5,
			Window:    Duration(10 * time.Minute),
			Priority:  5,
			RoleMultipliers: map[string]float64{
				"admin":      2.0,
				"teamLeader": 1.5,
				"user":       1.0,
				"anonymous":  0.0, // exports never run anonymously
			},
		},
		{
			Name:            "NOTIFICATION_SEND",
			BaseLimit:       30,
			Window:          Duration(time.Hour),
			Priority:        4,
			RoleMultipliers: standardRoles,
		},
	}
}

// DefaultDailyQuotas is the built-in daily shared budget table.
func DefaultDailyQuotas() []DailyQuotaConfig {
	return []DailyQuotaConfig{
		{
			// Every operation ultimately hits the spreadsheet backend.
			Name:  "SHEETS_API_CALLS",
			Limit: 20000,
		},
		{
			Name:       "NOTIFICATION_CALLS",
			Limit:      500,
			Operations: []string{"NOTIFICATION_SEND"},
		},
	}
}
