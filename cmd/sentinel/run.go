package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"casesdash/sentinel/pkg/config"
	"casesdash/sentinel/pkg/governance"
	"casesdash/sentinel/pkg/governance/abuse"
	"casesdash/sentinel/pkg/governance/audit"
	"casesdash/sentinel/pkg/governance/policy"
	"casesdash/sentinel/pkg/governance/quota"
	"casesdash/sentinel/pkg/governance/sched"
	"casesdash/sentinel/pkg/governance/storage"
	"casesdash/sentinel/pkg/governance/sweep"
	"casesdash/sentinel/pkg/server"
	"casesdash/sentinel/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the sentinel governance daemon",
	Long: `Start the sentinel governance daemon with the specified configuration.

The daemon exposes the admin HTTP surface (status, statistics, reset,
health, metrics) and runs the periodic cleanup sweep. Protected operation
handlers embed the engine in-process or call the admin surface.

Examples:
  # Start with default config
  sentinel run

  # Start with custom config
  sentinel run --config /etc/sentinel/config.yaml

  # Override listen address
  sentinel run --listen 0.0.0.0:8787

  # Validate config without starting the daemon
  sentinel run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Counter store
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Policy registry
	registry, err := policy.NewRegistry(toPolicies(cfg.Policies))
	if err != nil {
		return fmt.Errorf("failed to build policy registry: %w", err)
	}

	// Quota tracker
	tracker, err := quota.NewTracker(toQuotaConfig(cfg.Quota), store, logger)
	if err != nil {
		return fmt.Errorf("failed to build quota tracker: %w", err)
	}

	// Audit + metrics
	recorder := audit.NewRecorder(logger)
	metrics := governance.NewMetrics()

	// Abuse detector, announcing block creation to audit and metrics
	detector := abuse.NewDetector(abuse.Config{
		ViolationWindow: cfg.Abuse.ViolationWindow.Std(),
		Threshold:       cfg.Abuse.Threshold,
		BlockStep:       cfg.Abuse.BlockStep.Std(),
		MaxBlock:        cfg.Abuse.MaxBlock.Std(),
		OnBlock: func(principalID, operationType string, until time.Time, violations int) {
			recorder.BlockCreated(principalID, operationType, until, violations)
			metrics.RecordBlockCreated(operationType)
		},
	}, logger)

	engine, err := governance.New(governance.Config{
		Policies:          registry,
		Quotas:            tracker,
		Abuse:             detector,
		Queue:             sched.NewQueue(cfg.Queue.MaxDepth),
		Audit:             recorder,
		Metrics:           metrics,
		Logger:            logger,
		GlobalLimitFactor: cfg.Engine.GlobalLimitFactor,
		QueueMaxAge:       cfg.Queue.MaxAge.Std(),
	})
	if err != nil {
		return fmt.Errorf("failed to build governance engine: %w", err)
	}

	// Periodic cleanup sweep
	sweeper := sweep.NewScheduler(engine, cfg.Engine.CleanupSchedule)
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	// Optional policy hot reload
	if cfg.Engine.PolicyFile != "" {
		watcher, err := policy.NewFileWatcher(policy.FileWatcherConfig{
			Path: cfg.Engine.PolicyFile,
		}, logger)
		if err != nil {
			return err
		}
		reload := func() error {
			policies, err := loadPolicyFile(cfg.Engine.PolicyFile)
			if err != nil {
				return err
			}
			return registry.Replace(policies)
		}
		if err := watcher.Start(reload); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	logger.Info("sentinel starting",
		"version", Version,
		"policies", registry.Len(),
		"storage", cfg.Storage.Backend,
	)

	return server.New(server.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
	}, engine, logger).Start(ctx)
}

// loadConfig loads the config file, falling back to built-in defaults when
// the default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "config.yaml" {
		slog.Info("no config file found, using built-in defaults")
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildStore constructs the configured counter store.
func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

// toPolicies converts config policies into registry policies.
func toPolicies(configs []config.PolicyConfig) []policy.OperationPolicy {
	policies := make([]policy.OperationPolicy, 0, len(configs))
	for _, pc := range configs {
		policies = append(policies, policy.OperationPolicy{
			Name:            pc.Name,
			BaseLimit:       pc.BaseLimit,
			Window:          pc.Window.Std(),
			Priority:        pc.Priority,
			RoleMultipliers: pc.RoleMultipliers,
		})
	}
	return policies
}

// toQuotaConfig converts the config quota section into tracker config.
func toQuotaConfig(qc config.QuotaConfig) quota.Config {
	cfg := quota.Config{
		ExecutionWarning:  qc.ExecutionWarning.Std(),
		ExecutionCritical: qc.ExecutionCritical.Std(),
		ResetHourUTC:      qc.ResetHourUTC,
	}
	for _, d := range qc.Daily {
		cfg.Daily = append(cfg.Daily, quota.ResourceConfig{
			Name:       d.Name,
			Limit:      d.Limit,
			WarningAt:  d.WarningAt,
			CriticalAt: d.CriticalAt,
			Operations: d.Operations,
		})
	}
	return cfg
}

// loadPolicyFile reads a standalone policy file for hot reload.
// The file holds either a bare policy list or a full config document.
func loadPolicyFile(path string) ([]policy.OperationPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", path, err)
	}

	var doc struct {
		Policies []config.PolicyConfig `yaml:"policies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %q: %w", path, err)
	}
	if len(doc.Policies) == 0 {
		var bare []config.PolicyConfig
		if err := yaml.Unmarshal(data, &bare); err == nil && len(bare) > 0 {
			doc.Policies = bare
		}
	}
	if len(doc.Policies) == 0 {
		return nil, fmt.Errorf("policy file %q contains no policies", path)
	}

	return toPolicies(doc.Policies), nil
}
