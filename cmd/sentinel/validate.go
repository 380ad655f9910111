package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"casesdash/sentinel/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the daemon.

Examples:
  sentinel validate --config config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Configuration valid (%d policies, %d daily quotas)\n",
			len(cfg.Policies), len(cfg.Quota.Daily))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
