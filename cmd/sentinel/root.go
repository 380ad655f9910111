package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - rate limiting and quota governance for CasesDash",
	Long: `Sentinel is the admission-control engine protecting the shared CasesDash
backend from overload.

It provides:
  - Per-principal and global sliding-window rate limits
  - Role-aware limits (admin, teamLeader, user, anonymous)
  - Shared execution-time and daily call budgets
  - Abuse detection with escalating temporary blocks
  - An admin HTTP surface for status, statistics, and resets`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
