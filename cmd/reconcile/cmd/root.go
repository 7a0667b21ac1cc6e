package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Receivables reconciliation pipeline",
	Long: `Batch reconciliation between creditor receivables snapshots and the
collections-system ledger.

Stages:
  - tratamento: normalize and validate raw snapshots
  - batimento: source records missing from the ledger, split judicial/extrajudicial
  - baixa: write-off candidates in the settlement receipt layout
  - devolucao: return portfolios with the fixed return status
  - enriquecimento: contact rows for the reconciled records

Each stage reads published artifacts and publishes its own, so stages run
standalone or chained with the run command.`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "reconcile.yaml",
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
}

// setup loads and validates the configuration and builds the logger. Every
// pipeline command starts here.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(logLevel, logFormat)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
