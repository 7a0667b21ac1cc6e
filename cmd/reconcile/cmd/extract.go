package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/database"
	"github.com/cobmax/reconcile/internal/extract"
	"github.com/cobmax/reconcile/internal/report"
)

var (
	extractPipeline string
	extractLedger   bool
	extractJudicial bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract ledger and judicial snapshots from the collections database",
	Long: `Extract runs the configured queries against the collections database
and publishes the results as snapshot archives in the pipeline input
directories, replacing the previous generation.

By default both snapshots are extracted; --ledger or --judicial restricts
the run to one.

Example:
  reconcile extract --config reconcile.yaml --pipeline varejo`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractPipeline, "pipeline", "p", "",
		"Pipeline name from configuration file (required)")
	extractCmd.MarkFlagRequired("pipeline")

	extractCmd.Flags().BoolVar(&extractLedger, "ledger", false,
		"Extract only the ledger snapshot")
	extractCmd.Flags().BoolVar(&extractJudicial, "judicial", false,
		"Extract only the judicial snapshot")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.ValidateDatabase(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	pipe, err := cfg.GetPipeline(extractPipeline)
	if err != nil {
		return err
	}

	// Cancelled on SIGINT/SIGTERM so a long extraction stops cleanly.
	ctx := database.SetupSignalHandler()

	manager := database.NewManager(&cfg.Database)
	if err := manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer manager.Close()

	if err := manager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	ex := extract.New(manager.DB, log.WithPipeline(extractPipeline).WithStage("extract"))
	both := !extractLedger && !extractJudicial

	var metrics []report.Metric

	if extractLedger || both {
		dir := filepath.Join(cfg.Paths.Input, pipe.Ledger.Subdir)
		path, n, err := ex.Ledger(ctx, cfg.Extraction.LedgerQuery, dir, cfg.Extraction.LedgerPrefix)
		if err != nil {
			report.Failure("extract", err)
			return fmt.Errorf("ledger extraction failed: %w", err)
		}
		metrics = append(metrics,
			report.Metric{Label: "Carteira", Value: report.Count(n)},
			report.Metric{Label: "Arquivo carteira", Value: path},
		)
	}

	if extractJudicial || both {
		dir := filepath.Join(cfg.Paths.Input, pipe.Judicial.Subdir)
		path, n, err := ex.Judicial(ctx, cfg.Extraction.JudicialQuery, dir,
			cfg.Extraction.JudicialPrefix, pipe.Judicial.Column)
		if err != nil {
			report.Failure("extract", err)
			return fmt.Errorf("judicial extraction failed: %w", err)
		}
		metrics = append(metrics,
			report.Metric{Label: "Judiciais", Value: report.Count(n)},
			report.Metric{Label: "Arquivo judicial", Value: path},
		)
	}

	report.Metrics("EXTRAÇÃO", metrics)
	return nil
}
