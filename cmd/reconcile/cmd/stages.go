package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/logger"
	"github.com/cobmax/reconcile/internal/pipeline"
	"github.com/cobmax/reconcile/internal/report"
)

// Standalone stage commands. Each one reads the published artifacts it needs
// and fails with a pointer to the missing prerequisite stage, so operators
// can re-run a single stage after fixing an input.

var stagePipeline string

var treatCmd = &cobra.Command{
	Use:   "tratamento",
	Short: "Normalize and validate the raw snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, log, err := stageRunner()
		if err != nil {
			return err
		}
		defer log.Sync()

		stats, err := runner.Treat()
		if err != nil {
			report.Failure(pipeline.StageTreat, err)
			return err
		}
		reportTreat(stats)
		return nil
	},
}

var batimentoCmd = &cobra.Command{
	Use:   "batimento",
	Short: "Diff the treated source against the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, log, err := stageRunner()
		if err != nil {
			return err
		}
		defer log.Sync()

		stats, err := runner.Batimento()
		if err != nil {
			report.Failure(pipeline.StageBatimento, err)
			return err
		}
		reportBatimento(stats)
		return nil
	},
}

var baixaCmd = &cobra.Command{
	Use:   "baixa",
	Short: "Derive write-off candidates with the receipt layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, log, err := stageRunner()
		if err != nil {
			return err
		}
		defer log.Sync()

		stats, err := runner.Baixa()
		if err != nil {
			report.Failure(pipeline.StageBaixa, err)
			return err
		}
		reportBaixa(stats)
		return nil
	},
}

var devolucaoCmd = &cobra.Command{
	Use:   "devolucao",
	Short: "Derive the return portfolios",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, log, err := stageRunner()
		if err != nil {
			return err
		}
		defer log.Sync()

		stats, err := runner.Devolucao()
		if err != nil {
			report.Failure(pipeline.StageDevolucao, err)
			return err
		}
		reportDevolucao(stats)
		return nil
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enriquecimento",
	Short: "Flatten contact rows for the reconciled records",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, log, err := stageRunner()
		if err != nil {
			return err
		}
		defer log.Sync()

		stats, err := runner.Enrich()
		if err != nil {
			report.Failure(pipeline.StageEnrich, err)
			return err
		}
		reportEnrich(stats)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{treatCmd, batimentoCmd, baixaCmd, devolucaoCmd, enrichCmd} {
		c.Flags().StringVarP(&stagePipeline, "pipeline", "p", "",
			"Pipeline name from configuration file (required)")
		c.MarkFlagRequired("pipeline")
		rootCmd.AddCommand(c)
	}
}

// stageRunner builds the Runner shared by the standalone stage commands.
func stageRunner() (*pipeline.Runner, *logger.Logger, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, nil, err
	}
	runner, err := pipeline.NewRunner(cfg, stagePipeline, log)
	if err != nil {
		return nil, nil, err
	}
	return runner, log, nil
}
