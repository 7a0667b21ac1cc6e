package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/lock"
	"github.com/cobmax/reconcile/internal/pipeline"
	"github.com/cobmax/reconcile/internal/report"
)

var runPipeline string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full reconciliation chain for a pipeline",
	Long: `Run executes every stage in order: tratamento, batimento, baixa,
devolucao and enriquecimento. A run lock prevents two runs of the same
pipeline from interleaving.

Example:
  reconcile run --config reconcile.yaml --pipeline varejo`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runPipeline, "pipeline", "p", "",
		"Pipeline name from configuration file (required)")
	runCmd.MarkFlagRequired("pipeline")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	runner, err := pipeline.NewRunner(cfg, runPipeline, log)
	if err != nil {
		return err
	}

	runLock := lock.NewRunLock(cfg.Paths.Output, runPipeline)
	if err := runLock.Acquire(); err != nil {
		if errors.Is(err, lock.ErrAlreadyRunning) {
			return fmt.Errorf("pipeline %q is already running (lock file %s)", runPipeline, runLock.Path())
		}
		return err
	}
	defer runLock.Release()

	log.WithPipeline(runPipeline).Infow("Starting full run", "config", cfgFile)

	treat, err := runner.Treat()
	if err != nil {
		report.Failure(pipeline.StageTreat, err)
		return err
	}
	reportTreat(treat)

	bat, err := runner.Batimento()
	if err != nil {
		report.Failure(pipeline.StageBatimento, err)
		return err
	}
	reportBatimento(bat)

	baixa, err := runner.Baixa()
	if err != nil {
		report.Failure(pipeline.StageBaixa, err)
		return err
	}
	reportBaixa(baixa)

	dev, err := runner.Devolucao()
	if err != nil {
		report.Failure(pipeline.StageDevolucao, err)
		return err
	}
	reportDevolucao(dev)

	enr, err := runner.Enrich()
	if err != nil {
		report.Failure(pipeline.StageEnrich, err)
		return err
	}
	reportEnrich(enr)

	return nil
}

func reportTreat(stats []pipeline.TreatStats) {
	for _, s := range stats {
		report.Metrics(fmt.Sprintf("TRATAMENTO - %s", s.Side), []report.Metric{
			{Label: "Registros brutos", Value: report.Count(s.Raw)},
			{Label: "Válidos", Value: report.Count(s.Valid)},
			{Label: "Inconsistentes", Value: report.Count(s.Inconsistent)},
			{Label: "Arquivo", Value: s.TreatedPath},
		})
	}
}

func reportBatimento(s *pipeline.BatimentoStats) {
	report.Metrics("BATIMENTO", []report.Metric{
		{Label: "Origem tratada", Value: report.Count(s.SourceTreated)},
		{Label: "Após filtros", Value: report.Count(s.AfterFilters)},
		{Label: "Carteira tratada", Value: report.Count(s.LedgerTreated)},
		{Label: "Divergências", Value: report.Count(s.Diff)},
		{Label: "Judicial", Value: report.Count(s.Judicial)},
		{Label: "Extrajudicial", Value: report.Count(s.Extrajudicial)},
		{Label: "Arquivo", Value: s.Path},
	})
}

func reportBaixa(s *pipeline.BaixaStats) {
	report.Metrics("BAIXA", []report.Metric{
		{Label: "Carteira em aberto", Value: report.Count(s.LedgerOpen)},
		{Label: "Divergências", Value: report.Count(s.Diff)},
		{Label: "Removidos por acordo", Value: report.Count(s.Agreements)},
		{Label: "Com pagamento", Value: report.Count(s.WithPayment)},
		{Label: "Sem pagamento", Value: report.Count(s.WithoutPayment)},
		{Label: "Arquivo", Value: s.Path},
	})
}

func reportDevolucao(s *pipeline.DevolucaoStats) {
	report.Metrics("DEVOLUÇÃO", []report.Metric{
		{Label: "Carteira em aberto", Value: report.Count(s.LedgerOpen)},
		{Label: "Divergências", Value: report.Count(s.Diff)},
		{Label: "Removidos por acordo", Value: report.Count(s.Agreements)},
		{Label: "Judicial", Value: report.Count(s.Judicial)},
		{Label: "Extrajudicial", Value: report.Count(s.Extrajudicial)},
		{Label: "Arquivo", Value: s.Path},
	})
}

func reportEnrich(s *pipeline.EnrichStats) {
	report.Metrics("ENRIQUECIMENTO", []report.Metric{
		{Label: "Chaves do batimento", Value: report.Count(s.Keys)},
		{Label: "Registros tratados", Value: report.Count(s.Selected)},
		{Label: "Contatos gerados", Value: report.Count(s.Contacts)},
		{Label: "Arquivo", Value: s.Path},
	})
}
