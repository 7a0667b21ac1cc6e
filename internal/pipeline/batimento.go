package pipeline

import (
	"github.com/cobmax/reconcile/internal/classify"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
	"github.com/cobmax/reconcile/internal/reconcile"
	"github.com/cobmax/reconcile/internal/refset"
)

// Archive entry names of the batimento export.
const (
	batimentoJudicial      = "batimento_judicial"
	batimentoExtrajudicial = "batimento_extrajudicial"
)

// BatimentoStats summarizes one batimento run.
type BatimentoStats struct {
	SourceTreated int
	AfterFilters  int
	LedgerTreated int
	Diff          int
	Judicial      int
	Extrajudicial int
	Path          string
}

// Batimento finds the source records missing from the ledger and splits them
// into judicial and extrajudicial portfolios. Payment-type and campaign
// exclusions apply to the source before the anti-join; the diff itself knows
// nothing about them.
func (r *Runner) Batimento() (*BatimentoStats, error) {
	log := r.log.WithStage(StageBatimento)

	source, err := r.loadTreated(&r.pipe.Source, "origem")
	if err != nil {
		return nil, &StageError{Stage: StageBatimento, Err: err}
	}
	ledger, err := r.loadTreated(&r.pipe.Ledger, "carteira")
	if err != nil {
		return nil, &StageError{Stage: StageBatimento, Err: err}
	}

	filters := &r.pipe.Filters
	filtered := reconcile.ExcludeValues(source, filters.PaymentTypeColumn, filters.ExcludePaymentTypes)
	filtered = reconcile.ExcludeValues(filtered, filters.CampaignColumn, filters.ExcludeCampaigns)

	diff, err := reconcile.Diff(filtered, ledger, normalize.KeyColumn, normalize.KeyColumn)
	if err != nil {
		return nil, &StageError{Stage: StageBatimento, Err: err}
	}
	log.Infow("Anti-join computed",
		"direction", diff.Direction(),
		"source", filtered.Len(),
		"ledger", ledger.Len(),
		"missing", diff.Len(),
	)

	judicial, err := r.loadJudicial()
	if err != nil {
		return nil, &StageError{Stage: StageBatimento, Err: err}
	}

	jud, extra := classify.Split(diff.Dataset, r.pipe.IdentifierColumn, judicial)

	path, err := r.publish(StageBatimento, StageBatimento,
		[]string{batimentoJudicial, batimentoExtrajudicial},
		map[string]*dataset.Dataset{
			batimentoJudicial:      jud,
			batimentoExtrajudicial: extra,
		})
	if err != nil {
		return nil, err
	}

	return &BatimentoStats{
		SourceTreated: source.Len(),
		AfterFilters:  filtered.Len(),
		LedgerTreated: ledger.Len(),
		Diff:          diff.Len(),
		Judicial:      jud.Len(),
		Extrajudicial: extra.Len(),
		Path:          path,
	}, nil
}

// loadJudicial loads the judicial identifier set. A missing artifact is an
// empty set: everything classifies as extrajudicial.
func (r *Runner) loadJudicial() (refset.Set, error) {
	jud := &r.pipe.Judicial
	return refset.Load(r.inputDir(jud.Subdir), jud.Pattern, jud.Column)
}
