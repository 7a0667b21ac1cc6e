package pipeline

import (
	"errors"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/derive"
	"github.com/cobmax/reconcile/internal/normalize"
	"github.com/cobmax/reconcile/internal/reconcile"
	"github.com/cobmax/reconcile/internal/refset"
)

// Archive entry names of the baixa and devolução exports.
const (
	baixaReceipt      = "baixa_recebimento"
	baixaNoPayment    = "baixa_sem_pagamento"
	devolucaoJudicial = "devolucao_judicial"
	devolucaoExtra    = "devolucao_extrajudicial"
)

// BaixaStats summarizes one baixa run.
type BaixaStats struct {
	LedgerOpen     int
	Diff           int
	Agreements     int
	WithPayment    int
	WithoutPayment int
	Path           string
}

// DevolucaoStats summarizes one devolução run.
type DevolucaoStats struct {
	LedgerOpen     int
	Diff           int
	Agreements     int
	Judicial       int
	Extrajudicial  int
	Path           string
}

// Baixa derives the write-off candidates: open ledger records missing from
// the source, net of active agreements, split by settlement matching. The
// with-payment subset is exported in the fixed receipt layout consumed by
// the collections system.
func (r *Runner) Baixa() (*BaixaStats, error) {
	in, ledgerOpen, err := r.deriveInputs(StageBaixa)
	if err != nil {
		return nil, err
	}

	result, err := derive.Baixa(*in)
	if err != nil {
		return nil, &StageError{Stage: StageBaixa, Err: err}
	}

	receipt, err := derive.ReceiptLayout(result.WithPayment, r.referenceDate(in.Ledger))
	if err != nil {
		return nil, &StageError{Stage: StageBaixa, Err: err}
	}

	path, err := r.publish(StageBaixa, StageBaixa,
		[]string{baixaReceipt, baixaNoPayment},
		map[string]*dataset.Dataset{
			baixaReceipt:   receipt,
			baixaNoPayment: result.WithoutPayment,
		})
	if err != nil {
		return nil, err
	}

	r.log.WithStage(StageBaixa).Infow("Baixa derived",
		"diff", result.DiffCount,
		"agreements_removed", result.AgreementCount,
		"with_payment", result.WithPayment.Len(),
		"without_payment", result.WithoutPayment.Len(),
	)

	return &BaixaStats{
		LedgerOpen:     ledgerOpen,
		Diff:           result.DiffCount,
		Agreements:     result.AgreementCount,
		WithPayment:    result.WithPayment.Len(),
		WithoutPayment: result.WithoutPayment.Len(),
		Path:           path,
	}, nil
}

// Devolucao derives the return portfolios: the same ledger-minus-source
// anti-join, classified judicial versus extrajudicial and stamped with the
// fixed return status.
func (r *Runner) Devolucao() (*DevolucaoStats, error) {
	in, ledgerOpen, err := r.deriveInputs(StageDevolucao)
	if err != nil {
		return nil, err
	}

	judicial, err := r.loadJudicial()
	if err != nil {
		return nil, &StageError{Stage: StageDevolucao, Err: err}
	}

	result, err := derive.Devolucao(*in, judicial)
	if err != nil {
		return nil, &StageError{Stage: StageDevolucao, Err: err}
	}

	path, err := r.publish(StageDevolucao, StageDevolucao,
		[]string{devolucaoJudicial, devolucaoExtra},
		map[string]*dataset.Dataset{
			devolucaoJudicial: result.Judicial,
			devolucaoExtra:    result.Extrajudicial,
		})
	if err != nil {
		return nil, err
	}

	r.log.WithStage(StageDevolucao).Infow("Devolução derived",
		"diff", result.DiffCount,
		"agreements_removed", result.AgreementCount,
		"judicial", result.Judicial.Len(),
		"extrajudicial", result.Extrajudicial.Len(),
	)

	return &DevolucaoStats{
		LedgerOpen:    ledgerOpen,
		Diff:          result.DiffCount,
		Agreements:    result.AgreementCount,
		Judicial:      result.Judicial.Len(),
		Extrajudicial: result.Extrajudicial.Len(),
		Path:          path,
	}, nil
}

// deriveInputs assembles the shared inputs of the baixa and devolução
// derivations: open ledger records, treated source, the active-agreement set
// and the settlement index. Returns the open-ledger count alongside.
func (r *Runner) deriveInputs(stage string) (*derive.Inputs, int, error) {
	ledger, err := r.loadTreated(&r.pipe.Ledger, "carteira")
	if err != nil {
		return nil, 0, &StageError{Stage: stage, Err: err}
	}
	source, err := r.loadTreated(&r.pipe.Source, "origem")
	if err != nil {
		return nil, 0, &StageError{Stage: stage, Err: err}
	}

	filters := &r.pipe.Filters
	open := reconcile.OpenStatus(ledger, filters.StatusColumn, filters.EffectiveOpenStatuses())

	agreements, err := r.loadAgreements()
	if err != nil {
		return nil, 0, &StageError{Stage: stage, Err: err}
	}

	settlements, err := r.loadSettlements()
	if err != nil {
		return nil, 0, &StageError{Stage: stage, Err: err}
	}

	return &derive.Inputs{
		Ledger:           open,
		Source:           source,
		LedgerKey:        normalize.KeyColumn,
		SourceKey:        normalize.KeyColumn,
		IdentifierColumn: r.pipe.IdentifierColumn,
		Agreements:       agreements,
		Settlements:      settlements,
	}, open.Len(), nil
}

// loadAgreements loads the active-agreement identifier set. Missing artifact
// means nothing is under agreement, so nothing is withheld.
func (r *Runner) loadAgreements() (refset.Set, error) {
	agr := &r.pipe.Agreements
	return refset.Load(r.inputDir(agr.Subdir), agr.Pattern, agr.Column)
}

// loadSettlements builds the settlement index from the latest settlement
// artifact. A missing artifact yields an empty index; every derived record
// then lands in the without-payment subset.
func (r *Runner) loadSettlements() (*derive.SettlementIndex, error) {
	set := &r.pipe.Settlements
	path, err := artifact.Latest(r.inputDir(set.Subdir), set.Pattern)
	if err != nil {
		if errors.Is(err, artifact.ErrNoMatch) {
			return derive.NewSettlementIndex(nil, "", "", ""), nil
		}
		return nil, err
	}
	ds, err := artifact.Read(path, "acertos")
	if err != nil {
		return nil, err
	}
	return derive.NewSettlementIndex(ds, set.KeyColumn, set.DateColumn, set.AmountColumn), nil
}
