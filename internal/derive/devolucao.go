package derive

import (
	"fmt"

	"github.com/cobmax/reconcile/internal/classify"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/reconcile"
	"github.com/cobmax/reconcile/internal/refset"
)

// Devolução status stamp applied to every returned record.
const (
	ReturnStatusColumn = "STATUS_DEVOLUCAO"
	ReturnStatusCode   = "2"
)

// DevolucaoResult is the return derivation output: ledger records missing
// from the source, net of active agreements, annotated with settlement data
// when present, classified into judicial and extrajudicial portfolios.
type DevolucaoResult struct {
	Judicial       *dataset.Dataset
	Extrajudicial  *dataset.Dataset
	DiffCount      int
	AgreementCount int
}

// Devolucao runs the same Ledger − Source anti-join as Baixa, then applies
// the judicial classifier instead of the payment split and stamps the fixed
// return status code on every record.
func Devolucao(in Inputs, judicial refset.Set) (*DevolucaoResult, error) {
	diff, err := reconcile.Diff(in.Ledger, in.Source, in.LedgerKey, in.SourceKey)
	if err != nil {
		return nil, fmt.Errorf("devolucao anti-join: %w", err)
	}

	kept := diff.Dataset.Filter(func(row dataset.Record) bool {
		return !in.Agreements.Contains(row[in.IdentifierColumn])
	})

	merged := in.Settlements.LeftMerge(kept, in.LedgerKey)
	stamped := stampReturnStatus(merged)

	jud, extra := classify.Split(stamped, in.IdentifierColumn, judicial)

	return &DevolucaoResult{
		Judicial:       jud,
		Extrajudicial:  extra,
		DiffCount:      diff.Len(),
		AgreementCount: diff.Len() - kept.Len(),
	}, nil
}

func stampReturnStatus(ds *dataset.Dataset) *dataset.Dataset {
	out := ds.Empty()
	out.AddColumn(ReturnStatusColumn)
	for _, row := range ds.Rows {
		stamped := row.Clone()
		stamped[ReturnStatusColumn] = ReturnStatusCode
		out.Append(stamped)
	}
	return out
}
