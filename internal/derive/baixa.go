package derive

import (
	"fmt"

	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
	"github.com/cobmax/reconcile/internal/reconcile"
	"github.com/cobmax/reconcile/internal/refset"
)

// Inputs carries the validated datasets and reference material shared by the
// baixa and devolução derivations. Ledger and Source must already be
// pre-filtered by the caller (open statuses, excluded categories); the
// derivations only run the anti-join and the post-processing.
type Inputs struct {
	Ledger           *dataset.Dataset
	Source           *dataset.Dataset
	LedgerKey        string
	SourceKey        string
	IdentifierColumn string
	Agreements       refset.Set
	Settlements      *SettlementIndex
}

// BaixaResult is the write-off derivation output: ledger records missing
// from the source, net of active agreements, split by whether a settlement
// event matched.
type BaixaResult struct {
	WithPayment    *dataset.Dataset
	WithoutPayment *dataset.Dataset
	DiffCount      int // records after anti-join, before agreement removal
	AgreementCount int // records removed by the active-agreement set
}

// Receipt layout columns, the fixed export shape consumed by the
// collections system's settlement import.
const (
	LayoutClientName  = "NOME CLIENTE"
	LayoutClientID    = "CPF/CNPJ CLIENTE"
	LayoutCreditorID  = "CNPJ CREDOR"
	LayoutDocNumber   = "NUMERO DOC"
	LayoutAmount      = "VALOR DA PARCELA"
	LayoutDueDate     = "DT. VENCIMENTO"
	LayoutAgreement   = "STATUS ACORDO"
	LayoutPaymentDate = "DT. PAGAMENTO"
	LayoutPaidAmount  = "VALOR RECEBIDO"

	// AgreementStatusCode marks a settled installment in the receipt layout.
	AgreementStatusCode = "2"
)

// Baixa computes the write-off candidates: Ledger − Source, minus records
// under an active agreement, left-merged against settlement events and split
// into with-payment (eligible for write-off) and without-payment (pending
// review). Both subsets keep the full merged record; the receipt layout is
// produced separately by ReceiptLayout.
func Baixa(in Inputs) (*BaixaResult, error) {
	diff, err := reconcile.Diff(in.Ledger, in.Source, in.LedgerKey, in.SourceKey)
	if err != nil {
		return nil, fmt.Errorf("baixa anti-join: %w", err)
	}

	kept := diff.Dataset.Filter(func(row dataset.Record) bool {
		return !in.Agreements.Contains(row[in.IdentifierColumn])
	})

	merged := in.Settlements.LeftMerge(kept, in.LedgerKey)

	return &BaixaResult{
		WithPayment:    merged.Filter(Matched),
		WithoutPayment: merged.Filter(func(row dataset.Record) bool { return !Matched(row) }),
		DiffCount:      diff.Len(),
		AgreementCount: diff.Len() - kept.Len(),
	}, nil
}

// ReceiptLayout renders the with-payment subset in the fixed receipt shape.
// Canonical ledger columns are projected onto the layout names; the payment
// date defaults to referenceDate when the settlement event had none.
// referenceDate must be non-empty, otherwise the import file would carry
// blank payment dates.
func ReceiptLayout(withPayment *dataset.Dataset, referenceDate string) (*dataset.Dataset, error) {
	if referenceDate == "" {
		return nil, fmt.Errorf("receipt layout: reference date is empty")
	}

	out := dataset.New([]string{
		LayoutClientName,
		LayoutClientID,
		LayoutCreditorID,
		LayoutDocNumber,
		LayoutAmount,
		LayoutDueDate,
		LayoutAgreement,
		LayoutPaymentDate,
		LayoutPaidAmount,
	}, withPayment.Source)
	out.ExtractedAt = withPayment.ExtractedAt

	for _, row := range withPayment.Rows {
		paymentDate := row[PaymentDateColumn]
		if paymentDate == "" || paymentDate == dataset.Invalid {
			paymentDate = referenceDate
		}
		out.Append(dataset.Record{
			LayoutClientName:  row["NOME_RAZAO_SOCIAL"],
			LayoutClientID:    row["CPFCNPJ_CLIENTE"],
			LayoutCreditorID:  row["CNPJ_CREDOR"],
			LayoutDocNumber:   row[normalize.KeyColumn],
			LayoutAmount:      dataset.NormalizeCurrency(row["VALOR"]),
			LayoutDueDate:     row["VENCIMENTO"],
			LayoutAgreement:   AgreementStatusCode,
			LayoutPaymentDate: paymentDate,
			LayoutPaidAmount:  row[PaymentAmountColumn],
		})
	}
	return out, nil
}
