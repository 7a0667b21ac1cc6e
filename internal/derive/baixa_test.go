package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
	"github.com/cobmax/reconcile/internal/refset"
)

func ledgerDataset() *dataset.Dataset {
	ds := dataset.New([]string{
		normalize.KeyColumn, "NOME_RAZAO_SOCIAL", "CPFCNPJ_CLIENTE",
		"CNPJ_CREDOR", "VALOR", "VENCIMENTO",
	}, "carteira")
	ds.Append(dataset.Record{
		normalize.KeyColumn: "100-01", "NOME_RAZAO_SOCIAL": "Maria",
		"CPFCNPJ_CLIENTE": "11122233344", "CNPJ_CREDOR": "11222333000181",
		"VALOR": "150.00", "VENCIMENTO": "01/02/2024",
	})
	ds.Append(dataset.Record{
		normalize.KeyColumn: "200-02", "NOME_RAZAO_SOCIAL": "João",
		"CPFCNPJ_CLIENTE": "55566677788", "CNPJ_CREDOR": "11222333000181",
		"VALOR": "99.90", "VENCIMENTO": "15/02/2024",
	})
	ds.Append(dataset.Record{
		normalize.KeyColumn: "300-03", "NOME_RAZAO_SOCIAL": "Ana",
		"CPFCNPJ_CLIENTE": "99988877766", "CNPJ_CREDOR": "11222333000181",
		"VALOR": "10.00", "VENCIMENTO": "20/02/2024",
	})
	return ds
}

func sourceDataset(keys ...string) *dataset.Dataset {
	ds := dataset.New([]string{normalize.KeyColumn}, "origem")
	for _, k := range keys {
		ds.Append(dataset.Record{normalize.KeyColumn: k})
	}
	return ds
}

func baixaInputs(agreements refset.Set, settlements *dataset.Dataset) Inputs {
	return Inputs{
		Ledger:           ledgerDataset(),
		Source:           sourceDataset("300-03"),
		LedgerKey:        normalize.KeyColumn,
		SourceKey:        normalize.KeyColumn,
		IdentifierColumn: "CPFCNPJ_CLIENTE",
		Agreements:       agreements,
		Settlements:      NewSettlementIndex(settlements, "DOC", "DATA", "VALOR"),
	}
}

func TestBaixa(t *testing.T) {
	// 100-01 has a settlement, 200-02 does not; 300-03 is in the source
	events := settlements([3]string{"100-01", "05/03/2024", "150,00"})

	result, err := Baixa(baixaInputs(make(refset.Set), events))
	require.NoError(t, err)

	assert.Equal(t, 2, result.DiffCount)
	assert.Equal(t, 0, result.AgreementCount)

	require.Equal(t, 1, result.WithPayment.Len())
	assert.Equal(t, "100-01", result.WithPayment.Rows[0][normalize.KeyColumn])

	require.Equal(t, 1, result.WithoutPayment.Len())
	assert.Equal(t, "200-02", result.WithoutPayment.Rows[0][normalize.KeyColumn])
}

func TestBaixaAgreementsRemoved(t *testing.T) {
	agreements := make(refset.Set)
	agreements.Add("11122233344")

	result, err := Baixa(baixaInputs(agreements, nil))
	require.NoError(t, err)

	assert.Equal(t, 2, result.DiffCount)
	assert.Equal(t, 1, result.AgreementCount)
	// 100-01 is under agreement, 200-02 has no settlement
	assert.Equal(t, 0, result.WithPayment.Len())
	require.Equal(t, 1, result.WithoutPayment.Len())
	assert.Equal(t, "200-02", result.WithoutPayment.Rows[0][normalize.KeyColumn])
}

func TestReceiptLayout(t *testing.T) {
	events := settlements([3]string{"100-01", "05/03/2024", "150,00"})
	result, err := Baixa(baixaInputs(make(refset.Set), events))
	require.NoError(t, err)

	receipt, err := ReceiptLayout(result.WithPayment, "31/03/2024")
	require.NoError(t, err)

	assert.Equal(t, []string{
		LayoutClientName, LayoutClientID, LayoutCreditorID, LayoutDocNumber,
		LayoutAmount, LayoutDueDate, LayoutAgreement, LayoutPaymentDate,
		LayoutPaidAmount,
	}, receipt.Columns)

	require.Equal(t, 1, receipt.Len())
	row := receipt.Rows[0]
	assert.Equal(t, "Maria", row[LayoutClientName])
	assert.Equal(t, "11122233344", row[LayoutClientID])
	assert.Equal(t, "100-01", row[LayoutDocNumber])
	assert.Equal(t, "150.00", row[LayoutAmount])
	assert.Equal(t, "01/02/2024", row[LayoutDueDate])
	assert.Equal(t, AgreementStatusCode, row[LayoutAgreement])
	assert.Equal(t, "05/03/2024", row[LayoutPaymentDate])
	assert.Equal(t, "150.00", row[LayoutPaidAmount])
}

func TestReceiptLayoutDefaultsPaymentDate(t *testing.T) {
	withPayment := dataset.New([]string{
		normalize.KeyColumn, "NOME_RAZAO_SOCIAL", "CPFCNPJ_CLIENTE",
		"CNPJ_CREDOR", "VALOR", "VENCIMENTO", PaymentDateColumn, PaymentAmountColumn,
	}, "carteira")
	withPayment.Append(dataset.Record{
		normalize.KeyColumn: "100-01", "VALOR": "150.00",
		PaymentDateColumn: "", PaymentAmountColumn: "150.00",
	})

	receipt, err := ReceiptLayout(withPayment, "31/03/2024")
	require.NoError(t, err)
	assert.Equal(t, "31/03/2024", receipt.Rows[0][LayoutPaymentDate])
}

func TestReceiptLayoutRequiresReferenceDate(t *testing.T) {
	_, err := ReceiptLayout(dataset.New(nil, "x"), "")
	assert.Error(t, err)
}

func TestDevolucao(t *testing.T) {
	judicial := make(refset.Set)
	judicial.Add("11122233344")

	result, err := Devolucao(baixaInputs(make(refset.Set), nil), judicial)
	require.NoError(t, err)

	assert.Equal(t, 2, result.DiffCount)

	require.Equal(t, 1, result.Judicial.Len())
	assert.Equal(t, "100-01", result.Judicial.Rows[0][normalize.KeyColumn])
	require.Equal(t, 1, result.Extrajudicial.Len())
	assert.Equal(t, "200-02", result.Extrajudicial.Rows[0][normalize.KeyColumn])

	// every returned record carries the fixed status stamp
	for _, ds := range []*dataset.Dataset{result.Judicial, result.Extrajudicial} {
		assert.True(t, ds.HasColumn(ReturnStatusColumn))
		for _, row := range ds.Rows {
			assert.Equal(t, ReturnStatusCode, row[ReturnStatusColumn])
		}
	}
}

func TestDevolucaoAgreementsRemoved(t *testing.T) {
	agreements := make(refset.Set)
	agreements.Add("555.666.777-88")

	result, err := Devolucao(baixaInputs(agreements, nil), make(refset.Set))
	require.NoError(t, err)

	assert.Equal(t, 1, result.AgreementCount)
	assert.Equal(t, 1, result.Judicial.Len()+result.Extrajudicial.Len())
}
