package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/logger"
)

func newExtractor(t *testing.T) (*Extractor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewDefault()), mock
}

func TestLedger(t *testing.T) {
	ex, mock := newExtractor(t)
	dir := t.TempDir()

	rows := sqlmock.NewRows([]string{"NUMERO_DOC", "NOME", "VALOR"}).
		AddRow("100-01", "Maria", "150.00").
		AddRow("200-02", nil, "99.90")
	mock.ExpectQuery("SELECT \\* FROM carteira").WillReturnRows(rows)

	path, n, err := ex.Ledger(context.Background(), "SELECT * FROM carteira", dir, "carteira")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ds, err := artifact.Read(path, "carteira")
	require.NoError(t, err)
	assert.Equal(t, []string{"NUMERO_DOC", "NOME", "VALOR"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Maria", ds.Rows[0]["NOME"])
	// NULL renders as empty text
	assert.Equal(t, "", ds.Rows[1]["NOME"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerEmptyResultFails(t *testing.T) {
	ex, mock := newExtractor(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"NUMERO_DOC"}))

	_, _, err := ex.Ledger(context.Background(), "SELECT 1", t.TempDir(), "carteira")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func TestLedgerReplacesPreviousSnapshot(t *testing.T) {
	ex, mock := newExtractor(t)
	dir := t.TempDir()

	stale := filepath.Join(dir, "carteira_20240101_000000.zip")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	rows := sqlmock.NewRows([]string{"NUMERO_DOC"}).AddRow("100-01")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, _, err := ex.Ledger(context.Background(), "SELECT 1", dir, "carteira")
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "previous snapshot must be removed")

	matches, err := filepath.Glob(filepath.Join(dir, "carteira_*.zip"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestJudicial(t *testing.T) {
	ex, mock := newExtractor(t)
	dir := t.TempDir()

	rows := sqlmock.NewRows([]string{"CPF_CNPJ"}).
		AddRow("111.222.333-44").
		AddRow("11122233344"). // duplicate after digit normalization
		AddRow("11.222.333/0001-81").
		AddRow("12345") // not CPF/CNPJ shaped
	mock.ExpectQuery("SELECT cpf_cnpj").WillReturnRows(rows)

	path, n, err := ex.Judicial(context.Background(), "SELECT cpf_cnpj FROM judiciais",
		dir, "clientes_judiciais", "CPF_CNPJ")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ds, err := artifact.Read(path, "judicial")
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "11122233344", ds.Rows[0]["CPF_CNPJ"])
	assert.Equal(t, "11222333000181", ds.Rows[1]["CPF_CNPJ"])
}

func TestJudicialEmptyResultAllowed(t *testing.T) {
	ex, mock := newExtractor(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"CPF_CNPJ"}))

	_, n, err := ex.Judicial(context.Background(), "SELECT 1", t.TempDir(),
		"clientes_judiciais", "CPF_CNPJ")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestJudicialMissingColumnFails(t *testing.T) {
	ex, mock := newExtractor(t)

	rows := sqlmock.NewRows([]string{"OUTRA"}).AddRow("x")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, _, err := ex.Judicial(context.Background(), "SELECT 1", t.TempDir(),
		"clientes_judiciais", "CPF_CNPJ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CPF_CNPJ")
}

func TestUnconfiguredQueryFails(t *testing.T) {
	ex, _ := newExtractor(t)
	_, _, err := ex.Ledger(context.Background(), "", t.TempDir(), "carteira")
	assert.Error(t, err)
}
