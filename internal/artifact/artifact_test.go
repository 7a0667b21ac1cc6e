package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobmax/reconcile/internal/dataset"
)

func sample() *dataset.Dataset {
	ds := dataset.New([]string{"CHAVE", "NOME", "VALOR"}, "origem")
	ds.Append(dataset.Record{"CHAVE": "100-01", "NOME": "Maria", "VALOR": "150.00"})
	ds.Append(dataset.Record{"CHAVE": "100-02", "NOME": "João", "VALOR": "99.90"})
	return ds
}

func TestExportReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	stamp := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	path, err := Export(dir, "tratado", stamp, []string{"tratado"},
		map[string]*dataset.Dataset{"tratado": sample()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tratado_20240305_143000.zip"), path)

	got, err := Read(path, "origem")
	require.NoError(t, err)

	assert.Equal(t, []string{"CHAVE", "NOME", "VALOR"}, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "100-01", got.Rows[0]["CHAVE"])
	assert.Equal(t, "João", got.Rows[1]["NOME"])
}

func TestExportIsDeterministic(t *testing.T) {
	stamp := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	read := func() *dataset.Dataset {
		dir := t.TempDir()
		path, err := Export(dir, "x", stamp, []string{"x"},
			map[string]*dataset.Dataset{"x": sample()})
		require.NoError(t, err)
		ds, err := Read(path, "origem")
		require.NoError(t, err)
		return ds
	}

	first := read()
	second := read()
	assert.Equal(t, first.Columns, second.Columns)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestExportMultipleEntries(t *testing.T) {
	dir := t.TempDir()
	stamp := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	jud := dataset.New([]string{"CHAVE"}, "batimento")
	jud.Append(dataset.Record{"CHAVE": "1-1"})
	extra := dataset.New([]string{"CHAVE"}, "batimento")
	extra.Append(dataset.Record{"CHAVE": "2-2"})

	path, err := Export(dir, "batimento", stamp,
		[]string{"batimento_judicial", "batimento_extrajudicial"},
		map[string]*dataset.Dataset{
			"batimento_judicial":      jud,
			"batimento_extrajudicial": extra,
		})
	require.NoError(t, err)

	sets, err := ReadAll(path, "batimento")
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "1-1", sets["batimento_judicial_20240305_000000"].Rows[0]["CHAVE"])
	assert.Equal(t, "2-2", sets["batimento_extrajudicial_20240305_000000"].Rows[0]["CHAVE"])
}

func TestExportNoPartialFileOnMissingDataset(t *testing.T) {
	dir := t.TempDir()
	_, err := Export(dir, "x", time.Now(), []string{"x", "faltando"},
		map[string]*dataset.Dataset{"x": sample()})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".zip", "no archive must be published on failure")
	}
}

func TestReadBareCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planilha.csv")
	content := "CHAVE;NOME\n100-01;Maria\n100-02\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ds, err := Read(path, "origem")
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Maria", ds.Rows[0]["NOME"])
	// short rows are padded
	assert.Equal(t, "", ds.Rows[1]["NOME"])
}

func TestReadWindows1252(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legado.csv")
	// "João" in Windows-1252: 0xE3 for ã
	content := []byte("NOME\nJo\xe3o\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	ds, err := Read(path, "origem")
	require.NoError(t, err)
	assert.Equal(t, "João", ds.Rows[0]["NOME"])
}

func TestReadUTF8WithBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("NOME\nJoão\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	ds, err := Read(path, "origem")
	require.NoError(t, err)
	assert.Equal(t, []string{"NOME"}, ds.Columns)
	assert.Equal(t, "João", ds.Rows[0]["NOME"])
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"tratado_20240301_000000.zip",
		"tratado_20240305_120000.zip",
		"tratado_20240304_235959.zip",
		"tratado_inconsistentes_20240306_000000.zip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	path, err := Latest(dir, "tratado_[0-9]*.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tratado_20240305_120000.zip"), path)
}

func TestLatestNoMatch(t *testing.T) {
	dir := t.TempDir()

	_, err := Latest(dir, "tratado_*.zip")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Latest(filepath.Join(dir, "inexistente"), "*.zip")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRemoveMatching(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "outro_20240301_000000.zip")
	gone := filepath.Join(dir, "tratado_20240301_000000.zip")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0o644))

	removed, err := RemoveMatching(dir, "tratado_*.zip")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(keep)
	assert.NoError(t, err)
	_, err = os.Stat(gone)
	assert.True(t, os.IsNotExist(err))
}
