package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
)

var keySpec = config.KeySpec{Components: []string{"CONTRATO", "PARCELA"}, Separator: "-"}

func treatedDataset() *dataset.Dataset {
	ds := dataset.New([]string{
		"CONTRATO", "PARCELA", normalize.KeyColumn, "CPFCNPJ_CLIENTE",
		"TELEFONE_1", "TELEFONE_2", "EMAIL_1",
	}, "origem")
	ds.Append(dataset.Record{
		"CONTRATO": "100", "PARCELA": "01", normalize.KeyColumn: "100-01",
		"CPFCNPJ_CLIENTE": "111.222.333-44",
		"TELEFONE_1":      "(11) 99988-7766",
		"TELEFONE_2":      "11 3344-5566",
		"EMAIL_1":         " Maria@Exemplo.com ",
	})
	ds.Append(dataset.Record{
		"CONTRATO": "200", "PARCELA": "02", normalize.KeyColumn: "200-02",
		"CPFCNPJ_CLIENTE": "55566677788",
		"TELEFONE_1":      "123", // too short, discarded
		"EMAIL_1":         "sem-arroba",
	})
	return ds
}

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(keySpec, "CPFCNPJ_CLIENTE",
		[]string{"TELEFONE_1", "TELEFONE_2"}, []string{"EMAIL_1"})
	require.NoError(t, err)
	return m
}

func TestFlatten(t *testing.T) {
	keys := map[string]struct{}{"100-01": {}}

	out, err := newMatcher(t).Flatten(treatedDataset(), keys, "varejo", "05/03/2024")
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())

	first := out.Rows[0]
	assert.Equal(t, "11122233344", first[ColIdentifier])
	assert.Equal(t, "100-01", first[ColKey])
	assert.Equal(t, "11999887766", first[ColContact])
	assert.Equal(t, ChannelPhone, first[ColChannel])
	assert.Equal(t, "true", first[ColPrimary])
	assert.Equal(t, "varejo - base 05/03/2024", first[ColProvenance])

	second := out.Rows[1]
	assert.Equal(t, "1133445566", second[ColContact])
	assert.Equal(t, "false", second[ColPrimary])

	third := out.Rows[2]
	assert.Equal(t, "maria@exemplo.com", third[ColContact])
	assert.Equal(t, ChannelEmail, third[ColChannel])
	assert.Equal(t, "true", third[ColPrimary], "first email is primary for its channel")
}

func TestFlattenFiltersByKey(t *testing.T) {
	keys := map[string]struct{}{"200-02": {}}

	out, err := newMatcher(t).Flatten(treatedDataset(), keys, "varejo", "05/03/2024")
	require.NoError(t, err)
	// 200-02 has no usable phone or email
	assert.Equal(t, 0, out.Len())
}

func TestFlattenDeduplicatesContacts(t *testing.T) {
	ds := dataset.New([]string{
		"CONTRATO", "PARCELA", normalize.KeyColumn, "CPFCNPJ_CLIENTE",
		"TELEFONE_1", "TELEFONE_2",
	}, "origem")
	ds.Append(dataset.Record{
		"CONTRATO": "100", "PARCELA": "01", normalize.KeyColumn: "100-01",
		"CPFCNPJ_CLIENTE": "11122233344",
		"TELEFONE_1":      "(11) 99988-7766",
		"TELEFONE_2":      "11999887766", // same number, different formatting
	})

	m, err := New(keySpec, "CPFCNPJ_CLIENTE", []string{"TELEFONE_1", "TELEFONE_2"}, nil)
	require.NoError(t, err)

	out, err := m.Flatten(ds, map[string]struct{}{"100-01": {}}, "varejo", "05/03/2024")
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "true", out.Rows[0][ColPrimary])
}

func TestFlattenKeyMismatchFails(t *testing.T) {
	ds := treatedDataset()
	ds.Rows[0][normalize.KeyColumn] = "999-99" // stored key diverges from components

	_, err := newMatcher(t).Flatten(ds, map[string]struct{}{"999-99": {}}, "varejo", "05/03/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key mismatch")
}

func TestFlattenKeyEquivalence(t *testing.T) {
	// the recomputed key must select exactly the records the stored key would
	ds := treatedDataset()
	keys := map[string]struct{}{"100-01": {}, "200-02": {}}

	out, err := newMatcher(t).Flatten(ds, keys, "varejo", "05/03/2024")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, row := range out.Rows {
		seen[row[ColKey]] = struct{}{}
	}
	assert.Contains(t, seen, "100-01")
	// 200-02 selected but contributes no contacts
	assert.NotContains(t, seen, "999-99")
}

func TestNewValidation(t *testing.T) {
	_, err := New(config.KeySpec{}, "ID", nil, nil)
	assert.Error(t, err)

	_, err = New(keySpec, "", nil, nil)
	assert.Error(t, err)
}
