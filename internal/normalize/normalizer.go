// Package normalize maps raw snapshot columns onto the canonical schema and
// derives the join key every later stage matches on.
package normalize

import (
	"fmt"
	"strings"

	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
)

// KeyColumn is the canonical name of the derived join key field.
const KeyColumn = "CHAVE"

// Normalizer applies a column rename, a key derivation and per-field
// formatting rules to a raw dataset. It is a pure transform: the input
// dataset is never modified.
type Normalizer struct {
	rename map[string]string
	key    config.KeySpec
	fields map[string]config.FieldSpec
}

// New builds a Normalizer from a snapshot configuration. An invalid key
// specification fails here, before any record is processed.
func New(cfg *config.SnapshotConfig) (*Normalizer, error) {
	switch {
	case len(cfg.Key.Components) > 0 && cfg.Key.Passthrough != "":
		return nil, fmt.Errorf("key spec: components and passthrough are mutually exclusive")
	case len(cfg.Key.Components) == 0 && cfg.Key.Passthrough == "":
		return nil, fmt.Errorf("key spec: either components or passthrough must be set")
	case len(cfg.Key.Components) > 0 && cfg.Key.Separator == "":
		return nil, fmt.Errorf("key spec: separator is required with components")
	}

	for field, spec := range cfg.Fields {
		switch spec.Type {
		case "date", "currency", "postal", "phone", "bool", "text":
		default:
			return nil, fmt.Errorf("field %s: unknown type %q", field, spec.Type)
		}
	}

	return &Normalizer{
		rename: cfg.Rename,
		key:    cfg.Key,
		fields: cfg.Fields,
	}, nil
}

// Apply renames columns, formats fields and computes the key column.
// It returns an error when a key component is absent from the canonical
// schema, since every downstream anti-join would silently be wrong.
func (n *Normalizer) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	columns := n.canonicalColumns(in.Columns)

	if err := n.checkKeyColumns(columns); err != nil {
		return nil, err
	}

	out := dataset.New(append(columns, KeyColumn), in.Source)
	out.ExtractedAt = in.ExtractedAt

	for _, row := range in.Rows {
		rec := make(dataset.Record, len(columns)+1)
		for _, raw := range in.Columns {
			canonical := n.canonicalName(raw)
			rec[canonical] = n.formatField(canonical, row[raw])
		}
		rec[KeyColumn] = DeriveKey(rec, n.key)
		out.Append(rec)
	}
	return out, nil
}

// DeriveKey computes the join key for a record: the configured components
// joined by the separator, or the pass-through field, trimmed either way.
// Shared with the enrichment stage, which must reproduce identical values.
func DeriveKey(rec dataset.Record, spec config.KeySpec) string {
	if spec.Passthrough != "" {
		return dataset.CleanText(rec[spec.Passthrough])
	}
	parts := make([]string, len(spec.Components))
	for i, c := range spec.Components {
		parts[i] = dataset.CleanText(rec[c])
	}
	return strings.Join(parts, spec.Separator)
}

func (n *Normalizer) canonicalName(raw string) string {
	if canonical, ok := n.rename[raw]; ok {
		return canonical
	}
	return raw
}

func (n *Normalizer) canonicalColumns(raw []string) []string {
	out := make([]string, len(raw))
	for i, c := range raw {
		out[i] = n.canonicalName(c)
	}
	return out
}

func (n *Normalizer) checkKeyColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var components []string
	if n.key.Passthrough != "" {
		components = []string{n.key.Passthrough}
	} else {
		components = n.key.Components
	}
	for _, c := range components {
		if !present[c] {
			return fmt.Errorf("key component %q absent after rename", c)
		}
	}
	return nil
}

// formatField applies the configured formatting rule for the field.
// Unparseable values become the invalid sentinel; the record survives so the
// validator can classify it.
func (n *Normalizer) formatField(name, value string) string {
	spec, ok := n.fields[name]
	if !ok {
		return dataset.CleanText(value)
	}
	switch spec.Type {
	case "date":
		return dataset.NormalizeDate(value)
	case "currency":
		return dataset.NormalizeCurrency(value)
	case "postal":
		return dataset.NormalizePostal(value, spec.Length)
	case "phone":
		return dataset.DigitsOnly(value)
	case "bool":
		return dataset.NormalizeBool(value)
	default:
		return dataset.CleanText(value)
	}
}
