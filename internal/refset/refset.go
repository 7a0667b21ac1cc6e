// Package refset loads the external membership lists (judicial subjects,
// active agreements) used to filter reconciliation results. Reference sets
// are never merged field-by-field; membership is their only operation.
package refset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/dataset"
)

// Set is a membership set of normalized identifiers.
type Set map[string]struct{}

// Contains reports membership after digits-only normalization of id.
func (s Set) Contains(id string) bool {
	_, ok := s[dataset.DigitsOnly(id)]
	return ok
}

// Len returns the number of identifiers in the set.
func (s Set) Len() int {
	return len(s)
}

// Add inserts an identifier, normalized to digits. Values that do not
// normalize to a CPF (11 digits) or CNPJ (14 digits) are ignored.
func (s Set) Add(id string) {
	digits := dataset.DigitsOnly(id)
	if len(digits) == 11 || len(digits) == 14 {
		s[digits] = struct{}{}
	}
}

// Load reads the latest artifact in dir matching pattern and collects the
// identifier column into a Set. A missing directory or no matching artifact
// yields an empty set: the absence of a reference list means nothing is
// filtered, not that the run fails.
func Load(dir, pattern, column string) (Set, error) {
	set := make(Set)

	path, err := artifact.Latest(dir, pattern)
	if err != nil {
		if errors.Is(err, artifact.ErrNoMatch) {
			return set, nil
		}
		return nil, err
	}

	ds, err := artifact.Read(path, "referencia")
	if err != nil {
		return nil, fmt.Errorf("reference set %s: %w", path, err)
	}

	col, err := resolveColumn(ds, column)
	if err != nil {
		return nil, fmt.Errorf("reference set %s: %w", path, err)
	}

	for _, row := range ds.Rows {
		set.Add(row[col])
	}
	return set, nil
}

// resolveColumn finds the identifier column: the configured name when
// present, otherwise the first column whose name mentions CPF or CNPJ.
func resolveColumn(ds *dataset.Dataset, column string) (string, error) {
	if column != "" && ds.HasColumn(column) {
		return column, nil
	}
	for _, c := range ds.Columns {
		upper := strings.ToUpper(c)
		if strings.Contains(upper, "CPF") || strings.Contains(upper, "CNPJ") {
			return c, nil
		}
	}
	return "", fmt.Errorf("no identifier column found (wanted %q or a CPF/CNPJ column)", column)
}
