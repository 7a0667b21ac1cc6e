// Package validate partitions a normalized dataset into valid and
// inconsistent subsets. No record is ever dropped: every input row lands in
// exactly one of the two outputs.
package validate

import (
	"fmt"
	"regexp"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
)

// ReasonColumn carries the failing rule on inconsistent records.
const ReasonColumn = "MOTIVO_INCONSISTENCIA"

// Reason codes, stable for downstream tooling.
const (
	ReasonMissingField = "campo_obrigatorio_ausente"
	ReasonEmptyKey     = "chave_vazia"
	ReasonKeyFormat    = "chave_formato"
	ReasonDuplicateKey = "chave_duplicada"
	ReasonInvalidField = "campo_invalido"
)

// Validator checks required fields, key presence, key format and key
// uniqueness. Duplicate handling is first-seen wins: the earlier valid
// record stays valid, later collisions go to the inconsistent subset.
type Validator struct {
	required []string
	pattern  *regexp.Regexp
}

// New builds a Validator. A malformed key pattern is a configuration error
// and fails here.
func New(required []string, keyPattern string) (*Validator, error) {
	var pattern *regexp.Regexp
	if keyPattern != "" {
		var err error
		pattern, err = regexp.Compile(keyPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid key pattern %q: %w", keyPattern, err)
		}
	}
	return &Validator{
		required: append([]string(nil), required...),
		pattern:  pattern,
	}, nil
}

// Partition splits the input into (valid, inconsistent). The partition is
// exhaustive and disjoint, and both outputs preserve input order. The
// inconsistent subset keeps every original field plus the reason column.
func (v *Validator) Partition(in *dataset.Dataset) (*dataset.Dataset, *dataset.Dataset) {
	valid := in.Empty()

	inconsistent := in.Empty()
	inconsistent.AddColumn(ReasonColumn)

	// Ordered seen-index over immutable records: inserted in input order,
	// checked before insertion.
	seen := orderedmap.NewOrderedMap[string, int]()

	for i, row := range in.Rows {
		if reason := v.check(row, seen); reason != "" {
			flagged := row.Clone()
			flagged[ReasonColumn] = reason
			inconsistent.Append(flagged)
			continue
		}
		seen.Set(row[normalize.KeyColumn], i)
		valid.Append(row)
	}

	return valid, inconsistent
}

// check evaluates the rules in order and returns the first failing reason,
// or "" when the record is valid.
func (v *Validator) check(row dataset.Record, seen *orderedmap.OrderedMap[string, int]) string {
	for _, field := range v.required {
		value := dataset.CleanText(row[field])
		if value == "" {
			return fmt.Sprintf("%s:%s", ReasonMissingField, field)
		}
		if value == dataset.Invalid {
			return fmt.Sprintf("%s:%s", ReasonInvalidField, field)
		}
	}

	key := dataset.CleanText(row[normalize.KeyColumn])
	if key == "" {
		return ReasonEmptyKey
	}
	if v.pattern != nil && !v.pattern.MatchString(key) {
		return ReasonKeyFormat
	}
	if _, dup := seen.Get(key); dup {
		return ReasonDuplicateKey
	}
	return ""
}
