// Package dataset contains the tabular snapshot types shared across pipeline
// stages to avoid import cycles.
package dataset

import "time"

// Record is one row of a snapshot, keyed by canonical column name.
// Values are kept as strings; formatting helpers produce canonical
// representations for dates, currency and identifiers.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered sequence of records sharing a column set and a
// provenance. Stages never mutate a dataset in place; each stage builds a
// new one from its input.
type Dataset struct {
	Columns     []string
	Rows        []Record
	Source      string    // originating system name
	ExtractedAt time.Time // snapshot extraction time, zero if unknown
}

// New creates an empty dataset with the given columns and provenance.
func New(columns []string, source string) *Dataset {
	return &Dataset{
		Columns: append([]string(nil), columns...),
		Source:  source,
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Append adds a row preserving input order.
func (d *Dataset) Append(r Record) {
	d.Rows = append(d.Rows, r)
}

// HasColumn reports whether the dataset schema contains the column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the schema if not already present.
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// Empty returns a dataset with the same schema and provenance but no rows.
func (d *Dataset) Empty() *Dataset {
	out := New(d.Columns, d.Source)
	out.ExtractedAt = d.ExtractedAt
	return out
}

// Filter returns a new dataset with the rows for which keep returns true.
// Row order is preserved; records are shared, not copied, because stages
// treat rows as immutable once produced.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := d.Empty()
	for _, row := range d.Rows {
		if keep(row) {
			out.Append(row)
		}
	}
	return out
}

// FirstValue returns the first non-empty value of the column, scanning rows
// in order. Returns "" when the column is absent or all values are empty.
func (d *Dataset) FirstValue(column string) string {
	for _, row := range d.Rows {
		if v := CleanText(row[column]); v != "" && v != Invalid {
			return v
		}
	}
	return ""
}

// ReferenceDate extracts the snapshot reference date from the first valid
// value of the candidate columns, normalized to DD/MM/YYYY. Returns "" when
// no candidate yields a parseable date.
func (d *Dataset) ReferenceDate(candidates ...string) string {
	for _, col := range candidates {
		if !d.HasColumn(col) {
			continue
		}
		raw := d.FirstValue(col)
		if raw == "" {
			continue
		}
		if v := NormalizeDate(raw); v != Invalid {
			return v
		}
	}
	return ""
}
