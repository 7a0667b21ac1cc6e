// Package classify splits reconciliation results into judicial and
// extrajudicial portfolios by identifier membership in a reference set.
package classify

import (
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/refset"
)

// Split partitions the dataset by whether the record's identifier, reduced
// to digits, belongs to the judicial reference set. A pure filter: no fields
// are merged from the reference set, row order is preserved on both sides.
// With an empty set everything lands in the extrajudicial portfolio.
func Split(ds *dataset.Dataset, idColumn string, judicial refset.Set) (*dataset.Dataset, *dataset.Dataset) {
	jud := ds.Filter(func(row dataset.Record) bool {
		return judicial.Contains(row[idColumn])
	})
	extra := ds.Filter(func(row dataset.Record) bool {
		return !judicial.Contains(row[idColumn])
	})
	return jud, extra
}
