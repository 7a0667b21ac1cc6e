package reconcile

import (
	"github.com/cobmax/reconcile/internal/dataset"
)

// OpenStatus keeps rows whose status column matches one of the open
// statuses, compared accent- and case-insensitively. A dataset without the
// status column passes through untouched, mirroring upstream exports that
// omit it.
func OpenStatus(ds *dataset.Dataset, column string, statuses []string) *dataset.Dataset {
	if column == "" || !ds.HasColumn(column) {
		return ds
	}
	open := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		open[dataset.ASCIIUpper(s)] = struct{}{}
	}
	return ds.Filter(func(row dataset.Record) bool {
		_, ok := open[dataset.ASCIIUpper(row[column])]
		return ok
	})
}

// ExcludeValues drops rows whose column value matches any of the excluded
// values, compared accent- and case-insensitively. Used for payment-type
// and campaign exclusions before the anti-join.
func ExcludeValues(ds *dataset.Dataset, column string, values []string) *dataset.Dataset {
	if column == "" || len(values) == 0 || !ds.HasColumn(column) {
		return ds
	}
	excluded := make(map[string]struct{}, len(values))
	for _, v := range values {
		excluded[dataset.ASCIIUpper(v)] = struct{}{}
	}
	return ds.Filter(func(row dataset.Record) bool {
		_, ok := excluded[dataset.ASCIIUpper(row[column])]
		return !ok
	})
}
