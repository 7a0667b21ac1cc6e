// Package reconcile implements the anti-join shared by batimento, baixa and
// devolução. The diff is filter-agnostic: business pre-filters live in
// filters.go and are applied by the caller before invoking Diff.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/cobmax/reconcile/internal/dataset"
)

// Result is the ordered subset of minuend records whose key is absent from
// the subtrahend. Direction metadata is kept for auditability.
type Result struct {
	*dataset.Dataset
	Minuend    string // minuend dataset source name
	Subtrahend string // subtrahend dataset source name
	KeyLeft    string
	KeyRight   string
}

// Direction renders the operation as "A - B" for logs and reports.
func (r *Result) Direction() string {
	return fmt.Sprintf("%s - %s", r.Minuend, r.Subtrahend)
}

// Diff returns the minuend records whose key does not appear in the
// subtrahend key set. Keys are trimmed on both sides to absorb minor
// formatting drift between sources. Minuend order and fields are preserved
// unchanged. Runs in linear time over both datasets; ledger snapshots
// commonly exceed 10^5 records, so nested-loop matching is off the table.
func Diff(minuend, subtrahend *dataset.Dataset, keyLeft, keyRight string) (*Result, error) {
	if !minuend.HasColumn(keyLeft) {
		return nil, fmt.Errorf("key column %q absent from minuend %s", keyLeft, minuend.Source)
	}
	if !subtrahend.HasColumn(keyRight) {
		return nil, fmt.Errorf("key column %q absent from subtrahend %s", keyRight, subtrahend.Source)
	}

	keys := make(map[string]struct{}, subtrahend.Len())
	for _, row := range subtrahend.Rows {
		k := strings.TrimSpace(row[keyRight])
		if k == "" {
			continue
		}
		keys[k] = struct{}{}
	}

	out := minuend.Filter(func(row dataset.Record) bool {
		_, present := keys[strings.TrimSpace(row[keyLeft])]
		return !present
	})

	return &Result{
		Dataset:    out,
		Minuend:    minuend.Source,
		Subtrahend: subtrahend.Source,
		KeyLeft:    keyLeft,
		KeyRight:   keyRight,
	}, nil
}
