// Package derive builds the baixa and devolução outputs on top of the
// shared anti-join: ledger-minus-source, net of active agreements, enriched
// from settlement events.
package derive

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/cobmax/reconcile/internal/dataset"
)

// Columns populated by the settlement merge.
const (
	PaymentDateColumn   = "DT_PAGAMENTO"
	PaymentAmountColumn = "VALOR_PAGO"
)

// SettlementEvent is one payment observation keyed by join key.
type SettlementEvent struct {
	Date   string
	Amount string
}

// SettlementIndex is an ordered first-seen index over settlement events.
// When the settlement dataset carries duplicate keys, the first occurrence
// wins; later rows for the same key are ignored. This mirrors the
// validator's first-seen rule so both stages resolve duplicates the same
// way.
type SettlementIndex struct {
	events *orderedmap.OrderedMap[string, SettlementEvent]
}

// NewSettlementIndex builds the index from a settlement-events dataset.
// A nil dataset is a valid empty index: the settlement artifact being absent
// must never fail a run.
func NewSettlementIndex(ds *dataset.Dataset, keyColumn, dateColumn, amountColumn string) *SettlementIndex {
	idx := &SettlementIndex{events: orderedmap.NewOrderedMap[string, SettlementEvent]()}
	if ds == nil {
		return idx
	}
	for _, row := range ds.Rows {
		key := strings.TrimSpace(row[keyColumn])
		if key == "" {
			continue
		}
		if _, seen := idx.events.Get(key); seen {
			continue
		}
		idx.events.Set(key, SettlementEvent{
			Date:   dataset.NormalizeDate(row[dateColumn]),
			Amount: dataset.NormalizeCurrency(row[amountColumn]),
		})
	}
	return idx
}

// Len returns the number of distinct keys indexed.
func (i *SettlementIndex) Len() int {
	return i.events.Len()
}

// Lookup returns the event for the key, if one was indexed.
func (i *SettlementIndex) Lookup(key string) (SettlementEvent, bool) {
	return i.events.Get(strings.TrimSpace(key))
}

// LeftMerge annotates every record with the payment columns, populated when
// the record's key has a settlement event and left empty otherwise. Returns
// a new dataset; the input keeps its schema and rows untouched.
func (i *SettlementIndex) LeftMerge(ds *dataset.Dataset, keyColumn string) *dataset.Dataset {
	out := ds.Empty()
	out.AddColumn(PaymentDateColumn)
	out.AddColumn(PaymentAmountColumn)

	for _, row := range ds.Rows {
		merged := row.Clone()
		if event, ok := i.Lookup(row[keyColumn]); ok {
			merged[PaymentDateColumn] = event.Date
			merged[PaymentAmountColumn] = event.Amount
		} else {
			merged[PaymentDateColumn] = ""
			merged[PaymentAmountColumn] = ""
		}
		out.Append(merged)
	}
	return out
}

// Matched reports whether a merged record carried a settlement event.
func Matched(row dataset.Record) bool {
	return row[PaymentDateColumn] != "" || row[PaymentAmountColumn] != ""
}
