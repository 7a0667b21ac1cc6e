// Package enrich flattens treated records into outreach contact rows for
// the keys selected by a prior reconciliation.
package enrich

import (
	"fmt"
	"strings"

	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
)

// Contact channel labels.
const (
	ChannelPhone = "TELEFONE"
	ChannelEmail = "EMAIL"
)

// Output columns of the flattened contact dataset.
const (
	ColIdentifier = "IDENTIFICADOR"
	ColKey        = "CHAVE"
	ColContact    = "CONTATO"
	ColChannel    = "TIPO_CONTATO"
	ColPrimary    = "CONTATO_PRINCIPAL"
	ColProvenance = "ORIGEM"
)

// Matcher filters a treated dataset down to the keys of a prior
// reconciliation result and flattens each record into one row per contact
// channel value.
type Matcher struct {
	key          config.KeySpec
	idColumn     string
	phoneColumns []string
	emailColumns []string
}

// New builds a Matcher. The key spec must be valid and must derive the same
// values as the treated dataset's stored key; Flatten verifies the
// equivalence record by record.
func New(key config.KeySpec, idColumn string, phoneColumns, emailColumns []string) (*Matcher, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("enrichment key spec is empty")
	}
	if idColumn == "" {
		return nil, fmt.Errorf("identifier column is required")
	}
	return &Matcher{
		key:          key,
		idColumn:     idColumn,
		phoneColumns: append([]string(nil), phoneColumns...),
		emailColumns: append([]string(nil), emailColumns...),
	}, nil
}

// Flatten selects the treated records whose recomputed key belongs to keys
// and emits one output row per usable contact value. Phones are reduced to
// digits; emails without an '@' are discarded. The first value of each
// channel in a record is flagged as the primary contact. Duplicate
// (identifier, contact, channel) triples are emitted once, first occurrence
// wins, so the same person is never queued twice for the same channel.
//
// The key recomputed here must equal the stored key for every selected
// record; a divergence means the two stages disagree on identity and the
// run must not continue.
func (m *Matcher) Flatten(treated *dataset.Dataset, keys map[string]struct{}, sourceName, referenceDate string) (*dataset.Dataset, error) {
	out := dataset.New([]string{
		ColIdentifier,
		ColKey,
		ColContact,
		ColChannel,
		ColPrimary,
		ColProvenance,
	}, treated.Source)
	out.ExtractedAt = treated.ExtractedAt

	provenance := fmt.Sprintf("%s - base %s", sourceName, referenceDate)
	seen := make(map[string]struct{})

	for _, row := range treated.Rows {
		key := normalize.DeriveKey(row, m.key)

		if stored, ok := row[normalize.KeyColumn]; ok {
			if dataset.CleanText(stored) != key {
				return nil, fmt.Errorf("key mismatch for record %q: recomputed %q, stored %q",
					row[m.idColumn], key, stored)
			}
		}

		if _, wanted := keys[key]; !wanted {
			continue
		}

		id := dataset.DigitsOnly(row[m.idColumn])
		m.emitChannel(out, seen, row, id, key, ChannelPhone, m.phoneColumns, provenance)
		m.emitChannel(out, seen, row, id, key, ChannelEmail, m.emailColumns, provenance)
	}
	return out, nil
}

// emitChannel appends one row per usable value of the channel's columns.
// The primary flag goes to the first value emitted for this record+channel.
func (m *Matcher) emitChannel(out *dataset.Dataset, seen map[string]struct{}, row dataset.Record, id, key, channel string, columns []string, provenance string) {
	primary := true
	for _, col := range columns {
		value := normalizeContact(channel, row[col])
		if value == "" {
			continue
		}

		dedupKey := id + "\x00" + value + "\x00" + channel
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}

		out.Append(dataset.Record{
			ColIdentifier: id,
			ColKey:        key,
			ColContact:    value,
			ColChannel:    channel,
			ColPrimary:    primaryFlag(primary),
			ColProvenance: provenance,
		})
		primary = false
	}
}

// normalizeContact canonicalizes one contact value, returning "" for values
// that cannot be used for outreach.
func normalizeContact(channel, raw string) string {
	switch channel {
	case ChannelPhone:
		digits := dataset.DigitsOnly(raw)
		if len(digits) < 8 {
			return ""
		}
		return digits
	case ChannelEmail:
		value := strings.ToLower(dataset.CleanText(raw))
		if !strings.Contains(value, "@") {
			return ""
		}
		return value
	}
	return ""
}

func primaryFlag(primary bool) string {
	if primary {
		return "true"
	}
	return "false"
}
