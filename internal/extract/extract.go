// Package extract materializes ledger and judicial snapshots from the
// collections database into the pipeline input directories. It is an I/O
// adapter: no reconciliation logic lives here.
package extract

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/logger"
)

// Extractor runs configured queries and writes the results as snapshot
// archives, replacing any previous snapshot with the same prefix.
type Extractor struct {
	db  *sql.DB
	log *logger.Logger
	now func() time.Time
}

// New creates an Extractor over an open database connection.
func New(db *sql.DB, log *logger.Logger) *Extractor {
	return &Extractor{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// Ledger runs the ledger query and writes the snapshot archive into dir.
// Returns the published path and the record count. An empty result is an
// error: reconciling against an empty ledger would classify every source
// record as missing.
func (e *Extractor) Ledger(ctx context.Context, query, dir, prefix string) (string, int, error) {
	ds, err := e.querySnapshot(ctx, query, prefix)
	if err != nil {
		return "", 0, err
	}
	if ds.Len() == 0 {
		return "", 0, fmt.Errorf("ledger query returned no records")
	}
	path, err := e.publish(ds, dir, prefix)
	if err != nil {
		return "", 0, err
	}
	return path, ds.Len(), nil
}

// Judicial runs the judicial query, deduplicates identifiers (digits-only,
// first occurrence wins) keeping only CPF/CNPJ-shaped values, and writes the
// reference snapshot. An empty result is allowed: it means every record
// will classify as extrajudicial downstream.
func (e *Extractor) Judicial(ctx context.Context, query, dir, prefix, column string) (string, int, error) {
	ds, err := e.querySnapshot(ctx, query, prefix)
	if err != nil {
		return "", 0, err
	}
	if !ds.HasColumn(column) {
		return "", 0, fmt.Errorf("judicial query result has no column %q", column)
	}

	deduped := ds.Empty()
	seen := make(map[string]struct{}, ds.Len())
	for _, row := range ds.Rows {
		digits := dataset.DigitsOnly(row[column])
		if len(digits) != 11 && len(digits) != 14 {
			continue
		}
		if _, dup := seen[digits]; dup {
			continue
		}
		seen[digits] = struct{}{}
		normalized := row.Clone()
		normalized[column] = digits
		deduped.Append(normalized)
	}

	e.log.Infow("Judicial identifiers deduplicated",
		"raw", ds.Len(),
		"unique", deduped.Len(),
	)

	path, err := e.publish(deduped, dir, prefix)
	if err != nil {
		return "", 0, err
	}
	return path, deduped.Len(), nil
}

// querySnapshot executes the query and collects the result as a dataset,
// every value rendered as text.
func (e *Extractor) querySnapshot(ctx context.Context, query, source string) (*dataset.Dataset, error) {
	if query == "" {
		return nil, fmt.Errorf("extraction query for %s is not configured", source)
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extraction query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	ds := dataset.New(columns, source)
	values := make([]sql.NullString, len(columns))
	scan := make([]interface{}, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(dataset.Record, len(columns))
		for i, col := range columns {
			rec[col] = values[i].String
		}
		ds.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extraction query iteration: %w", err)
	}
	return ds, nil
}

// publish replaces older snapshots for the prefix and writes the new one.
func (e *Extractor) publish(ds *dataset.Dataset, dir, prefix string) (string, error) {
	removed, err := artifact.RemoveMatching(dir, prefix+"_*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to clear previous snapshots: %w", err)
	}
	if removed > 0 {
		e.log.Infow("Previous snapshots removed", "prefix", prefix, "count", removed)
	}

	path, err := artifact.Export(dir, prefix, e.now(), []string{prefix},
		map[string]*dataset.Dataset{prefix: ds})
	if err != nil {
		return "", fmt.Errorf("failed to publish snapshot: %w", err)
	}

	e.log.Infow("Snapshot published", "path", path, "records", ds.Len())
	return path, nil
}
