package artifact

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cobmax/reconcile/internal/dataset"
)

// TimestampFormat is the generation stamp embedded in export names.
const TimestampFormat = "20060102_150405"

// Export bundles the datasets into one zip archive named
// <prefix>_<timestamp>.zip, each dataset as <name>_<timestamp>.csv. The
// archive is written to a temporary file in the target directory and
// published with an atomic rename, so a failed run never leaves a partial
// archive that looks complete.
//
// Entries preserves insertion order via the names slice; related outputs
// (judicial + extrajudicial) share the archive.
func Export(dir, prefix string, stamp time.Time, names []string, sets map[string]*dataset.Dataset) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("export %s: no datasets given", prefix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}

	ts := stamp.Format(TimestampFormat)
	finalPath := filepath.Join(dir, fmt.Sprintf("%s_%s.zip", prefix, ts))

	tmp, err := os.CreateTemp(dir, "."+prefix+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range names {
		ds, ok := sets[name]
		if !ok {
			return "", fmt.Errorf("export %s: dataset %q missing", prefix, name)
		}
		entry, err := zw.Create(fmt.Sprintf("%s_%s.csv", name, ts))
		if err != nil {
			return "", fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		if err := writeCSV(entry, ds); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp export file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to publish archive %s: %w", finalPath, err)
	}
	return finalPath, nil
}

// writeCSV renders the dataset as semicolon-delimited CSV with a UTF-8 BOM,
// matching the input boundary encoding.
func writeCSV(w io.Writer, ds *dataset.Dataset) error {
	if _, err := w.Write(bomUTF8); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	row := make([]string, len(ds.Columns))
	for _, rec := range ds.Rows {
		for i, col := range ds.Columns {
			row[i] = rec[col]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RemoveMatching deletes previous exports matching the glob pattern inside
// dir, so each run publishes exactly one archive per prefix. Missing
// directories are not an error.
func RemoveMatching(dir, pattern string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", m, err)
		}
		removed++
	}
	return removed, nil
}
