// Package artifact handles the snapshot archives exchanged with external
// systems: semicolon-delimited CSV inside zip files, UTF-8 with signature.
package artifact

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cobmax/reconcile/internal/dataset"
)

// Delimiter used by every snapshot and export in the system.
const Delimiter = ';'

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Read loads a dataset from a CSV file or a zip archive containing one CSV.
// The first row is the header. Short rows are padded with empty values so
// every record carries the full column set.
func Read(path, source string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", path, err)
	}

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
		}
		entry, err := firstCSVEntry(zr)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", path, err)
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s inside %s: %w", entry.Name, path, err)
		}
		defer rc.Close()
		r = rc
	}

	ds, err := readCSV(r, source)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	ds.ExtractedAt = info.ModTime().Truncate(time.Second)
	return ds, nil
}

// ReadAll loads every CSV entry of a zip archive, keyed by entry file name
// without extension. Used for archives bundling related outputs, like the
// judicial and extrajudicial portfolios of one reconciliation.
func ReadAll(path, source string) (map[string]*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", path, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	out := make(map[string]*dataset.Dataset)
	for _, entry := range zr.File {
		if !strings.EqualFold(filepath.Ext(entry.Name), ".csv") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s inside %s: %w", entry.Name, path, err)
		}
		ds, err := readCSV(rc, source)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("artifact %s entry %s: %w", path, entry.Name, err)
		}
		ds.ExtractedAt = info.ModTime().Truncate(time.Second)
		name := strings.TrimSuffix(filepath.Base(entry.Name), filepath.Ext(entry.Name))
		out[name] = ds
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("archive %s: no CSV entry found", path)
	}
	return out, nil
}

// firstCSVEntry finds the first .csv entry in the archive.
func firstCSVEntry(zr *zip.Reader) (*zip.File, error) {
	for _, f := range zr.File {
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no CSV entry found")
}

func readCSV(r io.Reader, source string) (*dataset.Dataset, error) {
	utf8r, err := newUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	header := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		header[i] = strings.TrimSpace(c)
	}

	ds := dataset.New(header, source)
	for _, row := range rows[1:] {
		rec := make(dataset.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		ds.Append(rec)
	}
	return ds, nil
}

// newUTF8Reader detects the input encoding and returns a reader decoding to
// UTF-8. Detection order: BOM, valid UTF-8 as-is, chardet heuristics,
// Windows-1252 fallback.
func newUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}
	if bytes.HasPrefix(buf, bomUTF16LE) {
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	}
	if bytes.HasPrefix(buf, bomUTF16BE) {
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	detector := chardet.NewTextDetector()
	if result, detectErr := detector.DetectBest(buf); detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}
