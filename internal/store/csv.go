package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tidemark/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*CSVStore)(nil)

// CSVStore implements BarStore with one CSV file per symbol under DataDir.
// Files carry a header row; dates are serialized as YYYY-MM-DD. Datasets
// written by the predecessor pipeline use localized column names, which are
// accepted on read.
type CSVStore struct {
	DataDir string
}

// NewCSVStore creates a CSVStore rooted at the given data directory.
func NewCSVStore(dataDir string) *CSVStore {
	return &CSVStore{DataDir: dataDir}
}

// canonical column order for written datasets.
var csvHeader = []string{"date", "open", "high", "low", "close", "volume", "amount"}

// Localized header names carried over from the predecessor pipeline's data
// files.
var columnAliases = map[string][]string{
	"date":   {"date", "日期"},
	"open":   {"open", "开盘"},
	"high":   {"high", "最高"},
	"low":    {"low", "最低"},
	"close":  {"close", "收盘"},
	"volume": {"volume", "成交量"},
	"amount": {"amount", "成交额"},
}

func (s *CSVStore) path(symbol string) string {
	return filepath.Join(s.DataDir, symbol+".csv")
}

// ---------------------------------------------------------------------------
// LastDate — reverse tail scan
// ---------------------------------------------------------------------------

// LastDate returns the most recent date in the symbol's dataset without
// materializing the file: it reads the header to locate the date column, then
// scans backward from the end until one complete trailing line is isolated.
// Any parse failure yields (zero, false) rather than an error.
func (s *CSVStore) LastDate(symbol string) (time.Time, bool) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, false
	}

	header, err := readHeaderLine(f)
	if err != nil || header == "" {
		return time.Time{}, false
	}
	dateIdx := columnIndex(splitRow(header), "date")
	if dateIdx < 0 {
		return time.Time{}, false
	}

	// Nothing after the header.
	if info.Size() <= int64(len(header)) {
		return time.Time{}, false
	}

	line, ok := lastLine(f, info.Size())
	if !ok || line == header {
		return time.Time{}, false
	}

	fields := splitRow(line)
	if dateIdx >= len(fields) {
		return time.Time{}, false
	}
	d, err := parseDate(fields[dateIdx])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// readHeaderLine reads the first line of the file, without the trailing
// newline.
func readHeaderLine(f *os.File) (string, error) {
	buf := make([]byte, 4096)
	n, err := f.ReadAt(buf, 0)
	if n == 0 && err != nil {
		return "", err
	}
	data := buf[:n]
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return strings.TrimRight(string(data), "\r"), nil
}

// lastLine isolates the final non-empty line of the file by scanning chunks
// backward from the end.
func lastLine(f *os.File, size int64) (string, bool) {
	const chunk = 4096
	var buf []byte
	pos := size
	for pos > 0 {
		n := int64(chunk)
		if pos < n {
			n = pos
		}
		pos -= n
		part := make([]byte, n)
		if _, err := f.ReadAt(part, pos); err != nil {
			return "", false
		}
		buf = append(part, buf...)

		trimmed := bytes.TrimRight(buf, "\r\n")
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			line := strings.TrimSpace(string(trimmed[i+1:]))
			if line != "" {
				return line, true
			}
			// Trailing blank lines only so far; keep scanning.
			buf = trimmed[:i]
		}
	}
	line := strings.TrimSpace(string(buf))
	return line, line != ""
}

// ---------------------------------------------------------------------------
// Read / write
// ---------------------------------------------------------------------------

// ReadBars loads the symbol's dataset. Rows whose date fails to parse are
// dropped; rows are returned in stored order.
func (s *CSVStore) ReadBars(symbol string) ([]domain.Bar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("opening dataset for %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading dataset for %s: %w", symbol, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	dateIdx := columnIndex(header, "date")
	if dateIdx < 0 {
		return nil, fmt.Errorf("dataset for %s has no date column", symbol)
	}
	openIdx := columnIndex(header, "open")
	highIdx := columnIndex(header, "high")
	lowIdx := columnIndex(header, "low")
	closeIdx := columnIndex(header, "close")
	volIdx := columnIndex(header, "volume")
	amtIdx := columnIndex(header, "amount")

	bars := make([]domain.Bar, 0, len(records)-1)
	for _, row := range records[1:] {
		if dateIdx >= len(row) {
			continue
		}
		d, err := parseDate(row[dateIdx])
		if err != nil {
			continue
		}
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   floatField(row, openIdx),
			High:   floatField(row, highIdx),
			Low:    floatField(row, lowIdx),
			Close:  floatField(row, closeIdx),
			Volume: intField(row, volIdx),
			Amount: floatField(row, amtIdx),
		})
	}
	return bars, nil
}

// WriteBars rewrites the symbol's dataset in full with canonical headers and
// YYYY-MM-DD dates.
func (s *CSVStore) WriteBars(symbol string, bars []domain.Bar) error {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	f, err := os.Create(s.path(symbol))
	if err != nil {
		return fmt.Errorf("creating dataset for %s: %w", symbol, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Date.Format(domain.DateLayout),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
			formatFloat(b.Amount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Merge folds freshly fetched bars into the existing dataset and rewrites it.
// A dataset that is absent or yields no valid rows is written fresh and
// reported as replaced.
func (s *CSVStore) Merge(symbol string, incoming []domain.Bar) (SyncResult, error) {
	existing, err := s.ReadBars(symbol)
	if err != nil {
		// Absent or malformed datasets are treated as empty and replaced.
		existing = nil
	}

	merged := mergeBars(existing, incoming)
	if err := s.WriteBars(symbol, merged); err != nil {
		return SyncResult{}, err
	}

	status := StatusAppended
	if len(existing) == 0 {
		status = StatusReplaced
	}
	return SyncResult{Status: status, RowsAdded: len(merged) - len(existing)}, nil
}

// ListSymbols returns the symbols with a dataset file under DataDir, sorted.
func (s *CSVStore) ListSymbols() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.DataDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mergeBars deduplicates bars by date, preferring incoming records over
// existing ones. The result is sorted ascending by date.
func mergeBars(existing, incoming []domain.Bar) []domain.Bar {
	seen := make(map[string]domain.Bar, len(existing)+len(incoming))
	for _, b := range existing {
		seen[b.Date.Format(domain.DateLayout)] = b
	}
	for _, b := range incoming {
		seen[b.Date.Format(domain.DateLayout)] = b
	}

	merged := make([]domain.Bar, 0, len(seen))
	for _, b := range seen {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

var dateLayouts = []string{domain.DateLayout, "2006/01/02", "20060102"}

func parseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	// Tolerate a trailing time component.
	if len(v) > 10 && (v[10] == ' ' || v[10] == 'T') {
		v = v[:10]
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// columnIndex resolves a canonical column name against the header, accepting
// localized aliases.
func columnIndex(header []string, name string) int {
	for _, alias := range columnAliases[name] {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				return i
			}
		}
	}
	return -1
}

// splitRow splits a raw CSV line on commas. Dataset fields never contain
// embedded commas, matching the tail-scan's line-level parsing.
func splitRow(line string) []string {
	return strings.Split(line, ",")
}

func floatField(row []string, idx int) float64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0
	}
	return v
}

func intField(row []string, idx int) int64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	field := strings.TrimSpace(row[idx])
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		// Volume columns from some sources arrive as floats.
		if fv, ferr := strconv.ParseFloat(field, 64); ferr == nil {
			return int64(fv)
		}
		return 0
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
