package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"tidemark/internal/domain"
)

// ParquetArchive mirrors per-symbol datasets into Parquet files for
// downstream analytics tooling. The CSV dataset remains the source of truth;
// the archive is rewritten from it after each sync.
type ParquetArchive struct {
	Dir string
}

// NewParquetArchive creates an archive rooted at the given directory.
func NewParquetArchive(dir string) *ParquetArchive {
	return &ParquetArchive{Dir: dir}
}

// barRecord is the Parquet schema for archived daily bars.
type barRecord struct {
	Symbol string  `parquet:"symbol"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
	Amount float64 `parquet:"amount"`
}

func (a *ParquetArchive) path(symbol string) string {
	return filepath.Join(a.Dir, symbol+".parquet")
}

// Export rewrites the symbol's archive file from the given bars.
func (a *ParquetArchive) Export(symbol string, bars []domain.Bar) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	records := make([]barRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, barRecord{
			Symbol: b.Symbol,
			Date:   b.Date.UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Amount: b.Amount,
		})
	}

	if err := parquet.WriteFile(a.path(symbol), records); err != nil {
		return fmt.Errorf("archiving %s: %w", symbol, err)
	}
	return nil
}

// Read loads a symbol's archived bars.
func (a *ParquetArchive) Read(symbol string) ([]domain.Bar, error) {
	records, err := parquet.ReadFile[barRecord](a.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("reading archive for %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.Bar{
			Symbol: r.Symbol,
			Date:   time.UnixMilli(r.Date).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			Amount: r.Amount,
		})
	}
	return bars, nil
}
