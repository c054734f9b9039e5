// Package report writes backtest artifacts: the per-trade CSV and the
// aggregate summary JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tidemark/internal/domain"
)

const (
	tradesFileName  = "backtest_report.csv"
	summaryFileName = "backtest_summary.json"
	signalsFileName = "signals.json"
)

// Writer persists signal and backtest outputs under a single directory.
type Writer struct {
	Dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// TradesPath returns the path the trade CSV is written to.
func (w *Writer) TradesPath() string { return filepath.Join(w.Dir, tradesFileName) }

// SummaryPath returns the path the summary JSON is written to.
func (w *Writer) SummaryPath() string { return filepath.Join(w.Dir, summaryFileName) }

// SignalsPath returns the path the signal JSON is written to.
func (w *Writer) SignalsPath() string { return filepath.Join(w.Dir, signalsFileName) }

// WriteSignals writes the signal list as a JSON array.
func (w *Writer) WriteSignals(signals []domain.Signal) error {
	if signals == nil {
		signals = []domain.Signal{}
	}
	return w.writeJSON(w.SignalsPath(), signals)
}

// ReadSignals loads a signal list previously written by WriteSignals.
func (w *Writer) ReadSignals() ([]domain.Signal, error) {
	data, err := os.ReadFile(w.SignalsPath())
	if err != nil {
		return nil, fmt.Errorf("reading signals: %w", err)
	}
	var signals []domain.Signal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("parsing signals: %w", err)
	}
	return signals, nil
}

// WriteTrades writes the per-trade CSV. An empty trade list still produces a
// header-only file.
func (w *Writer) WriteTrades(trades []domain.TradeResult) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(w.TradesPath())
	if err != nil {
		return fmt.Errorf("creating trade report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"symbol", "buy_price", "buy_qty", "take_profit", "stop_loss", "sell_price", "pnl", "return_pct"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing trade header: %w", err)
	}
	for _, tr := range trades {
		row := []string{
			tr.Symbol,
			formatFloat(tr.BuyPrice),
			strconv.Itoa(tr.BuyQty),
			formatFloat(tr.TakeProfit),
			formatFloat(tr.StopLoss),
			formatFloat(tr.SellPrice),
			formatFloat(tr.PnL),
			formatFloat(tr.ReturnPct),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing trade row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing trade report: %w", err)
	}
	return f.Close()
}

// WriteSummary writes the aggregate summary JSON.
func (w *Writer) WriteSummary(s domain.Summary) error {
	return w.writeJSON(w.SummaryPath(), s)
}

func (w *Writer) writeJSON(path string, v any) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
