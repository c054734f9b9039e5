package report

import (
	"encoding/csv"
	"math"
	"os"
	"strings"
	"testing"

	"tidemark/internal/domain"
)

func TestWriteTrades(t *testing.T) {
	w := NewWriter(t.TempDir())

	trades := []domain.TradeResult{
		domain.NewTradeResult(domain.Signal{
			Symbol: "600000", BuyPrice: 10, BuyQty: 100, TakeProfit: 11, StopLoss: 9.5,
		}, 11),
		domain.NewTradeResult(domain.Signal{
			Symbol: "000001", BuyPrice: 20, BuyQty: 50, TakeProfit: 22, StopLoss: 19,
		}, 19),
	}
	if err := w.WriteTrades(trades); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}

	f, err := os.Open(w.TradesPath())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 trades", len(rows))
	}
	wantHeader := "symbol,buy_price,buy_qty,take_profit,stop_loss,sell_price,pnl,return_pct"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}
	if rows[1][0] != "600000" || rows[1][6] != "100" {
		t.Errorf("first trade row = %v", rows[1])
	}
	if rows[2][6] != "-50" {
		t.Errorf("losing trade pnl = %q, want -50", rows[2][6])
	}
}

func TestWriteTradesEmpty(t *testing.T) {
	w := NewWriter(t.TempDir())
	if err := w.WriteTrades(nil); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}
	data, err := os.ReadFile(w.TradesPath())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Errorf("empty report has %d lines, want header only", len(lines))
	}
}

func TestWriteSummaryInfinity(t *testing.T) {
	w := NewWriter(t.TempDir())
	s := domain.Summary{
		Trades:          2,
		TotalPnL:        150,
		WinRate:         1,
		ProfitLossRatio: math.Inf(1),
		Sharpe:          1.2,
	}
	if err := w.WriteSummary(s); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	data, err := os.ReadFile(w.SummaryPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"profit_loss_ratio": "Infinity"`) {
		t.Errorf("summary JSON missing Infinity marker:\n%s", data)
	}
}

func TestSignalsRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir())
	in := []domain.Signal{
		{Symbol: "600000", BuyPrice: 120, BuyQty: 833, TakeProfit: 132, StopLoss: 114},
	}
	if err := w.WriteSignals(in); err != nil {
		t.Fatalf("WriteSignals: %v", err)
	}
	out, err := w.ReadSignals()
	if err != nil {
		t.Fatalf("ReadSignals: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestWriteSignalsNil(t *testing.T) {
	w := NewWriter(t.TempDir())
	if err := w.WriteSignals(nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(w.SignalsPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("nil signals wrote %q, want empty array", data)
	}
}
