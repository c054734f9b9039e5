// Package domain defines the core value types shared across the tidemark
// pipeline: daily bars, trade signals, realized trade results, and the
// per-run performance summary.
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// DateLayout is the canonical serialized form of a bar date.
const DateLayout = "2006-01-02"

// Bar is one day's OHLCV record for a symbol. Date carries no time component.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Amount float64
}

// Signal is a long entry with bracket levels, produced by a strategy rule.
// Invariant: StopLoss < BuyPrice < TakeProfit and BuyQty > 0.
type Signal struct {
	Symbol     string  `json:"symbol"`
	BuyPrice   float64 `json:"buy_price"`
	BuyQty     int     `json:"buy_qty"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
}

// TradeResult is the realized outcome of simulating one signal. It is a pure
// value: once computed it is never mutated.
type TradeResult struct {
	Symbol     string  `json:"symbol"`
	BuyPrice   float64 `json:"buy_price"`
	BuyQty     int     `json:"buy_qty"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
	SellPrice  float64 `json:"sell_price"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
}

// NewTradeResult computes the derived PnL and return fields from a signal and
// its realized sell price.
func NewTradeResult(sig Signal, sellPrice float64) TradeResult {
	return TradeResult{
		Symbol:     sig.Symbol,
		BuyPrice:   sig.BuyPrice,
		BuyQty:     sig.BuyQty,
		TakeProfit: sig.TakeProfit,
		StopLoss:   sig.StopLoss,
		SellPrice:  sellPrice,
		PnL:        (sellPrice - sig.BuyPrice) * float64(sig.BuyQty),
		ReturnPct:  (sellPrice - sig.BuyPrice) / sig.BuyPrice,
	}
}

// Summary aggregates a collection of trade results. It is recomputed fresh
// for each run and never persisted incrementally.
type Summary struct {
	Trades          int     `json:"trades"`
	TotalPnL        float64 `json:"total_pnl"`
	WinRate         float64 `json:"win_rate"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
	Sharpe          float64 `json:"sharpe"`
}

// MarshalJSON encodes the summary, rendering an infinite profit/loss ratio
// (no losing trades) as the string "Infinity", which encoding/json would
// otherwise reject.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	if !math.IsInf(s.ProfitLossRatio, 0) {
		return json.Marshal(alias(s))
	}
	return json.Marshal(struct {
		alias
		ProfitLossRatio string `json:"profit_loss_ratio"`
	}{alias: alias(s), ProfitLossRatio: "Infinity"})
}

// ChangelogEntry records the symbols that entered or left the tradable
// universe in one run.
type ChangelogEntry struct {
	RunDate time.Time
	Added   []string
	Removed []string
}

// Round2 rounds to two decimal places, the price precision used for bracket
// levels.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
