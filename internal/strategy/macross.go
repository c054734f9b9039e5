package strategy

import (
	"tidemark/internal/domain"
)

// Compile-time interface check.
var _ Rule = (*MACross)(nil)

// minHistory is the minimum number of bars required before the rule will
// evaluate a series.
const minHistory = 30

// Default bracket multipliers for a fired signal.
const (
	takeProfitMult = 1.10
	stopLossMult   = 0.95
)

// MACross emits a long entry when the short-period trailing moving average of
// closing prices crosses above the long-period average between the last two
// bars. Position size is the whole number of units affordable with the
// configured capital per trade.
type MACross struct {
	shortPeriod     int
	longPeriod      int
	capitalPerTrade float64
}

// NewMACross creates an MACross rule with the given short and long moving
// average periods and per-trade capital.
func NewMACross(short, long int, capitalPerTrade float64) *MACross {
	return &MACross{
		shortPeriod:     short,
		longPeriod:      long,
		capitalPerTrade: capitalPerTrade,
	}
}

// Name returns "ma-cross".
func (m *MACross) Name() string { return "ma-cross" }

// Evaluate fires only on a crossover event between the last two bars: the
// short average was at or below the long average on the second-to-last bar
// and is above it on the last bar.
func (m *MACross) Evaluate(bars []domain.Bar) (*domain.Signal, error) {
	if len(bars) < minHistory || len(bars) < m.longPeriod+1 {
		return nil, nil
	}

	last := len(bars) - 1
	prevShort := trailingMean(bars, last-1, m.shortPeriod)
	prevLong := trailingMean(bars, last-1, m.longPeriod)
	curShort := trailingMean(bars, last, m.shortPeriod)
	curLong := trailingMean(bars, last, m.longPeriod)

	if !(prevShort <= prevLong && curShort > curLong) {
		return nil, nil
	}

	buyPrice := bars[last].Close
	buyQty := int(m.capitalPerTrade / buyPrice)
	if buyQty <= 0 {
		// Capital does not cover a single unit.
		return nil, nil
	}

	return &domain.Signal{
		Symbol:     bars[last].Symbol,
		BuyPrice:   buyPrice,
		BuyQty:     buyQty,
		TakeProfit: domain.Round2(buyPrice * takeProfitMult),
		StopLoss:   domain.Round2(buyPrice * stopLossMult),
	}, nil
}

// trailingMean averages the closes of the window ending at index end
// (inclusive).
func trailingMean(bars []domain.Bar, end, period int) float64 {
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}
