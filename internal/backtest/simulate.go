// Package backtest simulates signal outcomes against forward price paths and
// aggregates the realized trades into summary statistics.
package backtest

import (
	"tidemark/internal/domain"
)

// ForwardBars extracts the simulation window from a symbol's full series: the
// bars strictly after the signal's anchor bar, capped at holdDays entries.
// The anchor is placed holdDays+1 bars from the end when the series is long
// enough, otherwise at the first bar. The window may be shorter than
// holdDays when fewer forward bars exist.
func ForwardBars(bars []domain.Bar, holdDays int) []domain.Bar {
	if len(bars) == 0 || holdDays <= 0 {
		return nil
	}
	if len(bars) > holdDays {
		return bars[len(bars)-holdDays:]
	}
	forward := bars[1:]
	if len(forward) > holdDays {
		forward = forward[:holdDays]
	}
	return forward
}

// Simulate walks the forward bars in order and realizes the signal's exit:
// the first close at or above the take-profit exits at the take-profit price;
// otherwise the first close at or below the stop-loss exits at the stop-loss
// price; if neither bound is touched the trade exits at the close of the last
// available forward bar. Take-profit has priority when both bounds would
// trigger on the same bar. Returns nil when no forward bars exist.
func Simulate(sig domain.Signal, forward []domain.Bar) *domain.TradeResult {
	if len(forward) == 0 {
		return nil
	}

	sellPrice := forward[len(forward)-1].Close
	for _, bar := range forward {
		if bar.Close >= sig.TakeProfit {
			sellPrice = sig.TakeProfit
			break
		}
		if bar.Close <= sig.StopLoss {
			sellPrice = sig.StopLoss
			break
		}
	}

	result := domain.NewTradeResult(sig, sellPrice)
	return &result
}
