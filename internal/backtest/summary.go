package backtest

import (
	"math"

	"tidemark/internal/domain"
)

// Summarize reduces a collection of realized trades to summary statistics.
// An empty collection yields an all-zero summary. The profit/loss ratio is
// +Inf when no trade lost money; the Sharpe-like ratio is 0 below two trades,
// where a sample standard deviation is undefined.
func Summarize(results []domain.TradeResult) domain.Summary {
	if len(results) == 0 {
		return domain.Summary{}
	}

	var (
		totalPnL  float64
		winPnL    float64
		lossPnL   float64
		wins      int
		losses    int
		returnSum float64
	)
	for _, r := range results {
		totalPnL += r.PnL
		returnSum += r.ReturnPct
		switch {
		case r.PnL > 0:
			winPnL += r.PnL
			wins++
		case r.PnL < 0:
			lossPnL += r.PnL
			losses++
		}
	}

	n := float64(len(results))

	profitLossRatio := math.Inf(1)
	if losses > 0 {
		ratio := 0.0
		if wins > 0 {
			ratio = (winPnL / float64(wins)) / math.Abs(lossPnL/float64(losses))
		}
		profitLossRatio = ratio
	}

	sharpe := 0.0
	if len(results) > 1 {
		mean := returnSum / n
		var sqSum float64
		for _, r := range results {
			d := r.ReturnPct - mean
			sqSum += d * d
		}
		// Bessel's correction: sample standard deviation over n-1.
		std := math.Sqrt(sqSum / (n - 1))
		if std > 0 {
			sharpe = mean / std
		}
	}

	return domain.Summary{
		Trades:          len(results),
		TotalPnL:        totalPnL,
		WinRate:         float64(wins) / n,
		ProfitLossRatio: profitLossRatio,
		Sharpe:          sharpe,
	}
}
