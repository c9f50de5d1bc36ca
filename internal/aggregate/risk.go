package aggregate

import (
	"math"

	"github.com/tradekit/flexmetrics/internal/core"
)

// RiskMetrics summarizes the risk profile of a window's daily P&L series.
type RiskMetrics struct {
	MeanDailyPnL   float64 `json:"avgDailyPnl"`
	StdDevDailyPnL float64 `json:"stdDailyPnl"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	Consistency    float64 `json:"consistency"`
}

// ComputeRisk derives risk metrics from a window's per-day P&L values, in
// chronological order. Standard deviation uses the population formula
// (divide by N) so small samples stay reproducible. The Sharpe-like ratio is
// 0, not an error, when the deviation is zero. Fails with ErrEmptyWindow on
// an empty series.
func ComputeRisk(dailyPnLs []float64) (RiskMetrics, error) {
	if len(dailyPnLs) == 0 {
		return RiskMetrics{}, core.ErrEmptyWindow
	}

	n := float64(len(dailyPnLs))

	var sum float64
	var positive int
	for _, p := range dailyPnLs {
		sum += p
		if p > 0 {
			positive++
		}
	}
	mean := sum / n

	var variance float64
	for _, p := range dailyPnLs {
		variance += (p - mean) * (p - mean)
	}
	stdDev := math.Sqrt(variance / n)

	var sharpe float64
	if stdDev > 0 {
		sharpe = mean / stdDev
	}

	return RiskMetrics{
		MeanDailyPnL:   mean,
		StdDevDailyPnL: stdDev,
		SharpeRatio:    sharpe,
		MaxDrawdown:    maxDrawdown(dailyPnLs),
		Consistency:    float64(positive) / n,
	}, nil
}

// maxDrawdown finds the largest peak-to-trough decline in cumulative P&L.
// Always non-negative; zero when the cumulative series never falls below a
// prior peak.
func maxDrawdown(dailyPnLs []float64) float64 {
	var maxDD float64
	var cumulative float64
	peak := math.Inf(-1)

	for _, p := range dailyPnLs {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
