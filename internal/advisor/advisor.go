// Package advisor turns a completed window summary into rule-based textual
// advisories. Evaluation is a single generic loop over an ordered rule table;
// all matching rules fire, in table order, so output is reproducible for
// identical input.
package advisor

import (
	"github.com/tradekit/flexmetrics/internal/aggregate"
)

// Advisor evaluates an ordered rule set against window metrics.
type Advisor struct {
	rules []Rule
}

// New creates an Advisor with the given rules. Nil falls back to the
// default table.
func New(rules []Rule) *Advisor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Advisor{rules: rules}
}

// Advise returns the advisories whose rules match the window, in rule-table
// order. It reads only the summary and its risk block; no external state.
func (a *Advisor) Advise(w *aggregate.WindowSummary) []string {
	metrics := Metrics(w)

	var out []string
	for _, r := range a.rules {
		if r.Matches(metrics) {
			out = append(out, r.Render(metrics))
		}
	}
	return out
}

// Metrics flattens a window summary into the metric map the rule table is
// written against.
func Metrics(w *aggregate.WindowSummary) map[string]float64 {
	m := map[string]float64{
		"win_rate":     w.WinRate,
		"total_pnl":    w.TotalPnL,
		"net_pnl":      w.NetPnL,
		"active_days":  float64(w.ActiveDays),
		"max_drawdown": w.Risk.MaxDrawdown,
		"sharpe_ratio": w.Risk.SharpeRatio,
		"consistency":  w.Risk.Consistency,
		"profit_factor": w.ProfitFactor,
		"expectancy":   w.Expectancy,
	}

	// Drawdown relative to the window's gross winning days; bounded signal
	// that works across account sizes.
	var grossWins float64
	for _, d := range w.Days {
		if d.TotalPnL > 0 {
			grossWins += d.TotalPnL
		}
	}
	if grossWins > 0 {
		m["drawdown_ratio"] = w.Risk.MaxDrawdown / grossWins
	}

	if w.TotalTrades > 0 {
		m["top_symbol_share"] = float64(w.MostTraded.Trades) / float64(w.TotalTrades)
	}

	return m
}
