package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

// Narrative renders the plain-text monthly report from fixed section
// templates. Only monthly windows carry a narrative.
func Narrative(doc *WindowDocument) ([]byte, error) {
	w := doc.Window

	for name, v := range map[string]float64{
		"totalPnl":    w.TotalPnL,
		"netPnl":      w.NetPnL,
		"avgDailyPnl": w.Risk.MeanDailyPnL,
		"sharpeRatio": w.Risk.SharpeRatio,
		"maxDrawdown": w.Risk.MaxDrawdown,
		"consistency": w.Risk.Consistency,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.WrapError(core.ErrUnrenderableValue,
				fmt.Errorf("narrative for %s: non-finite %s", w.ID, name))
		}
	}

	start, err := time.Parse("2006-01", w.ID)
	title := strings.ToUpper(w.ID)
	if err == nil {
		title = strings.ToUpper(start.Format("January 2006"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MONTHLY TRADING REPORT - %s\n", title)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "Account:   %s\n", doc.Account)
	fmt.Fprintf(&b, "Generated: %s\n\n", doc.Meta.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("PERFORMANCE SUMMARY\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Total Trades:        %10d\n", w.TotalTrades)
	fmt.Fprintf(&b, "Trading Days:        %10d\n", w.ActiveDays)
	fmt.Fprintf(&b, "Gross P&L:          $%10.2f\n", w.TotalPnL)
	fmt.Fprintf(&b, "Commissions:        $%10.2f\n", w.TotalCommission)
	fmt.Fprintf(&b, "Net P&L:            $%10.2f\n", w.NetPnL)
	fmt.Fprintf(&b, "Best Day:           $%10.2f  (%s)\n", w.BestDay.PnL, w.BestDay.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Worst Day:          $%10.2f  (%s)\n\n", w.WorstDay.PnL, w.WorstDay.Date.Format("2006-01-02"))

	b.WriteString("RISK METRICS\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Avg Daily P&L:      $%10.2f\n", w.Risk.MeanDailyPnL)
	fmt.Fprintf(&b, "Consistency:         %9.1f%%\n", w.Risk.Consistency*100)
	fmt.Fprintf(&b, "Sharpe Ratio:        %10.2f\n", w.Risk.SharpeRatio)
	fmt.Fprintf(&b, "Profit Factor:       %10.2f\n", w.ProfitFactor)
	fmt.Fprintf(&b, "Max Drawdown:       $%10.2f\n", w.Risk.MaxDrawdown)
	fmt.Fprintf(&b, "Best Win Streak:     %10d\n", w.BestStreak)
	fmt.Fprintf(&b, "Max Losing Streak:   %10d\n", w.MaxConsecutiveLosses)

	if len(w.Recommendations) > 0 {
		b.WriteString("\nRECOMMENDATIONS\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, rec := range w.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	return []byte(b.String()), nil
}
