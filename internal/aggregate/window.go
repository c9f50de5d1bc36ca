package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

// WindowKind selects the aggregation period.
type WindowKind string

const (
	WindowWeek  WindowKind = "week"
	WindowMonth WindowKind = "month"
)

// DayPnL pairs a date with its total P&L, used for best/worst day.
type DayPnL struct {
	Date time.Time `json:"date"`
	PnL  float64   `json:"pnl"`
}

// SymbolStats accumulates per-symbol activity inside a window.
type SymbolStats struct {
	Trades     int     `json:"count"`
	PnL        float64 `json:"pnl"`
	Volume     float64 `json:"volume"`
	Commission float64 `json:"commission"`
}

// CategoryStats accumulates per-asset-category activity inside a window.
type CategoryStats struct {
	Trades int     `json:"count"`
	PnL    float64 `json:"pnl"`
	Volume float64 `json:"volume"`
}

// WeekdayStats accumulates per-day-of-week activity inside a window.
type WeekdayStats struct {
	Trades int     `json:"count"`
	PnL    float64 `json:"pnl"`
}

// TradeHighlight references a single standout fill (largest win or loss).
type TradeHighlight struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	PnL    float64   `json:"pnl"`
}

// SymbolCount names the most-traded symbol of a window.
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Trades int    `json:"count"`
}

// WindowSummary is the rollup of a contiguous run of daily summaries into
// one weekly or monthly view. Days holds read-only references to the
// constituent summaries. Maps key on unique symbols, categories, currencies
// and weekday names; Go's json encoding emits their keys sorted, so
// re-rendering identical input yields identical bytes.
type WindowSummary struct {
	Kind  WindowKind `json:"windowKind"`
	ID    string     `json:"windowId"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`

	Days []*DailySummary `json:"-"`

	TotalTrades     int     `json:"totalTrades"`
	TotalPnL        float64 `json:"totalPnl"`
	TotalCommission float64 `json:"totalCommission"`
	NetPnL          float64 `json:"netPnl"`
	WinRate         float64 `json:"winRate"`
	ActiveDays      int     `json:"tradingDays"`

	BestDay  DayPnL `json:"bestDay"`
	WorstDay DayPnL `json:"worstDay"`

	BySymbol   map[string]SymbolStats              `json:"bySymbol"`
	ByCategory map[core.AssetCategory]CategoryStats `json:"byAssetCategory"`
	ByWeekday  map[string]WeekdayStats             `json:"byDayOfWeek"`

	// CurrencyExposure maps currency code to cumulative proceeds in that
	// currency, unconverted.
	CurrencyExposure map[string]float64 `json:"currencyExposure"`

	// PeakHour is the modal execution hour-of-day, -1 when no record
	// carries a parseable time.
	PeakHour       int `json:"peakHour"`
	PeakHourTrades int `json:"peakHourTrades"`

	LargestWin  *TradeHighlight `json:"largestWin,omitempty"`
	LargestLoss *TradeHighlight `json:"largestLoss,omitempty"`
	MostTraded  SymbolCount     `json:"mostTraded"`

	TotalVolume  float64 `json:"totalVolume"`
	AvgTradeSize float64 `json:"avgTradeSize"`

	BestStreak           int     `json:"bestStreak"`
	MaxConsecutiveLosses int     `json:"maxConsecutiveLosses"`
	ProfitFactor         float64 `json:"profitFactor"`
	Expectancy           float64 `json:"expectancy"`

	Risk RiskMetrics `json:"riskMetrics"`

	Recommendations []string `json:"recommendations"`
}

// Window folds an ordered, chronological run of daily summaries (gaps
// permitted) into one WindowSummary. Fails with ErrEmptyWindow when days is
// empty. Re-running on the same input yields identical output.
func Window(kind WindowKind, days []*DailySummary) (*WindowSummary, error) {
	if len(days) == 0 {
		return nil, core.ErrEmptyWindow
	}

	w := &WindowSummary{
		Kind:             kind,
		Start:            days[0].Date,
		End:              days[len(days)-1].Date,
		Days:             days,
		ID:               windowID(kind, days[0].Date),
		BySymbol:         map[string]SymbolStats{},
		ByCategory:       map[core.AssetCategory]CategoryStats{},
		ByWeekday:        map[string]WeekdayStats{},
		CurrencyExposure: map[string]float64{},
		PeakHour:         -1,
		Recommendations:  []string{},
	}

	hourCounts := map[int]int{}
	var winners, losers int
	var grossWins, grossLosses float64
	var sumWins, sumLosses float64
	var streak, lossStreak int
	var dailyPnLs []float64

	for _, d := range days {
		w.TotalTrades += d.TotalTrades
		w.TotalPnL += d.TotalPnL
		w.TotalCommission += d.TotalCommission
		w.ActiveDays++
		dailyPnLs = append(dailyPnLs, d.TotalPnL)

		// Best/worst day, ties broken by earliest date.
		if w.ActiveDays == 1 || d.TotalPnL > w.BestDay.PnL {
			w.BestDay = DayPnL{Date: d.Date, PnL: d.TotalPnL}
		}
		if w.ActiveDays == 1 || d.TotalPnL < w.WorstDay.PnL {
			w.WorstDay = DayPnL{Date: d.Date, PnL: d.TotalPnL}
		}

		// Win/loss day streaks.
		if d.TotalPnL > 0 {
			streak++
			lossStreak = 0
			grossWins += d.TotalPnL
			if streak > w.BestStreak {
				w.BestStreak = streak
			}
		} else {
			streak = 0
			if d.TotalPnL < 0 {
				grossLosses += -d.TotalPnL
			}
			lossStreak++
			if lossStreak > w.MaxConsecutiveLosses {
				w.MaxConsecutiveLosses = lossStreak
			}
		}

		for _, r := range d.Trades {
			pnl := r.CombinedPnL()
			vol := r.Notional()

			switch {
			case pnl > 0:
				winners++
				sumWins += pnl
			case pnl < 0:
				losers++
				sumLosses += -pnl
			}

			sym := strings.ToUpper(strings.TrimSpace(r.Symbol))
			ss := w.BySymbol[sym]
			ss.Trades++
			ss.PnL += pnl
			ss.Volume += vol
			ss.Commission += r.Commission
			w.BySymbol[sym] = ss

			cat := r.Category
			if cat == "" {
				cat = core.AssetUnknown
			}
			cs := w.ByCategory[cat]
			cs.Trades++
			cs.PnL += pnl
			cs.Volume += vol
			w.ByCategory[cat] = cs

			wd := r.TradeDate.Weekday().String()
			ds := w.ByWeekday[wd]
			ds.Trades++
			ds.PnL += pnl
			w.ByWeekday[wd] = ds

			cur := r.Currency
			if cur == "" {
				cur = "USD"
			}
			w.CurrencyExposure[cur] += r.Proceeds

			if h, ok := r.Hour(); ok {
				hourCounts[h]++
			}

			if pnl > 0 && (w.LargestWin == nil || pnl > w.LargestWin.PnL) {
				w.LargestWin = &TradeHighlight{Symbol: sym, Date: r.TradeDate, PnL: pnl}
			}
			if pnl < 0 && (w.LargestLoss == nil || pnl < w.LargestLoss.PnL) {
				w.LargestLoss = &TradeHighlight{Symbol: sym, Date: r.TradeDate, PnL: pnl}
			}

			w.TotalVolume += vol
		}
	}

	w.NetPnL = w.TotalPnL - w.TotalCommission

	if decided := winners + losers; decided > 0 {
		w.WinRate = float64(winners) / float64(decided)
	}
	if w.TotalTrades > 0 {
		w.AvgTradeSize = w.TotalVolume / float64(w.TotalTrades)
	}
	if grossLosses > 0 {
		w.ProfitFactor = grossWins / grossLosses
	}

	// Expectancy: win-rate-weighted average win minus loss-rate-weighted
	// average loss, per trade.
	if decided := winners + losers; decided > 0 {
		var avgWin, avgLoss float64
		if winners > 0 {
			avgWin = sumWins / float64(winners)
		}
		if losers > 0 {
			avgLoss = sumLosses / float64(losers)
		}
		rate := float64(winners) / float64(decided)
		w.Expectancy = rate*avgWin - (1-rate)*avgLoss
	}

	// Modal execution hour, ties broken by earliest hour.
	for h := 0; h < 24; h++ {
		if c := hourCounts[h]; c > w.PeakHourTrades {
			w.PeakHour = h
			w.PeakHourTrades = c
		}
	}

	// Most traded symbol, ties broken lexicographically for determinism.
	for sym, ss := range w.BySymbol {
		if ss.Trades > w.MostTraded.Trades ||
			(ss.Trades == w.MostTraded.Trades && sym < w.MostTraded.Symbol) {
			w.MostTraded = SymbolCount{Symbol: sym, Trades: ss.Trades}
		}
	}

	risk, err := ComputeRisk(dailyPnLs)
	if err != nil {
		return nil, err
	}
	w.Risk = risk

	return w, nil
}

// windowID derives the window identifier from its first day: ISO week
// ("2024-W10") for weekly windows, year-month ("2024-03") for monthly.
func windowID(kind WindowKind, start time.Time) string {
	if kind == WindowWeek {
		y, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, week)
	}
	return start.Format("2006-01")
}
