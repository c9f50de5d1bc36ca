package aggregate

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

func mkDay(t *testing.T, date time.Time, records ...core.TradeRecord) *DailySummary {
	t.Helper()
	for i := range records {
		records[i].TradeDate = date
	}
	s, err := Daily(date, records)
	if err != nil {
		t.Fatalf("Daily(%s): %v", date.Format("2006-01-02"), err)
	}
	return s
}

func TestWindow_Empty(t *testing.T) {
	_, err := Window(WindowWeek, nil)
	if !errors.Is(err, core.ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow, got %v", err)
	}
}

func TestWindow_TotalEqualsSumOfDays(t *testing.T) {
	d1 := mkDay(t, day, rec("AAPL", 100.25, 0), rec("MSFT", -3.125, 0))
	d2 := mkDay(t, day.AddDate(0, 0, 1), rec("AAPL", 0, 42.5))
	d3 := mkDay(t, day.AddDate(0, 0, 3), rec("TSLA", -17.0625, 0))

	w, err := Window(WindowWeek, []*DailySummary{d1, d2, d3})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	want := d1.TotalPnL + d2.TotalPnL + d3.TotalPnL
	if math.Abs(w.TotalPnL-want) > 1e-6 {
		t.Errorf("TotalPnL = %f, want %f", w.TotalPnL, want)
	}

	// Per-symbol breakdown must sum back to the window total.
	var bySymbol float64
	for _, ss := range w.BySymbol {
		bySymbol += ss.PnL
	}
	if math.Abs(bySymbol-w.TotalPnL) > 1e-6 {
		t.Errorf("symbol breakdown sums to %f, window total %f", bySymbol, w.TotalPnL)
	}
}

func TestWindow_EndToEndWeekly(t *testing.T) {
	// Daily P&Ls [100, -50, 75], win rates [1.0, 0.0, 1.0].
	d1 := mkDay(t, day, rec("AAPL", 100, 0))
	d2 := mkDay(t, day.AddDate(0, 0, 1), rec("MSFT", -50, 0))
	d3 := mkDay(t, day.AddDate(0, 0, 2), rec("AAPL", 75, 0))

	w, err := Window(WindowWeek, []*DailySummary{d1, d2, d3})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	if math.Abs(w.TotalPnL-125) > 1e-9 {
		t.Errorf("TotalPnL = %f, want 125", w.TotalPnL)
	}
	if !w.BestDay.Date.Equal(d1.Date) || w.BestDay.PnL != 100 {
		t.Errorf("BestDay = %+v, want first day / 100", w.BestDay)
	}
	if !w.WorstDay.Date.Equal(d2.Date) || w.WorstDay.PnL != -50 {
		t.Errorf("WorstDay = %+v, want second day / -50", w.WorstDay)
	}
	if math.Abs(w.Risk.Consistency-2.0/3.0) > 1e-9 {
		t.Errorf("Consistency = %f, want 2/3", w.Risk.Consistency)
	}
	if w.ActiveDays != 3 {
		t.Errorf("ActiveDays = %d, want 3", w.ActiveDays)
	}
	if w.ID != "2024-W10" {
		t.Errorf("ID = %s, want 2024-W10", w.ID)
	}
}

func TestWindow_BestDayTieEarliest(t *testing.T) {
	d1 := mkDay(t, day, rec("AAPL", 50, 0))
	d2 := mkDay(t, day.AddDate(0, 0, 1), rec("MSFT", 50, 0))

	w, err := Window(WindowWeek, []*DailySummary{d1, d2})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !w.BestDay.Date.Equal(d1.Date) {
		t.Errorf("BestDay tie should go to earliest date, got %s", w.BestDay.Date)
	}
	if !w.WorstDay.Date.Equal(d1.Date) {
		t.Errorf("WorstDay tie should go to earliest date, got %s", w.WorstDay.Date)
	}
}

func TestWindow_PeakHour(t *testing.T) {
	r1 := rec("AAPL", 10, 0)
	r1.TradeTime = "09:30:00"
	r2 := rec("AAPL", 10, 0)
	r2.TradeTime = "09:45:00"
	r3 := rec("MSFT", -5, 0)
	r3.TradeTime = "14:10:00"

	w, err := Window(WindowWeek, []*DailySummary{mkDay(t, day, r1, r2, r3)})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.PeakHour != 9 || w.PeakHourTrades != 2 {
		t.Errorf("PeakHour = %d (%d trades), want 9 (2)", w.PeakHour, w.PeakHourTrades)
	}
}

func TestWindow_PeakHourTieEarliest(t *testing.T) {
	r1 := rec("AAPL", 10, 0)
	r1.TradeTime = "15:00:00"
	r2 := rec("AAPL", 10, 0)
	r2.TradeTime = "09:00:00"

	w, err := Window(WindowWeek, []*DailySummary{mkDay(t, day, r1, r2)})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.PeakHour != 9 {
		t.Errorf("PeakHour = %d, want earliest hour 9 on tie", w.PeakHour)
	}
}

func TestWindow_PeakHourNoTimes(t *testing.T) {
	r := rec("AAPL", 10, 0)
	r.TradeTime = ""

	w, err := Window(WindowWeek, []*DailySummary{mkDay(t, day, r)})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.PeakHour != -1 {
		t.Errorf("PeakHour = %d, want -1 when no record has a time", w.PeakHour)
	}
}

func TestWindow_CurrencyExposure(t *testing.T) {
	usd := rec("AAPL", 10, 0)
	usd.Proceeds = -1500
	eur := rec("SAP", 5, 0)
	eur.Currency = "EUR"
	eur.Proceeds = 2000
	eur2 := rec("SAP", 5, 0)
	eur2.Currency = "EUR"
	eur2.Proceeds = -300

	w, err := Window(WindowWeek, []*DailySummary{mkDay(t, day, usd, eur, eur2)})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if math.Abs(w.CurrencyExposure["USD"]-(-1500)) > 1e-9 {
		t.Errorf("USD exposure = %f, want -1500", w.CurrencyExposure["USD"])
	}
	if math.Abs(w.CurrencyExposure["EUR"]-1700) > 1e-9 {
		t.Errorf("EUR exposure = %f, want 1700", w.CurrencyExposure["EUR"])
	}
}

func TestWindow_Idempotent(t *testing.T) {
	days := []*DailySummary{
		mkDay(t, day, rec("AAPL", 100, 0), rec("MSFT", -30, 5)),
		mkDay(t, day.AddDate(0, 0, 1), rec("TSLA", 12, -2)),
	}

	w1, err := Window(WindowWeek, days)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	w2, err := Window(WindowWeek, days)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	if !reflect.DeepEqual(w1, w2) {
		t.Error("Window is not idempotent: repeated runs differ")
	}
}

func TestWindow_MonthlyID(t *testing.T) {
	w, err := Window(WindowMonth, []*DailySummary{mkDay(t, day, rec("AAPL", 1, 0))})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.ID != "2024-03" {
		t.Errorf("ID = %s, want 2024-03", w.ID)
	}
}

func TestWindow_StreaksAndProfitFactor(t *testing.T) {
	days := []*DailySummary{
		mkDay(t, day, rec("A", 10, 0)),
		mkDay(t, day.AddDate(0, 0, 1), rec("A", 20, 0)),
		mkDay(t, day.AddDate(0, 0, 2), rec("A", -15, 0)),
		mkDay(t, day.AddDate(0, 0, 3), rec("A", -5, 0)),
		mkDay(t, day.AddDate(0, 0, 4), rec("A", 30, 0)),
	}

	w, err := Window(WindowWeek, days)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.BestStreak != 2 {
		t.Errorf("BestStreak = %d, want 2", w.BestStreak)
	}
	if w.MaxConsecutiveLosses != 2 {
		t.Errorf("MaxConsecutiveLosses = %d, want 2", w.MaxConsecutiveLosses)
	}
	// Gross wins 60, gross losses 20.
	if math.Abs(w.ProfitFactor-3) > 1e-9 {
		t.Errorf("ProfitFactor = %f, want 3", w.ProfitFactor)
	}
}

func TestWindow_MostTradedAndHighlights(t *testing.T) {
	w, err := Window(WindowWeek, []*DailySummary{
		mkDay(t, day, rec("AAPL", 40, 0), rec("AAPL", -90, 0), rec("MSFT", 15, 0)),
	})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.MostTraded.Symbol != "AAPL" || w.MostTraded.Trades != 2 {
		t.Errorf("MostTraded = %+v, want AAPL/2", w.MostTraded)
	}
	if w.LargestWin == nil || w.LargestWin.PnL != 40 {
		t.Errorf("LargestWin = %+v, want 40", w.LargestWin)
	}
	if w.LargestLoss == nil || w.LargestLoss.PnL != -90 {
		t.Errorf("LargestLoss = %+v, want -90", w.LargestLoss)
	}
}
