package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

// DailySummary is the per-day rollup of one trading day's fills. It is
// immutable once produced; Trades is a read-only reference kept for
// traceability.
type DailySummary struct {
	Date            time.Time                      `json:"date"`
	Trades          []core.TradeRecord             `json:"-"`
	TotalTrades     int                            `json:"totalTrades"`
	TotalPnL        float64                        `json:"totalPnl"`
	TotalCommission float64                        `json:"totalCommission"`
	NetPnL          float64                        `json:"netPnl"`
	WinRate         float64                        `json:"winRate"`
	Winners         int                            `json:"winners"`
	Losers          int                            `json:"losers"`
	Flat            int                            `json:"flat"`
	Symbols         []string                       `json:"symbols"`
	Categories      map[core.AssetCategory]int     `json:"assetCategories"`
}

// Daily folds one calendar day's trade records into a DailySummary.
// Every record must fall on date; a mismatch or a malformed record fails
// with ErrInvalidRecord. Pure function of its input.
func Daily(date time.Time, records []core.TradeRecord) (*DailySummary, error) {
	day := date.Truncate(24 * time.Hour)

	s := &DailySummary{
		Date:        day,
		Trades:      records,
		TotalTrades: len(records),
		Symbols:     []string{},
		Categories:  map[core.AssetCategory]int{},
	}

	seen := map[string]struct{}{}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if !sameDay(r.TradeDate, day) {
			return nil, core.WrapError(core.ErrInvalidRecord,
				fmt.Errorf("%s traded %s, expected %s",
					r.Symbol, r.TradeDate.Format("2006-01-02"), day.Format("2006-01-02")))
		}

		pnl := r.CombinedPnL()
		s.TotalPnL += pnl
		s.TotalCommission += r.Commission

		switch {
		case pnl > 0:
			s.Winners++
		case pnl < 0:
			s.Losers++
		default:
			s.Flat++
		}

		sym := strings.ToUpper(strings.TrimSpace(r.Symbol))
		if _, ok := seen[sym]; !ok {
			seen[sym] = struct{}{}
			s.Symbols = append(s.Symbols, sym)
		}

		cat := r.Category
		if cat == "" {
			cat = core.AssetUnknown
		}
		s.Categories[cat]++
	}

	s.NetPnL = s.TotalPnL - s.TotalCommission

	// Flat trades are excluded from the win-rate denominator.
	if decided := s.Winners + s.Losers; decided > 0 {
		s.WinRate = float64(s.Winners) / float64(decided)
	}

	sort.Strings(s.Symbols)
	return s, nil
}

// Partition splits records into valid and invalid per core validation rules.
// Callers run this ahead of Daily so one bad record does not sink the day;
// the dropped count is surfaced for reporting.
func Partition(records []core.TradeRecord) (valid []core.TradeRecord, dropped int) {
	for _, r := range records {
		if r.Validate() != nil {
			dropped++
			continue
		}
		valid = append(valid, r)
	}
	return valid, dropped
}

// GroupByDate buckets records by calendar day, preserving input order
// within each day. Keys are midnight-truncated times.
func GroupByDate(records []core.TradeRecord) map[time.Time][]core.TradeRecord {
	byDate := map[time.Time][]core.TradeRecord{}
	for _, r := range records {
		day := r.TradeDate.Truncate(24 * time.Hour)
		byDate[day] = append(byDate[day], r)
	}
	return byDate
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
