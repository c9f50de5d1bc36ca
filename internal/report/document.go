package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/core"
)

// Meta carries provenance fields stamped on every rendered document.
type Meta struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
}

// NewMeta stamps a fresh run identifier with the given generation time.
func NewMeta(generatedAt time.Time) Meta {
	return Meta{
		RunID:       uuid.NewString(),
		GeneratedAt: generatedAt,
		Version:     "1.0",
	}
}

// DailyDocument mirrors one day's summary plus the raw records it was built
// from, for the persistence layer.
type DailyDocument struct {
	Meta            Meta                     `json:"metadata"`
	Account         string                   `json:"account"`
	Date            time.Time                `json:"date"`
	Summary         *aggregate.DailySummary  `json:"summary"`
	Trades          []core.TradeRecord       `json:"trades"`
	InvalidRecords  int                      `json:"invalidRecords,omitempty"`
	FilteredRecords int                      `json:"filteredRecords,omitempty"`
}

// PositionsDocument attaches a day's open positions verbatim.
type PositionsDocument struct {
	Meta      Meta                `json:"metadata"`
	Date      time.Time           `json:"date"`
	Positions []core.OpenPosition `json:"positions"`
	Count     int                 `json:"count"`
}

// CashDocument attaches a day's per-currency cash balances verbatim.
type CashDocument struct {
	Meta     Meta               `json:"metadata"`
	Date     time.Time          `json:"date"`
	Balances []core.CashBalance `json:"cashReport"`
}

// WindowDocument mirrors a weekly or monthly summary plus its constituent
// daily summaries.
type WindowDocument struct {
	Meta    Meta                       `json:"metadata"`
	Account string                     `json:"account"`
	Window  *aggregate.WindowSummary   `json:"window"`
	Days    []*aggregate.DailySummary  `json:"dailySummaries"`
}

// NewDailyDocument assembles the daily document. When obfuscate is set the
// account identifier is masked on the document and on every attached record.
func NewDailyDocument(meta Meta, account string, s *aggregate.DailySummary, invalid, filtered int, obfuscate bool) *DailyDocument {
	trades := s.Trades
	if obfuscate {
		account = core.ObfuscateAccount(account)
		trades = make([]core.TradeRecord, len(s.Trades))
		copy(trades, s.Trades)
		for i := range trades {
			trades[i].AccountID = core.ObfuscateAccount(trades[i].AccountID)
		}
	}
	return &DailyDocument{
		Meta:            meta,
		Account:         account,
		Date:            s.Date,
		Summary:         s,
		Trades:          trades,
		InvalidRecords:  invalid,
		FilteredRecords: filtered,
	}
}

// NewPositionsDocument assembles the positions attachment for a date.
func NewPositionsDocument(meta Meta, date time.Time, positions []core.OpenPosition, obfuscate bool) *PositionsDocument {
	if obfuscate {
		masked := make([]core.OpenPosition, len(positions))
		copy(masked, positions)
		for i := range masked {
			masked[i].AccountID = core.ObfuscateAccount(masked[i].AccountID)
		}
		positions = masked
	}
	return &PositionsDocument{Meta: meta, Date: date, Positions: positions, Count: len(positions)}
}

// NewCashDocument assembles the cash attachment for a date.
func NewCashDocument(meta Meta, date time.Time, balances []core.CashBalance, obfuscate bool) *CashDocument {
	if obfuscate {
		masked := make([]core.CashBalance, len(balances))
		copy(masked, balances)
		for i := range masked {
			masked[i].AccountID = core.ObfuscateAccount(masked[i].AccountID)
		}
		balances = masked
	}
	return &CashDocument{Meta: meta, Date: date, Balances: balances}
}

// NewWindowDocument assembles a weekly or monthly document.
func NewWindowDocument(meta Meta, account string, w *aggregate.WindowSummary, obfuscate bool) *WindowDocument {
	if obfuscate {
		account = core.ObfuscateAccount(account)
	}
	return &WindowDocument{Meta: meta, Account: account, Window: w, Days: w.Days}
}

// Storage paths for rendered documents.

func DailyPath(date time.Time) string {
	return fmt.Sprintf("daily/%s.json", date.Format("2006-01-02"))
}

func PositionsPath(date time.Time) string {
	return fmt.Sprintf("daily/%s_positions.json", date.Format("2006-01-02"))
}

func CashPath(date time.Time) string {
	return fmt.Sprintf("daily/%s_cash.json", date.Format("2006-01-02"))
}

func WindowPath(w *aggregate.WindowSummary) string {
	if w.Kind == aggregate.WindowWeek {
		return fmt.Sprintf("weekly/%s.json", w.ID)
	}
	return fmt.Sprintf("monthly/%s.json", w.ID)
}

func NarrativePath(w *aggregate.WindowSummary) string {
	return fmt.Sprintf("monthly/%s.txt", w.ID)
}
