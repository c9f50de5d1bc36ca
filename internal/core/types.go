package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AssetCategory classifies the instrument of a trade or position.
type AssetCategory string

const (
	AssetEquity     AssetCategory = "equity"
	AssetOption     AssetCategory = "option"
	AssetFuture     AssetCategory = "future"
	AssetForex      AssetCategory = "forex"
	AssetBond       AssetCategory = "bond"
	AssetFund       AssetCategory = "fund"
	AssetWarrant    AssetCategory = "warrant"
	AssetStructured AssetCategory = "structured_product"
	AssetUnknown    AssetCategory = "unknown"
)

// OpenClose indicates whether a fill opened or closed a position.
type OpenClose string

const (
	OpenCloseOpen    OpenClose = "open"
	OpenCloseClose   OpenClose = "close"
	OpenCloseUnknown OpenClose = "unknown"
)

// TradeRecord is one executed fill as reported by the brokerage statement.
// Commission and P&L amounts are denominated in the trade's own currency and
// are never converted. Category-specific fields (strike, expiry, put/call,
// multiplier, underlying) are pass-through data that aggregation never reads.
type TradeRecord struct {
	AccountID  string        `json:"accountId"`
	TradeID    string        `json:"tradeId,omitempty"`
	Symbol     string        `json:"symbol"`
	Category   AssetCategory `json:"assetCategory"`
	TradeDate  time.Time     `json:"tradeDate"`
	TradeTime  string        `json:"tradeTime,omitempty"` // HH:MM:SS as reported
	Quantity   float64       `json:"quantity"`
	Price      float64       `json:"tradePrice"`
	Proceeds   float64       `json:"proceeds"`
	Commission float64       `json:"commission"`
	Realized   float64       `json:"realizedPnl"`
	MTM        float64       `json:"mtmPnl"`
	OpenClose  OpenClose     `json:"openCloseIndicator"`
	Currency   string        `json:"currency"`
	CostBasis  float64       `json:"cost"`
	Exchange   string        `json:"exchange,omitempty"`

	// Category-specific pass-through fields.
	Description      string  `json:"description,omitempty"`
	Multiplier       float64 `json:"multiplier,omitempty"`
	Strike           float64 `json:"strike,omitempty"`
	Expiry           string  `json:"expiry,omitempty"`
	PutCall          string  `json:"putCall,omitempty"`
	UnderlyingSymbol string  `json:"underlyingSymbol,omitempty"`
}

// CombinedPnL is the realized plus mark-to-market P&L of the fill.
func (t TradeRecord) CombinedPnL() float64 {
	return t.Realized + t.MTM
}

// Notional is the absolute traded value of the fill.
func (t TradeRecord) Notional() float64 {
	return math.Abs(t.Quantity * t.Price)
}

// Hour returns the execution hour-of-day parsed from TradeTime.
// ok is false when the time is missing or malformed.
func (t TradeRecord) Hour() (int, bool) {
	s := t.TradeTime
	if len(s) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// Validate checks that the record carries the fields aggregation depends on.
func (t TradeRecord) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return WrapError(ErrInvalidRecord, fmt.Errorf("missing symbol"))
	}
	if t.TradeDate.IsZero() {
		return WrapError(ErrInvalidRecord, fmt.Errorf("missing trade date for %s", t.Symbol))
	}
	for name, v := range map[string]float64{
		"quantity":   t.Quantity,
		"tradePrice": t.Price,
		"proceeds":   t.Proceeds,
		"commission": t.Commission,
		"realizedPnl": t.Realized,
		"mtmPnl":     t.MTM,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return WrapError(ErrInvalidRecord,
				fmt.Errorf("%s: non-finite %s", t.Symbol, name))
		}
	}
	return nil
}

// OpenPosition is a still-open position attached verbatim to daily documents.
type OpenPosition struct {
	AccountID     string        `json:"accountId"`
	Symbol        string        `json:"symbol"`
	Description   string        `json:"description,omitempty"`
	Category      AssetCategory `json:"assetCategory"`
	ReportDate    time.Time     `json:"reportDate"`
	Position      float64       `json:"position"`
	MarkPrice     float64       `json:"markPrice"`
	PositionValue float64       `json:"positionValue"`
	CostBasis     float64       `json:"costBasisMoney"`
	UnrealizedPnL float64       `json:"unrealizedPnl"`
	Currency      string        `json:"currency"`
}

// CashBalance is one currency's cash line from the statement's cash report.
type CashBalance struct {
	AccountID string  `json:"accountId"`
	Currency  string  `json:"currency"`
	Starting  float64 `json:"startingCash"`
	Ending    float64 `json:"endingCash"`
	Settled   float64 `json:"endingSettledCash"`
}

// AccountInfo describes the account a statement belongs to.
type AccountInfo struct {
	AccountID      string `json:"accountId"`
	Alias          string `json:"alias,omitempty"`
	Currency       string `json:"currency"`
	Type           string `json:"type,omitempty"`
	LastTradedDate string `json:"lastTradedDate,omitempty"`
}

// ObfuscateAccount masks an account identifier, keeping the first character
// and the last two. Identifiers shorter than four characters pass through.
func ObfuscateAccount(id string) string {
	if len(id) < 4 {
		return id
	}
	return id[:1] + strings.Repeat("*", len(id)-3) + id[len(id)-2:]
}
