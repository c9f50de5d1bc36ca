package flex

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

// Statement is the fully parsed content of one Flex Query response.
type Statement struct {
	Accounts  []core.AccountInfo
	Trades    []core.TradeRecord
	Positions []core.OpenPosition
	Cash      []core.CashBalance
}

type flexEnvelope struct {
	XMLName    xml.Name        `xml:"FlexQueryResponse"`
	Statements []flexStatement `xml:"FlexStatements>FlexStatement"`
}

type flexStatement struct {
	AccountID string           `xml:"accountId,attr"`
	Account   *flexAccountInfo `xml:"AccountInformation"`
	Trades    []flexTrade      `xml:"Trades>Trade"`
	Positions []flexPosition   `xml:"OpenPositions>OpenPosition"`
	Cash      []flexCash       `xml:"CashReport>CashReportCurrency"`
}

type flexAccountInfo struct {
	Alias          string `xml:"acctAlias,attr"`
	Currency       string `xml:"currency,attr"`
	AccountType    string `xml:"accountType,attr"`
	LastTradedDate string `xml:"lastTradedDate,attr"`
}

type flexTrade struct {
	TradeID       string `xml:"tradeID,attr"`
	Symbol        string `xml:"symbol,attr"`
	Description   string `xml:"description,attr"`
	AssetCategory string `xml:"assetCategory,attr"`
	TradeDate     string `xml:"tradeDate,attr"`
	ReportDate    string `xml:"reportDate,attr"`
	TradeTime     string `xml:"tradeTime,attr"`
	Quantity      string `xml:"quantity,attr"`
	TradePrice    string `xml:"tradePrice,attr"`
	Proceeds      string `xml:"proceeds,attr"`
	IBCommission  string `xml:"ibCommission,attr"`
	CommissionCur string `xml:"ibCommissionCurrency,attr"`
	Currency      string `xml:"currency,attr"`
	Cost          string `xml:"cost,attr"`
	FifoPnL       string `xml:"fifoPnlRealized,attr"`
	MtmPnL        string `xml:"mtmPnl,attr"`
	OpenClose     string `xml:"openCloseIndicator,attr"`
	Exchange      string `xml:"exchange,attr"`
	Multiplier    string `xml:"multiplier,attr"`
	Strike        string `xml:"strike,attr"`
	Expiry        string `xml:"expiry,attr"`
	PutCall       string `xml:"putCall,attr"`
	Underlying    string `xml:"underlyingSymbol,attr"`
}

type flexPosition struct {
	Symbol        string `xml:"symbol,attr"`
	Description   string `xml:"description,attr"`
	AssetCategory string `xml:"assetCategory,attr"`
	ReportDate    string `xml:"reportDate,attr"`
	Position      string `xml:"position,attr"`
	MarkPrice     string `xml:"markPrice,attr"`
	PositionValue string `xml:"positionValue,attr"`
	CostBasis     string `xml:"costBasisMoney,attr"`
	UnrealizedPnL string `xml:"fifoPnlUnrealized,attr"`
	Currency      string `xml:"currency,attr"`
}

type flexCash struct {
	Currency     string `xml:"currency,attr"`
	StartingCash string `xml:"startingCash,attr"`
	EndingCash   string `xml:"endingCash,attr"`
	SettledCash  string `xml:"endingSettledCash,attr"`
}

// ParseStatement decodes a Flex Query XML payload into domain records.
// Numeric attributes parse leniently: empty or malformed values become zero,
// the way the upstream service itself treats absent fields.
func ParseStatement(data []byte) (*Statement, error) {
	var env flexEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, core.WrapError(core.ErrFlexUpstream,
			fmt.Errorf("decoding statement: %w", err))
	}

	stmt := &Statement{}

	for _, fs := range env.Statements {
		if fs.Account != nil {
			stmt.Accounts = append(stmt.Accounts, core.AccountInfo{
				AccountID:      fs.AccountID,
				Alias:          fs.Account.Alias,
				Currency:       orDefault(fs.Account.Currency, "USD"),
				Type:           fs.Account.AccountType,
				LastTradedDate: fs.Account.LastTradedDate,
			})
		}

		for _, tr := range fs.Trades {
			date, err := parseDate(firstNonEmpty(tr.TradeDate, tr.ReportDate))
			if err != nil {
				return nil, core.WrapError(core.ErrInvalidRecord,
					fmt.Errorf("trade %s/%s: %w", fs.AccountID, tr.Symbol, err))
			}
			stmt.Trades = append(stmt.Trades, core.TradeRecord{
				AccountID:        fs.AccountID,
				TradeID:          tr.TradeID,
				Symbol:           tr.Symbol,
				Description:      tr.Description,
				Category:         parseCategory(tr.AssetCategory),
				TradeDate:        date,
				TradeTime:        normalizeTime(tr.TradeTime),
				Quantity:         atof(tr.Quantity),
				Price:            atof(tr.TradePrice),
				Proceeds:         atof(tr.Proceeds),
				Commission:       abs(atof(tr.IBCommission)),
				Realized:         atof(tr.FifoPnL),
				MTM:              atof(tr.MtmPnL),
				OpenClose:        parseOpenClose(tr.OpenClose),
				Currency:         orDefault(firstNonEmpty(tr.Currency, tr.CommissionCur), "USD"),
				CostBasis:        atof(tr.Cost),
				Exchange:         tr.Exchange,
				Multiplier:       atof(tr.Multiplier),
				Strike:           atof(tr.Strike),
				Expiry:           tr.Expiry,
				PutCall:          tr.PutCall,
				UnderlyingSymbol: tr.Underlying,
			})
		}

		for _, p := range fs.Positions {
			date, _ := parseDate(p.ReportDate)
			stmt.Positions = append(stmt.Positions, core.OpenPosition{
				AccountID:     fs.AccountID,
				Symbol:        p.Symbol,
				Description:   p.Description,
				Category:      parseCategory(p.AssetCategory),
				ReportDate:    date,
				Position:      atof(p.Position),
				MarkPrice:     atof(p.MarkPrice),
				PositionValue: atof(p.PositionValue),
				CostBasis:     atof(p.CostBasis),
				UnrealizedPnL: atof(p.UnrealizedPnL),
				Currency:      orDefault(p.Currency, "USD"),
			})
		}

		for _, cr := range fs.Cash {
			stmt.Cash = append(stmt.Cash, core.CashBalance{
				AccountID: fs.AccountID,
				Currency:  orDefault(cr.Currency, "USD"),
				Starting:  atof(cr.StartingCash),
				Ending:    atof(cr.EndingCash),
				Settled:   atof(cr.SettledCash),
			})
		}
	}

	return stmt, nil
}

// categoryCodes maps Flex asset category codes to domain categories.
var categoryCodes = map[string]core.AssetCategory{
	"STK":  core.AssetEquity,
	"OPT":  core.AssetOption,
	"FOP":  core.AssetOption,
	"FUT":  core.AssetFuture,
	"CASH": core.AssetForex,
	"BOND": core.AssetBond,
	"FUND": core.AssetFund,
	"WAR":  core.AssetWarrant,
	"IOPT": core.AssetStructured,
}

func parseCategory(code string) core.AssetCategory {
	if cat, ok := categoryCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return cat
	}
	return core.AssetUnknown
}

func parseOpenClose(s string) core.OpenClose {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "O":
		return core.OpenCloseOpen
	case "C":
		return core.OpenCloseClose
	default:
		return core.OpenCloseUnknown
	}
}

// parseDate accepts the service's compact YYYYMMDD form and the dashed
// YYYY-MM-DD form.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(s) == 8 {
		return time.Parse("20060102", s)
	}
	return time.Parse("2006-01-02", s)
}

// normalizeTime rewrites compact HHMMSS times to HH:MM:SS.
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 6 && !strings.Contains(s, ":") {
		return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
	}
	return s
}

func atof(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
