package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestTradeRecord_CombinedPnL(t *testing.T) {
	r := TradeRecord{Realized: 120.5, MTM: -20.5}
	if r.CombinedPnL() != 100.0 {
		t.Errorf("CombinedPnL() = %f, want 100", r.CombinedPnL())
	}
}

func TestTradeRecord_Hour(t *testing.T) {
	tests := []struct {
		name   string
		time   string
		want   int
		wantOK bool
	}{
		{"colon format", "09:31:05", 9, true},
		{"compact format", "153000", 15, true},
		{"empty", "", 0, false},
		{"garbage", "xx:00", 0, false},
		{"out of range", "25:00:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TradeRecord{TradeTime: tt.time}.Hour()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Hour() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTradeRecord_Validate(t *testing.T) {
	valid := TradeRecord{
		Symbol:    "AAPL",
		TradeDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Quantity:  100,
		Price:     182.50,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	missing := valid
	missing.Symbol = " "
	if err := missing.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for missing symbol, got %v", err)
	}

	noDate := valid
	noDate.TradeDate = time.Time{}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for zero date, got %v", err)
	}

	nan := valid
	nan.Price = math.NaN()
	if err := nan.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for NaN price, got %v", err)
	}
}

func TestAssetCategory_Constants(t *testing.T) {
	cats := []AssetCategory{
		AssetEquity, AssetOption, AssetFuture, AssetForex,
		AssetBond, AssetFund, AssetWarrant, AssetStructured,
	}
	expected := []string{
		"equity", "option", "future", "forex",
		"bond", "fund", "warrant", "structured_product",
	}
	for i, c := range cats {
		if string(c) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], c)
		}
	}
}

func TestObfuscateAccount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"U1234567", "U*****67"},
		{"U12", "U12"},
		{"", ""},
		{"U123", "U*23"},
	}
	for _, tt := range tests {
		if got := ObfuscateAccount(tt.in); got != tt.want {
			t.Errorf("ObfuscateAccount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
