package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradekit/flexmetrics/internal/advisor"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
flex:
  token: "abc123"
  query_id: "987654"
  poll_interval: 5s

storage:
  type: localfs
  path: "/tmp/flexmetrics/reports"

schedule:
  weekly: "on"
  week_boundary: monday
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Flex.Token != "abc123" {
		t.Errorf("expected token abc123, got %s", cfg.Flex.Token)
	}
	if cfg.Flex.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %s", cfg.Flex.PollInterval)
	}
	if cfg.Storage.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Storage.Type)
	}
	if cfg.Schedule.Weekly != "on" {
		t.Errorf("expected weekly on, got %s", cfg.Schedule.Weekly)
	}

	// Defaults survive for sections the file omits
	if cfg.Schedule.Monthly != "auto" {
		t.Errorf("expected monthly auto, got %s", cfg.Schedule.Monthly)
	}
	if !cfg.Report.ObfuscateAccounts {
		t.Error("expected obfuscation enabled by default")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_FLEX_TOKEN", "secret-token")

	content := []byte(`
flex:
  token: "${TEST_FLEX_TOKEN}"
  query_id: "111"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Flex.Token != "secret-token" {
		t.Errorf("expected expanded token, got %s", cfg.Flex.Token)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Flex.PollInterval != 2*time.Second {
		t.Errorf("expected default poll interval 2s, got %s", cfg.Flex.PollInterval)
	}
	if cfg.Report.BaseCurrency != "USD" {
		t.Errorf("expected default base currency USD, got %s", cfg.Report.BaseCurrency)
	}
	if cfg.Schedule.WeekBoundary != "friday" {
		t.Errorf("expected default week boundary friday, got %s", cfg.Schedule.WeekBoundary)
	}
	if cfg.Storage.Type != "localfs" {
		t.Errorf("expected default storage localfs, got %s", cfg.Storage.Type)
	}
}

func validConfig() *Config {
	cfg := Defaults()
	cfg.Flex.Token = "tok"
	cfg.Flex.QueryID = "123"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Flex.Token = "" },
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "missing query id",
			mutate:  func(c *Config) { c.Flex.QueryID = "" },
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Flex.PollInterval = 0 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "min above max cost basis",
			mutate: func(c *Config) {
				c.Filter.MinCostBasis = 1000
				c.Filter.MaxCostBasis = 100
			},
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "bad schedule mode",
			mutate:  func(c *Config) { c.Schedule.Weekly = "sometimes" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "bad week boundary",
			mutate:  func(c *Config) { c.Schedule.WeekBoundary = "payday" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "ftp" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Storage.Type = "s3"
				c.Storage.S3.Bucket = ""
			},
			wantErr: core.ErrConfigMissing,
		},
		{
			name: "rule with bad operator",
			mutate: func(c *Config) {
				c.Advisor.Rules = append(c.Advisor.Rules,
					advisor.Rule{Name: "bad", Metric: "win_rate", Op: "~", Threshold: 0.5})
			},
			wantErr: core.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_AggregateSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Weekly = "on"
	cfg.Schedule.Monthly = "off"
	cfg.Schedule.WeekBoundary = "Monday"

	s := cfg.AggregateSchedule()
	if s.WeekBoundary != time.Monday {
		t.Errorf("expected Monday, got %s", s.WeekBoundary)
	}
	if s.Weekly != aggregate.ModeOn || s.Monthly != aggregate.ModeOff {
		t.Errorf("unexpected modes: weekly=%s monthly=%s", s.Weekly, s.Monthly)
	}
}

func TestConfig_CostBasisFilter(t *testing.T) {
	cfg := validConfig()
	if cfg.CostBasisFilter().Enabled() {
		t.Error("expected filter disabled with no bounds")
	}

	cfg.Filter.MinCostBasis = 100
	cfg.Filter.MaxCostBasis = 50000
	f := cfg.CostBasisFilter()
	if !f.Enabled() {
		t.Fatal("expected filter enabled")
	}
	if *f.Min != 100 || *f.Max != 50000 {
		t.Errorf("unexpected bounds: min=%v max=%v", *f.Min, *f.Max)
	}
}
