package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tradekit/flexmetrics/internal/advisor"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/core"
)

type Config struct {
	Flex     FlexConfig     `mapstructure:"flex"`
	Report   ReportConfig   `mapstructure:"report"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// FlexConfig holds Flex Web Service credentials and polling behavior.
// Token and query_id support ${ENV_VAR} expansion so credentials stay
// out of the config file.
type FlexConfig struct {
	Token        string        `mapstructure:"token"`
	QueryID      string        `mapstructure:"query_id"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// ReportConfig controls document rendering.
type ReportConfig struct {
	ObfuscateAccounts bool   `mapstructure:"obfuscate_accounts"`
	BaseCurrency      string `mapstructure:"base_currency"`
	Narrative         bool   `mapstructure:"narrative"`
}

// FilterConfig bounds the cost basis of trades admitted to aggregation.
// Zero values mean the bound is unset.
type FilterConfig struct {
	MinCostBasis float64 `mapstructure:"min_cost_basis"`
	MaxCostBasis float64 `mapstructure:"max_cost_basis"`
}

// ScheduleConfig controls when weekly and monthly summaries are generated.
type ScheduleConfig struct {
	Weekly       string `mapstructure:"weekly"`        // "auto", "on", "off"
	Monthly      string `mapstructure:"monthly"`       // "auto", "on", "off"
	WeekBoundary string `mapstructure:"week_boundary"` // weekday name, e.g. "friday"
	Cron         string `mapstructure:"cron"`          // watch-mode cron expression
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// AdvisorConfig overrides the built-in recommendation rules when non-empty.
type AdvisorConfig struct {
	Rules []advisor.Rule `mapstructure:"rules"`
}

// MetricsConfig holds the watch-mode metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Flex: FlexConfig{
			PollInterval: 2 * time.Second,
			MaxAttempts:  6,
		},
		Report: ReportConfig{
			ObfuscateAccounts: true,
			BaseCurrency:      "USD",
			Narrative:         true,
		},
		Schedule: ScheduleConfig{
			Weekly:       "auto",
			Monthly:      "auto",
			WeekBoundary: "friday",
			Cron:         "0 22 * * 1-5",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "reports",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func validMode(s string) bool {
	switch aggregate.GenerationMode(s) {
	case aggregate.ModeAuto, aggregate.ModeOn, aggregate.ModeOff:
		return true
	}
	return false
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Flex.Token == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("flex token required"))
	}
	if c.Flex.QueryID == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("flex query_id required"))
	}
	if c.Flex.PollInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("poll_interval must be positive, got %s", c.Flex.PollInterval))
	}
	if c.Flex.MaxAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_attempts must be at least 1, got %d", c.Flex.MaxAttempts))
	}

	if c.Filter.MinCostBasis < 0 || c.Filter.MaxCostBasis < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cost basis bounds cannot be negative"))
	}
	if c.Filter.MinCostBasis > 0 && c.Filter.MaxCostBasis > 0 &&
		c.Filter.MinCostBasis > c.Filter.MaxCostBasis {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_cost_basis %f exceeds max_cost_basis %f",
				c.Filter.MinCostBasis, c.Filter.MaxCostBasis))
	}

	if !validMode(c.Schedule.Weekly) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("schedule weekly must be auto, on or off, got %q", c.Schedule.Weekly))
	}
	if !validMode(c.Schedule.Monthly) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("schedule monthly must be auto, on or off, got %q", c.Schedule.Monthly))
	}
	if _, ok := weekdays[strings.ToLower(c.Schedule.WeekBoundary)]; !ok {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown week_boundary %q", c.Schedule.WeekBoundary))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage type must be localfs or s3, got %q", c.Storage.Type))
	}

	for _, r := range c.Advisor.Rules {
		switch r.Op {
		case ">", "<", ">=", "<=", "==", "!=":
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("rule %q: unknown operator %q", r.Name, r.Op))
		}
	}

	return nil
}

// AggregateSchedule converts the schedule section into the form the
// aggregation layer consumes. Call Validate first.
func (c *Config) AggregateSchedule() aggregate.Schedule {
	return aggregate.Schedule{
		WeekBoundary: weekdays[strings.ToLower(c.Schedule.WeekBoundary)],
		Weekly:       aggregate.GenerationMode(c.Schedule.Weekly),
		Monthly:      aggregate.GenerationMode(c.Schedule.Monthly),
	}
}

// CostBasisFilter converts the filter section into the form the
// aggregation layer consumes.
func (c *Config) CostBasisFilter() aggregate.CostBasisFilter {
	var f aggregate.CostBasisFilter
	if c.Filter.MinCostBasis > 0 {
		min := c.Filter.MinCostBasis
		f.Min = &min
	}
	if c.Filter.MaxCostBasis > 0 {
		max := c.Filter.MaxCostBasis
		f.Max = &max
	}
	return f
}
