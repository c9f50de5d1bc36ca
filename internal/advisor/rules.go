package advisor

import (
	"strconv"
	"strings"
)

// Rule is one threshold advisory: it fires when the named metric compares
// true against the threshold. Thresholds live in configuration, not code, so
// tuning a rule never touches the evaluation loop.
type Rule struct {
	Name      string  `mapstructure:"name"`
	Metric    string  `mapstructure:"metric"`
	Op        string  `mapstructure:"op"` // >, <, >=, <=, ==, !=
	Threshold float64 `mapstructure:"threshold"`
	Message   string  `mapstructure:"message"`
}

// Matches evaluates the rule against a metric map. A metric that is absent
// never fires.
func (r Rule) Matches(metrics map[string]float64) bool {
	value, ok := metrics[r.Metric]
	if !ok {
		return false
	}

	switch r.Op {
	case ">":
		return value > r.Threshold
	case "<":
		return value < r.Threshold
	case ">=":
		return value >= r.Threshold
	case "<=":
		return value <= r.Threshold
	case "==":
		return value == r.Threshold
	case "!=":
		return value != r.Threshold
	default:
		return false
	}
}

// Render substitutes {value} and {threshold} placeholders in the message
// template with the observed metric value and the configured threshold.
func (r Rule) Render(metrics map[string]float64) string {
	msg := r.Message
	msg = strings.ReplaceAll(msg, "{value}", formatMetric(metrics[r.Metric]))
	msg = strings.ReplaceAll(msg, "{threshold}", formatMetric(r.Threshold))
	return msg
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// DefaultRules is the built-in advisory table, evaluated in order: win-rate
// rules, then drawdown, then concentration, then consistency.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "low_win_rate",
			Metric:    "win_rate",
			Op:        "<",
			Threshold: 0.4,
			Message:   "Win rate is {value}, below {threshold}. Review entry criteria before sizing up.",
		},
		{
			Name:      "strong_win_rate",
			Metric:    "win_rate",
			Op:        ">=",
			Threshold: 0.7,
			Message:   "Win rate is {value}. Current setup selection is working; avoid style drift.",
		},
		{
			Name:      "deep_drawdown",
			Metric:    "drawdown_ratio",
			Op:        ">",
			Threshold: 0.5,
			Message:   "Max drawdown consumed {value} of gross wins. Consider tighter daily loss limits.",
		},
		{
			Name:      "symbol_concentration",
			Metric:    "top_symbol_share",
			Op:        ">",
			Threshold: 0.5,
			Message:   "{value} of trades are in a single symbol. Concentration risk is elevated.",
		},
		{
			Name:      "low_consistency",
			Metric:    "consistency",
			Op:        "<",
			Threshold: 0.5,
			Message:   "Only {value} of active days were profitable. Results depend on a few outsized days.",
		},
	}
}
