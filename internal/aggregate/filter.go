package aggregate

import (
	"math"

	"github.com/tradekit/flexmetrics/internal/core"
)

// CostBasisFilter bounds the absolute cost basis of records admitted to
// aggregation. Nil bounds are open-ended; both nil means no filtering.
type CostBasisFilter struct {
	Min *float64
	Max *float64
}

// Enabled reports whether any bound is set.
func (f CostBasisFilter) Enabled() bool {
	return f.Min != nil || f.Max != nil
}

// Apply returns the records whose absolute cost basis falls inside the
// inclusive bounds, plus the count it excluded. Input order is preserved.
func (f CostBasisFilter) Apply(records []core.TradeRecord) (kept []core.TradeRecord, dropped int) {
	if !f.Enabled() {
		return records, 0
	}
	for _, r := range records {
		cost := math.Abs(r.CostBasis)
		if f.Min != nil && cost < *f.Min {
			dropped++
			continue
		}
		if f.Max != nil && cost > *f.Max {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
