package results

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ll101/project-algo-trading/internal/backtest"
)

// MetricValue extracts a named metric from a stats block. Names match the
// JSON field names of backtest.Stats.
func MetricValue(stats backtest.Stats, metric string) (float64, error) {
	switch metric {
	case "", "return_pct":
		return stats.ReturnPct, nil
	case "buy_hold_return_pct":
		return stats.BuyHoldReturnPct, nil
	case "annualized_return_pct":
		return stats.AnnualizedReturnPct, nil
	case "sharpe_ratio":
		return stats.SharpeRatio, nil
	case "sortino_ratio":
		return stats.SortinoRatio, nil
	case "calmar_ratio":
		return stats.CalmarRatio, nil
	case "max_drawdown_pct":
		return stats.MaxDrawdownPct, nil
	case "win_rate_pct":
		return stats.WinRatePct, nil
	case "avg_trade_pct":
		return stats.AvgTradePct, nil
	case "profit_factor":
		return stats.ProfitFactor, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
}

// Comparator ranks and aligns a set of loaded records
type Comparator struct {
	records []Record
}

// NewComparator wraps records for comparison
func NewComparator(records []Record) *Comparator {
	return &Comparator{records: records}
}

// RankByMetric returns the records sorted by a metric, best first
func (c *Comparator) RankByMetric(metric string) ([]Record, error) {
	values := make([]float64, len(c.records))
	for i, r := range c.records {
		v, err := MetricValue(r.Metrics, metric)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	idx := make([]int, len(c.records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})

	out := make([]Record, len(c.records))
	for i, j := range idx {
		out[i] = c.records[j]
	}
	return out, nil
}

// Best returns the record with the highest value of a metric
func (c *Comparator) Best(metric string) (*Record, error) {
	if len(c.records) == 0 {
		return nil, fmt.Errorf("no results to compare")
	}
	ranked, err := c.RankByMetric(metric)
	if err != nil {
		return nil, err
	}
	return &ranked[0], nil
}

// AlignedCurves merges the equity curves of all records onto the union of
// their timestamps. Curves are keyed "{symbol}_{strategy}"; where a curve has
// no sample at a shared timestamp the value is NaN.
func (c *Comparator) AlignedCurves() ([]time.Time, map[string][]float64) {
	timeSet := make(map[time.Time]struct{})
	curves := make(map[string]map[time.Time]float64)

	for _, r := range c.records {
		if len(r.EquityCurve) == 0 {
			continue
		}
		key := fmt.Sprintf("%s_%s", r.Symbol, r.Strategy)
		byTime := make(map[time.Time]float64, len(r.EquityCurve))
		for _, p := range r.EquityCurve {
			byTime[p.Time] = p.Equity
			timeSet[p.Time] = struct{}{}
		}
		curves[key] = byTime
	}

	times := make([]time.Time, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	aligned := make(map[string][]float64, len(curves))
	for key, byTime := range curves {
		col := make([]float64, len(times))
		for i, t := range times {
			if v, ok := byTime[t]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		aligned[key] = col
	}
	return times, aligned
}
