package backtest

import (
	"math"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
)

// Stats is the metric set reported for one backtest run. Percentages are
// expressed as percent, not fractions.
type Stats struct {
	ReturnPct           float64 `json:"return_pct"`
	BuyHoldReturnPct    float64 `json:"buy_hold_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	VolatilityPct       float64 `json:"volatility_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	CalmarRatio         float64 `json:"calmar_ratio"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	Trades              int     `json:"total_trades"`
	WinRatePct          float64 `json:"win_rate_pct"`
	AvgTradePct         float64 `json:"avg_trade_pct"`
	ProfitFactor        float64 `json:"profit_factor"`
}

const yearHours = 365.25 * 24

func computeStats(series *ohlcv.Series, cfg Config, trades []Trade, curve []EquityPoint) Stats {
	var stats Stats
	if len(curve) == 0 {
		return stats
	}

	final := curve[len(curve)-1].Equity
	stats.ReturnPct = (final - cfg.Cash) / cfg.Cash * 100
	stats.BuyHoldReturnPct = buyHoldReturn(series)

	years := curve[len(curve)-1].Time.Sub(curve[0].Time).Hours() / yearHours
	if years > 0 && final > 0 {
		stats.AnnualizedReturnPct = (math.Pow(final/cfg.Cash, 1/years) - 1) * 100
	}

	returns := barReturns(curve)
	if years > 0 && len(returns) > 0 {
		barsPerYear := float64(len(returns)) / years
		stats.VolatilityPct = stddev(returns) * math.Sqrt(barsPerYear) * 100

		if stats.VolatilityPct > 0 {
			stats.SharpeRatio = stats.AnnualizedReturnPct / stats.VolatilityPct
		}

		var downside []float64
		for _, r := range returns {
			if r < 0 {
				downside = append(downside, r)
			}
		}
		downsideDev := stddev(downside) * math.Sqrt(barsPerYear) * 100
		if downsideDev > 0 {
			stats.SortinoRatio = stats.AnnualizedReturnPct / downsideDev
		}
	}

	stats.MaxDrawdownPct = maxDrawdown(curve)
	if stats.MaxDrawdownPct > 0 {
		stats.CalmarRatio = stats.AnnualizedReturnPct / stats.MaxDrawdownPct
	}

	stats.Trades = len(trades)
	if len(trades) > 0 {
		var wins int
		var sumReturn, grossProfit, grossLoss float64
		for _, t := range trades {
			sumReturn += t.ReturnPct
			if t.PnL > 0 {
				wins++
				grossProfit += t.PnL
			} else {
				grossLoss += -t.PnL
			}
		}
		stats.WinRatePct = float64(wins) / float64(len(trades)) * 100
		stats.AvgTradePct = sumReturn / float64(len(trades))
		if grossLoss > 0 {
			stats.ProfitFactor = grossProfit / grossLoss
		} else if grossProfit > 0 {
			stats.ProfitFactor = math.Inf(1)
		}
	}

	return stats
}

// buyHoldReturn is the return of buying at the first valid close and holding
// to the last one.
func buyHoldReturn(series *ohlcv.Series) float64 {
	var first, last float64 = math.NaN(), math.NaN()
	for _, c := range series.Close {
		if math.IsNaN(c) {
			continue
		}
		if math.IsNaN(first) {
			first = c
		}
		last = c
	}
	if math.IsNaN(first) || first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

func barReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// maxDrawdown returns the largest peak-to-trough equity decline in percent
func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	var maxDD float64
	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
