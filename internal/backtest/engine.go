package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
	"github.com/ll101/project-algo-trading/internal/strategy"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Config holds backtest configuration
type Config struct {
	Cash          float64 `json:"cash"`
	Commission    float64 `json:"commission"`
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`
}

// DefaultConfig mirrors the usual research setup: 100k starting cash, 0.2%
// commission per side, 2% stop loss and no take profit.
func DefaultConfig() Config {
	return Config{Cash: 100000, Commission: 0.002, StopLossPct: 0.02}
}

func (c Config) validate() error {
	if c.Cash <= 0 {
		return fmt.Errorf("cash must be positive, got %g", c.Cash)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("commission must be in [0, 1), got %g", c.Commission)
	}
	if c.StopLossPct < 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("stop loss pct must be in [0, 1), got %g", c.StopLossPct)
	}
	if c.TakeProfitPct < 0 {
		return fmt.Errorf("take profit pct must not be negative, got %g", c.TakeProfitPct)
	}
	return nil
}

// EquityPoint is one mark-to-market sample of the account
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
	Return float64   `json:"return"`
}

// Result holds the outcome of one backtest run
type Result struct {
	Symbol      string        `json:"symbol"`
	Strategy    strategy.Kind `json:"strategy"`
	Config      Config        `json:"config"`
	Stats       Stats         `json:"stats"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
}

// Engine runs a strategy bar by bar over a price series
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a backtest engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log.WithField("component", "backtest")}
}

// Run executes one backtest. The strategy sees the full series during Init
// but the simulator only ever acts on values at or before the current bar.
func (e *Engine) Run(ctx context.Context, series *ohlcv.Series, params strategy.Params, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if series.Empty() {
		return nil, fmt.Errorf("no data to backtest for %s", series.Symbol)
	}
	if err := series.Check(); err != nil {
		return nil, err
	}

	strat, err := strategy.New(params)
	if err != nil {
		return nil, err
	}
	if err := strat.Init(series); err != nil {
		return nil, fmt.Errorf("strategy init failed: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":   series.Symbol,
		"strategy": string(params.Kind()),
		"bars":     series.Len(),
	}).Info("Starting backtest")

	started := time.Now()
	sim := newSimulator(cfg)

	for i := 0; i < series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim.step(series, strat, i)
	}
	sim.finish(series)

	result := &Result{
		Symbol:      series.Symbol,
		Strategy:    params.Kind(),
		Config:      cfg,
		Trades:      sim.trades,
		EquityCurve: sim.equityCurve,
	}
	result.Stats = computeStats(series, cfg, sim.trades, sim.equityCurve)

	e.logger.WithFields(map[string]interface{}{
		"symbol":       series.Symbol,
		"strategy":     string(params.Kind()),
		"elapsed_ms":   time.Since(started).Milliseconds(),
		"return_pct":   result.Stats.ReturnPct,
		"trades":       result.Stats.Trades,
		"max_drawdown": result.Stats.MaxDrawdownPct,
	}).Info("Backtest completed")

	return result, nil
}
