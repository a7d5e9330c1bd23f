package optimize

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ll101/project-algo-trading/internal/backtest"
	"github.com/ll101/project-algo-trading/internal/ohlcv"
	"github.com/ll101/project-algo-trading/internal/strategy"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

// Objective scores one backtest; higher is better
type Objective func(backtest.Stats) float64

// DefaultObjective maximizes total return
func DefaultObjective(s backtest.Stats) float64 { return s.ReturnPct }

// ObjectiveByName resolves a metric name to an objective function
func ObjectiveByName(name string) (Objective, error) {
	switch name {
	case "", "return_pct":
		return DefaultObjective, nil
	case "sharpe_ratio":
		return func(s backtest.Stats) float64 { return s.SharpeRatio }, nil
	case "sortino_ratio":
		return func(s backtest.Stats) float64 { return s.SortinoRatio }, nil
	case "calmar_ratio":
		return func(s backtest.Stats) float64 { return s.CalmarRatio }, nil
	case "win_rate_pct":
		return func(s backtest.Stats) float64 { return s.WinRatePct }, nil
	case "profit_factor":
		return func(s backtest.Stats) float64 { return s.ProfitFactor }, nil
	default:
		return nil, fmt.Errorf("unknown objective %q", name)
	}
}

// Trial is one evaluated parameter assignment
type Trial struct {
	Params strategy.Params `json:"params"`
	Stats  backtest.Stats  `json:"stats"`
	Score  float64         `json:"score"`
}

// Outcome is the result of one search
type Outcome struct {
	Best      strategy.Params `json:"best_params"`
	BestStats backtest.Stats  `json:"best_stats"`
	BestScore float64         `json:"best_score"`
	Evaluated int             `json:"evaluated"`
	Skipped   int             `json:"skipped"`
	Trials    []Trial         `json:"trials"`
}

// Optimizer searches a parameter space against a single loaded series
type Optimizer struct {
	engine *backtest.Engine
	logger *logger.Logger
}

// NewOptimizer creates an optimizer around a backtest engine
func NewOptimizer(engine *backtest.Engine, log *logger.Logger) *Optimizer {
	return &Optimizer{
		engine: engine,
		logger: log.WithField("component", "optimize"),
	}
}

// GridSearch evaluates the full cartesian product of the space. Assignments
// that fail parameter validation (a grid easily produces a short window above
// a long one) are skipped, not fatal.
func (o *Optimizer) GridSearch(ctx context.Context, series *ohlcv.Series, space Space, cfg backtest.Config, objective Objective) (*Outcome, error) {
	if err := space.validate(); err != nil {
		return nil, err
	}
	combos := space.combinations()
	o.logger.WithFields(map[string]interface{}{
		"symbol":       series.Symbol,
		"strategy":     string(space.Kind),
		"combinations": len(combos),
	}).Info("Starting grid search")

	return o.search(ctx, series, space, combos, cfg, objective)
}

// RandomSearch draws n assignments from the space using a seeded source, so
// a run is reproducible.
func (o *Optimizer) RandomSearch(ctx context.Context, series *ohlcv.Series, space Space, cfg backtest.Config, objective Objective, n int, seed int64) (*Outcome, error) {
	if err := space.validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("iteration count must be positive, got %d", n)
	}

	rng := rand.New(rand.NewSource(seed))
	combos := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		combos = append(combos, space.sample(rng))
	}
	o.logger.WithFields(map[string]interface{}{
		"symbol":   series.Symbol,
		"strategy": string(space.Kind),
		"trials":   n,
		"seed":     seed,
	}).Info("Starting random search")

	return o.search(ctx, series, space, combos, cfg, objective)
}

func (o *Optimizer) search(ctx context.Context, series *ohlcv.Series, space Space, combos []map[string]interface{}, cfg backtest.Config, objective Objective) (*Outcome, error) {
	if objective == nil {
		objective = DefaultObjective
	}

	outcome := &Outcome{}
	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params, err := space.bind(combo)
		if err != nil {
			return nil, fmt.Errorf("bad parameter space: %w", err)
		}
		if err := params.Validate(); err != nil {
			outcome.Skipped++
			continue
		}

		result, err := o.engine.Run(ctx, series, params, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			o.logger.WithError(err).WithField("symbol", series.Symbol).Warn("Trial failed")
			outcome.Skipped++
			continue
		}

		score := objective(result.Stats)
		trial := Trial{Params: params, Stats: result.Stats, Score: score}
		outcome.Trials = append(outcome.Trials, trial)
		outcome.Evaluated++

		if outcome.Best == nil || score > outcome.BestScore {
			outcome.Best = params
			outcome.BestStats = result.Stats
			outcome.BestScore = score
		}
	}

	if outcome.Best == nil {
		return nil, fmt.Errorf("no valid parameter combination for %s", series.Symbol)
	}

	o.logger.WithFields(map[string]interface{}{
		"symbol":     series.Symbol,
		"evaluated":  outcome.Evaluated,
		"skipped":    outcome.Skipped,
		"best_score": outcome.BestScore,
	}).Info("Search completed")

	return outcome, nil
}

// SymbolOutcome pairs one symbol's search with its error, if any
type SymbolOutcome struct {
	Symbol  string   `json:"symbol"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
}

// GridSearchMany runs a grid search per series. One symbol failing does not
// stop the rest; errors travel in the per-symbol outcome.
func (o *Optimizer) GridSearchMany(ctx context.Context, series []*ohlcv.Series, space Space, cfg backtest.Config, objective Objective) []SymbolOutcome {
	out := make([]SymbolOutcome, 0, len(series))
	for _, s := range series {
		outcome, err := o.GridSearch(ctx, s, space, cfg, objective)
		out = append(out, SymbolOutcome{Symbol: s.Symbol, Outcome: outcome, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return out
}
