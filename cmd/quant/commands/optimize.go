package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/backtest"
	"github.com/ll101/project-algo-trading/internal/ohlcv"
	"github.com/ll101/project-algo-trading/internal/optimize"
	"github.com/ll101/project-algo-trading/internal/strategy"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Strategy parameter optimization",
	Long: `Searches a strategy parameter space over stored historical bars.

Parameter spaces are given as repeated --param flags; each value list is
comma separated. Numbers are parsed as ints first, then floats, then
kept as strings.

Subcommands:
  grid    - exhaustive cartesian search
  random  - seeded random sampling

Example:
  go run ./cmd/quant optimize grid --symbol AAPL --strategy ma_crossover \
      --from 2024-01-01 --param short_window=5,10,20 --param long_window=50,100
  go run ./cmd/quant optimize random --symbol AAPL --strategy bollinger \
      --from 2024-01-01 --param period=10,20,30 --param dev_factor=1.5,2,2.5 \
      --trials 50 --seed 42`,
}

var (
	optimizeGridCmd = &cobra.Command{
		Use:   "grid",
		Short: "Exhaustive grid search",
		RunE:  runOptimizeGrid,
	}

	optimizeRandomCmd = &cobra.Command{
		Use:   "random",
		Short: "Seeded random search",
		RunE:  runOptimizeRandom,
	}

	// Flags
	optimizeSymbol     string
	optimizeStrategy   string
	optimizeFrom       string
	optimizeTo         string
	optimizeResample   time.Duration
	optimizeCash       float64
	optimizeCommission float64
	optimizeStopLoss   float64
	optimizeTakeProfit float64
	optimizeParams     []string
	optimizeObjective  string
	optimizeTrials     int
	optimizeSeed       int64
)

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.AddCommand(optimizeGridCmd)
	optimizeCmd.AddCommand(optimizeRandomCmd)

	defaults := backtest.DefaultConfig()
	for _, cmd := range []*cobra.Command{optimizeGridCmd, optimizeRandomCmd} {
		f := cmd.Flags()
		f.StringVar(&optimizeSymbol, "symbol", "", "symbol to optimize on (required)")
		f.StringVar(&optimizeStrategy, "strategy", "ma_crossover", "strategy kind")
		f.StringVar(&optimizeFrom, "from", "", "start date (YYYY-MM-DD, required)")
		f.StringVar(&optimizeTo, "to", "", "end date (YYYY-MM-DD, default: now)")
		f.DurationVar(&optimizeResample, "resample", 0, "resample interval (default: raw bars)")
		f.Float64Var(&optimizeCash, "cash", defaults.Cash, "initial cash")
		f.Float64Var(&optimizeCommission, "commission", defaults.Commission, "commission per side")
		f.Float64Var(&optimizeStopLoss, "stop-loss", defaults.StopLossPct, "stop loss fraction (0 disables)")
		f.Float64Var(&optimizeTakeProfit, "take-profit", defaults.TakeProfitPct, "take profit fraction (0 disables)")
		f.StringArrayVar(&optimizeParams, "param", nil, "parameter space, e.g. --param short_window=5,10,20")
		f.StringVar(&optimizeObjective, "objective", "", "objective metric (default: return_pct)")

		cmd.MarkFlagRequired("symbol")
		cmd.MarkFlagRequired("from")
		cmd.MarkFlagRequired("param")
	}

	optimizeRandomCmd.Flags().IntVar(&optimizeTrials, "trials", 50, "number of random samples")
	optimizeRandomCmd.Flags().Int64Var(&optimizeSeed, "seed", time.Now().UnixNano(), "random seed")
}

// parseSpace turns repeated --param name=v1,v2 flags into a search space
func parseSpace(kind string, params []string) (optimize.Space, error) {
	space := optimize.Space{
		Kind:   strategy.Kind(kind),
		Values: make(map[string][]interface{}),
	}

	for _, p := range params {
		name, list, found := strings.Cut(p, "=")
		if !found || name == "" || list == "" {
			return space, fmt.Errorf("invalid --param %q (want name=v1,v2,...)", p)
		}

		var values []interface{}
		for _, raw := range strings.Split(list, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if i, err := strconv.Atoi(raw); err == nil {
				values = append(values, i)
			} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
				values = append(values, f)
			} else {
				values = append(values, raw)
			}
		}
		if len(values) == 0 {
			return space, fmt.Errorf("empty value list for parameter %q", name)
		}
		space.Values[name] = values
	}

	return space, nil
}

func runOptimizeGrid(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Grid Search ===")
	return runOptimize(cmd, func(ctx setupCtx) (*optimize.Outcome, error) {
		return ctx.optimizer.GridSearch(ctx.ctx, ctx.series, ctx.space, ctx.cfg, ctx.objective)
	})
}

func runOptimizeRandom(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Random Search ===")
	fmt.Printf("🎲 Trials: %d  Seed: %d\n", optimizeTrials, optimizeSeed)
	return runOptimize(cmd, func(ctx setupCtx) (*optimize.Outcome, error) {
		return ctx.optimizer.RandomSearch(ctx.ctx, ctx.series, ctx.space, ctx.cfg, ctx.objective, optimizeTrials, optimizeSeed)
	})
}

// setupCtx bundles the pieces a search needs after wiring
type setupCtx struct {
	ctx       context.Context
	optimizer *optimize.Optimizer
	series    *ohlcv.Series
	space     optimize.Space
	cfg       backtest.Config
	objective optimize.Objective
}

func runOptimize(cmd *cobra.Command, search func(setupCtx) (*optimize.Outcome, error)) error {
	start, end, err := parseDateRange(optimizeFrom, optimizeTo)
	if err != nil {
		return err
	}

	space, err := parseSpace(optimizeStrategy, optimizeParams)
	if err != nil {
		return err
	}

	objective, err := optimize.ObjectiveByName(optimizeObjective)
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	if err := a.connectData(); err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	loader := a.newLoader()

	fmt.Printf("\n📅 Period:   %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("🏷️  Symbol:   %s\n", optimizeSymbol)
	fmt.Printf("🧠 Strategy: %s\n\n", optimizeStrategy)

	series, report, err := loader.Load(ctx, optimizeSymbol, start, end, optimizeResample)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	for _, warning := range report.Warnings {
		PrintWarning(warning)
	}

	cfg := backtest.Config{
		Cash:          optimizeCash,
		Commission:    optimizeCommission,
		StopLossPct:   optimizeStopLoss,
		TakeProfitPct: optimizeTakeProfit,
	}

	optimizer := optimize.NewOptimizer(backtest.NewEngine(a.log), a.log)

	began := time.Now()
	outcome, err := search(setupCtx{
		ctx:       ctx,
		optimizer: optimizer,
		series:    series,
		space:     space,
		cfg:       cfg,
		objective: objective,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printOutcome(outcome, time.Since(began))
	return nil
}

func printOutcome(outcome *optimize.Outcome, elapsed time.Duration) {
	fmt.Println("\n✅ Search Completed")
	PrintDoubleSeparator()
	fmt.Println()

	best, _ := json.Marshal(outcome.Best)
	fmt.Println("🏆 Best Parameters")
	fmt.Printf("%s\n\n", best)

	fmt.Printf("Score:       %.4f\n", outcome.BestScore)
	fmt.Printf("Return:      %+.2f%%\n", outcome.BestStats.ReturnPct)
	fmt.Printf("Sharpe:      %.2f\n", outcome.BestStats.SharpeRatio)
	fmt.Printf("Max DD:      %.2f%%\n", outcome.BestStats.MaxDrawdownPct)
	fmt.Printf("Trades:      %d\n", outcome.BestStats.Trades)
	fmt.Println()
	fmt.Printf("Evaluated %d combinations (%d skipped) in %.1fs\n",
		outcome.Evaluated, outcome.Skipped, elapsed.Seconds())
	fmt.Println()
}
