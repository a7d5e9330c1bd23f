package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/backtest"
	"github.com/ll101/project-algo-trading/internal/results"
	"github.com/ll101/project-algo-trading/internal/strategy"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Single-strategy backtesting",
	Long: `Runs one strategy over stored historical bars and reports the
usual research metrics (return, Sharpe, Sortino, max drawdown, win rate).

Strategies:
  ma_crossover    Moving average crossover (--short-window, --long-window, --ma-type)
  bollinger       Bollinger band reversion (--period, --dev-factor)
  macd            MACD crossover (--fast-period, --slow-period, --signal-period)
  vwap_reversion  VWAP reversion (--deviation-pct)

Example:
  go run ./cmd/quant backtest run --symbol AAPL --strategy ma_crossover --from 2024-01-01
  go run ./cmd/quant backtest run --symbol MSFT --strategy bollinger --period 20 --dev-factor 2`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		RunE:  runBacktest,
	}

	// Flags
	backtestSymbol     string
	backtestStrategy   string
	backtestFrom       string
	backtestTo         string
	backtestResample   time.Duration
	backtestCash       float64
	backtestCommission float64
	backtestStopLoss   float64
	backtestTakeProfit float64
	backtestExperiment string
	backtestNoSave     bool

	// Strategy parameter flags
	flagShortWindow  int
	flagLongWindow   int
	flagMAType       string
	flagPeriod       int
	flagDevFactor    float64
	flagFastPeriod   int
	flagSlowPeriod   int
	flagSignalPeriod int
	flagDeviationPct float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	f := backtestRunCmd.Flags()
	f.StringVar(&backtestSymbol, "symbol", "", "symbol to backtest (required)")
	f.StringVar(&backtestStrategy, "strategy", "ma_crossover", "strategy kind")
	f.StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	f.StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: now)")
	f.DurationVar(&backtestResample, "resample", 0, "resample interval (e.g. 1h, 24h; default: raw bars)")

	defaults := backtest.DefaultConfig()
	f.Float64Var(&backtestCash, "cash", defaults.Cash, "initial cash")
	f.Float64Var(&backtestCommission, "commission", defaults.Commission, "commission per side")
	f.Float64Var(&backtestStopLoss, "stop-loss", defaults.StopLossPct, "stop loss fraction (0 disables)")
	f.Float64Var(&backtestTakeProfit, "take-profit", defaults.TakeProfitPct, "take profit fraction (0 disables)")
	f.StringVar(&backtestExperiment, "experiment", "", "experiment subdirectory for saved results")
	f.BoolVar(&backtestNoSave, "no-save", false, "do not persist the result")

	registerStrategyFlags(backtestRunCmd)

	backtestRunCmd.MarkFlagRequired("symbol")
	backtestRunCmd.MarkFlagRequired("from")
}

// registerStrategyFlags adds the per-strategy tuning flags, shared with the
// backtest and optimize commands.
func registerStrategyFlags(cmd *cobra.Command) {
	ma := strategy.DefaultMACrossoverParams()
	bb := strategy.DefaultBollingerParams()
	macd := strategy.DefaultMACDParams()
	vwap := strategy.DefaultVWAPReversionParams()

	f := cmd.Flags()
	f.IntVar(&flagShortWindow, "short-window", ma.ShortWindow, "ma_crossover: short window")
	f.IntVar(&flagLongWindow, "long-window", ma.LongWindow, "ma_crossover: long window")
	f.StringVar(&flagMAType, "ma-type", string(ma.MAType), "ma_crossover: sma or ema")
	f.IntVar(&flagPeriod, "period", bb.Period, "bollinger: lookback period")
	f.Float64Var(&flagDevFactor, "dev-factor", bb.DevFactor, "bollinger: band width in std devs")
	f.IntVar(&flagFastPeriod, "fast-period", macd.FastPeriod, "macd: fast EMA period")
	f.IntVar(&flagSlowPeriod, "slow-period", macd.SlowPeriod, "macd: slow EMA period")
	f.IntVar(&flagSignalPeriod, "signal-period", macd.SignalPeriod, "macd: signal EMA period")
	f.Float64Var(&flagDeviationPct, "deviation-pct", vwap.DeviationPct, "vwap_reversion: entry deviation fraction")
}

// strategyParamsFromFlags builds typed parameters for the requested kind
func strategyParamsFromFlags(kind string) (strategy.Params, error) {
	switch strategy.Kind(kind) {
	case strategy.KindMACrossover:
		return strategy.MACrossoverParams{
			ShortWindow: flagShortWindow,
			LongWindow:  flagLongWindow,
			MAType:      strategy.MAType(flagMAType),
		}, nil
	case strategy.KindBollinger:
		return strategy.BollingerParams{
			Period:    flagPeriod,
			DevFactor: flagDevFactor,
		}, nil
	case strategy.KindMACD:
		return strategy.MACDParams{
			FastPeriod:   flagFastPeriod,
			SlowPeriod:   flagSlowPeriod,
			SignalPeriod: flagSignalPeriod,
		}, nil
	case strategy.KindVWAPReversion:
		return strategy.VWAPReversionParams{
			DeviationPct: flagDeviationPct,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Backtest Engine ===")

	start, end, err := parseDateRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	params, err := strategyParamsFromFlags(backtestStrategy)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid strategy parameters: %w", err)
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
	fmt.Printf("🏷️  Symbol:   %s\n", backtestSymbol)
	fmt.Printf("🧠 Strategy: %s\n", backtestStrategy)
	fmt.Printf("💰 Cash:     %.2f  (commission %.3f%%)\n\n", backtestCash, backtestCommission*100)

	series, report, err := loader.Load(ctx, backtestSymbol, start, end, backtestResample)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	for _, warning := range report.Warnings {
		PrintWarning(warning)
	}

	cfg := backtest.Config{
		Cash:          backtestCash,
		Commission:    backtestCommission,
		StopLossPct:   backtestStopLoss,
		TakeProfitPct: backtestTakeProfit,
	}

	engine := backtest.NewEngine(a.log)
	result, err := engine.Run(ctx, series, params, cfg)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result)

	if backtestNoSave {
		return nil
	}

	store, err := results.NewStore(a.cfg.ResultsDir, a.log)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	path, err := store.Save(result, params, backtestExperiment)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	fmt.Printf("💾 Saved to %s\n\n", path)

	return nil
}

func printBacktestResult(result *backtest.Result) {
	stats := result.Stats

	fmt.Println("\n✅ Backtest Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	fmt.Println("💰 Performance")
	fmt.Printf("Return:          %+.2f%%\n", stats.ReturnPct)
	fmt.Printf("Buy & Hold:      %+.2f%%\n", stats.BuyHoldReturnPct)
	fmt.Printf("Annual Return:   %+.2f%%\n", stats.AnnualizedReturnPct)
	fmt.Printf("Volatility:      %.2f%%\n", stats.VolatilityPct)
	fmt.Println()

	fmt.Println("📉 Risk Metrics")
	fmt.Printf("Sharpe Ratio:    %.2f", stats.SharpeRatio)
	if stats.SharpeRatio > 2.0 {
		fmt.Print(" 🌟 (Excellent)")
	} else if stats.SharpeRatio > 1.0 {
		fmt.Print(" ✅ (Good)")
	} else if stats.SharpeRatio > 0.5 {
		fmt.Print(" ⚠️  (Fair)")
	} else {
		fmt.Print(" ❌ (Poor)")
	}
	fmt.Println()
	fmt.Printf("Sortino Ratio:   %.2f\n", stats.SortinoRatio)
	fmt.Printf("Calmar Ratio:    %.2f\n", stats.CalmarRatio)
	fmt.Printf("Max Drawdown:    %.2f%%", stats.MaxDrawdownPct)
	if stats.MaxDrawdownPct < 10 {
		fmt.Print(" 🌟 (Excellent)")
	} else if stats.MaxDrawdownPct < 20 {
		fmt.Print(" ✅ (Good)")
	} else if stats.MaxDrawdownPct < 30 {
		fmt.Print(" ⚠️  (Fair)")
	} else {
		fmt.Print(" ❌ (High)")
	}
	fmt.Println()
	fmt.Println()

	fmt.Println("💹 Trading Metrics")
	fmt.Printf("Total Trades:    %d\n", stats.Trades)
	fmt.Printf("Win Rate:        %.1f%%\n", stats.WinRatePct)
	fmt.Printf("Avg Trade:       %+.2f%%\n", stats.AvgTradePct)
	fmt.Printf("Profit Factor:   %.2f\n", stats.ProfitFactor)
	fmt.Println()

	// Equity curve tail
	fmt.Println("📈 Equity Curve (last 10 points)")
	startIdx := len(result.EquityCurve) - 10
	if startIdx < 0 {
		startIdx = 0
	}
	for _, point := range result.EquityCurve[startIdx:] {
		fmt.Printf("%s: %.2f (%+.2f%%)\n",
			point.Time.Format("2006-01-02 15:04"),
			point.Equity,
			point.Return)
	}
	fmt.Println()
}
