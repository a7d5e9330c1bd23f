package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/results"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect saved backtest results",
	Long: `Lists and compares backtest results saved as JSON on disk.

Results live under the configured results directory, optionally grouped
into experiment subdirectories.

Example:
  go run ./cmd/quant results list
  go run ./cmd/quant results list --experiment sweep1
  go run ./cmd/quant results compare --metric sharpe_ratio`,
}

var (
	resultsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved results, most recent first",
		RunE:  runResultsList,
	}

	resultsCompareCmd = &cobra.Command{
		Use:   "compare",
		Short: "Rank saved results by a metric",
		RunE:  runResultsCompare,
	}

	// Flags
	resultsExperiment string
	resultsMetric     string
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsCompareCmd)

	resultsListCmd.Flags().StringVar(&resultsExperiment, "experiment", "", "experiment subdirectory")
	resultsCompareCmd.Flags().StringVar(&resultsExperiment, "experiment", "", "experiment subdirectory")
	resultsCompareCmd.Flags().StringVar(&resultsMetric, "metric", "return_pct", "metric to rank by")
}

func openResultsStore() (*results.Store, error) {
	a, err := initApp()
	if err != nil {
		return nil, err
	}
	return results.NewStore(a.cfg.ResultsDir, a.log)
}

func runResultsList(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore()
	if err != nil {
		return err
	}

	records, err := store.LoadExperiment(resultsExperiment)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No saved results")
		return nil
	}

	widths := []int{8, 16, 19, 10, 8, 8}
	PrintTableHeader([]string{"Symbol", "Strategy", "Timestamp", "Return", "Sharpe", "Trades"}, widths)
	for _, r := range records {
		PrintTableRow([]string{
			r.Symbol,
			string(r.Strategy),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%+.2f%%", r.Metrics.ReturnPct),
			fmt.Sprintf("%.2f", r.Metrics.SharpeRatio),
			fmt.Sprintf("%d", r.NumTrades),
		}, widths)
	}
	fmt.Printf("\n%d result(s)\n", len(records))
	return nil
}

func runResultsCompare(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore()
	if err != nil {
		return err
	}

	records, err := store.LoadExperiment(resultsExperiment)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No saved results")
		return nil
	}

	comparator := results.NewComparator(records)
	ranked, err := comparator.RankByMetric(resultsMetric)
	if err != nil {
		return err
	}

	fmt.Printf("Ranked by %s:\n\n", resultsMetric)
	widths := []int{4, 8, 16, 12, 10, 8}
	PrintTableHeader([]string{"#", "Symbol", "Strategy", resultsMetric, "Return", "Trades"}, widths)
	for i, r := range ranked {
		value, _ := results.MetricValue(r.Metrics, resultsMetric)
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			string(r.Strategy),
			fmt.Sprintf("%.4f", value),
			fmt.Sprintf("%+.2f%%", r.Metrics.ReturnPct),
			fmt.Sprintf("%d", r.NumTrades),
		}, widths)
	}

	best := ranked[0]
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Best: %s %s (run %s)", best.Symbol, best.Strategy, best.RunID))
	return nil
}
