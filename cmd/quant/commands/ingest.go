package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/ingest"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Historical market data ingestion",
	Long: `Fetches historical bars, quotes or trades from Alpaca and stores
them in TimescaleDB.

Ingestion is idempotent: each symbol resumes from its stored tail, and
symbols already within tolerance of the requested end are skipped.

Example:
  go run ./cmd/quant ingest run --from 2024-01-01 --to 2024-06-30
  go run ./cmd/quant ingest run --from 2024-01-01 --symbols AAPL,MSFT --dataset trades`,
}

var (
	ingestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a batch ingestion",
		Long: `Ingests the requested window for every symbol, in parallel.

Flags:
  --from      Start date (YYYY-MM-DD, required)
  --to        End date (YYYY-MM-DD, default: now)
  --symbols   Comma-separated symbols (default: all known symbols)
  --dataset   bars, quotes or trades (default: bars)
  --workers   Parallel workers (default: from config)

Example:
  go run ./cmd/quant ingest run --from 2024-01-01 --to 2024-06-30
  go run ./cmd/quant ingest run --from 2024-01-01 --symbols AAPL --dataset quotes`,
		RunE: runIngest,
	}

	// Flags
	ingestFrom    string
	ingestTo      string
	ingestSymbols []string
	ingestDataset string
	ingestWorkers int
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestRunCmd)

	ingestRunCmd.Flags().StringVar(&ingestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	ingestRunCmd.Flags().StringVar(&ingestTo, "to", "", "end date (YYYY-MM-DD, default: now)")
	ingestRunCmd.Flags().StringSliceVar(&ingestSymbols, "symbols", nil, "symbols to ingest (default: all)")
	ingestRunCmd.Flags().StringVar(&ingestDataset, "dataset", "bars", "dataset: bars, quotes or trades")
	ingestRunCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "parallel workers (default: from config)")

	ingestRunCmd.MarkFlagRequired("from")
}

func runIngest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Batch Ingestion ===")

	start, end, err := parseDateRange(ingestFrom, ingestTo)
	if err != nil {
		return err
	}

	dataset := ingest.Dataset(ingestDataset)
	switch dataset {
	case ingest.DatasetBars, ingest.DatasetQuotes, ingest.DatasetTrades:
	default:
		return fmt.Errorf("unknown dataset %q (want bars, quotes or trades)", ingestDataset)
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

	symbols := ingestSymbols
	if len(symbols) == 0 {
		stocks, err := a.stocks.List(ctx)
		if err != nil {
			return fmt.Errorf("list symbols: %w", err)
		}
		for _, s := range stocks {
			symbols = append(symbols, s.Symbol)
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to ingest, run 'quant universe' first")
	}

	runner, err := a.newRunner(ingestWorkers)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}

	fmt.Printf("\n📅 Period:  %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("📦 Dataset: %s\n", dataset)
	fmt.Printf("🏷️  Symbols: %d\n\n", len(symbols))

	began := time.Now()
	results := runner.Run(ctx, symbols, start, end, dataset)

	widths := []int{8, 9, 10, 40}
	PrintTableHeader([]string{"Symbol", "Status", "Inserted", "Error"}, widths)
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		PrintTableRow([]string{
			r.Symbol,
			string(r.Status),
			fmt.Sprintf("%d", r.Inserted),
			errText,
		}, widths)
	}

	summary := ingest.Summarize(results)
	fmt.Println()
	fmt.Printf("✅ Succeeded: %d   ⏭️  Skipped: %d   ❌ Failed: %d\n",
		summary.Succeeded, summary.Skipped, summary.Failed)
	fmt.Printf("📊 Rows inserted: %d in %.1fs\n", summary.Inserted, time.Since(began).Seconds())

	if summary.Failed == len(symbols) {
		return fmt.Errorf("all %d symbols failed", len(symbols))
	}
	return nil
}

// parseDateRange parses --from/--to values, defaulting the end to now
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	end := time.Now().UTC()
	if to != "" {
		end, err = time.Parse("2006-01-02", strings.TrimSpace(to))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
		// Inclusive end date
		end = end.AddDate(0, 0, 1)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}
