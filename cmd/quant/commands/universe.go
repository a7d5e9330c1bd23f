package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/pkg/redis"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Refresh the tradable universe",
	Long: `Scrapes the Nasdaq-100 constituent table from Wikipedia and
upserts every member into the stock dimension table.

Flags:
  --dry-run   Scrape and print the constituents without writing

Example:
  go run ./cmd/quant universe
  go run ./cmd/quant universe --dry-run`,
	RunE: runUniverse,
}

var universeDryRun bool

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().BoolVar(&universeDryRun, "dry-run", false, "scrape and print without writing")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Universe Refresh ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	if err := a.connectData(); err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	fetcher := a.newUniverseFetcher()

	if universeDryRun {
		constituents, err := fetcher.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch constituents: %w", err)
		}

		fmt.Println()
		widths := []int{8, 40}
		PrintTableHeader([]string{"Symbol", "Company"}, widths)
		for _, c := range constituents {
			PrintTableRow([]string{c.Symbol, c.Company}, widths)
		}
		fmt.Printf("\n%d constituents (not written)\n", len(constituents))
		return nil
	}

	ids, err := fetcher.Load(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	symbols := make([]string, 0, len(ids))
	for symbol := range ids {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	fmt.Println()
	for _, symbol := range symbols {
		fmt.Printf("   • %s\n", symbol)
	}

	// Cached symbol lists are stale after a membership change
	if err := a.cache.Delete(ctx, redis.AvailableSymbolsKey()); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate symbol cache")
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Upserted %d constituents", len(ids)))
	return nil
}
