package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/store"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Database health and per-symbol coverage",
	Long: `Checks database connectivity, verifies the schema and prints the
stored data range for every symbol with bars.

Example:
  go run ./cmd/quant status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== System Status ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	if err := a.connectData(); err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	// Database health
	fmt.Println("\n🗄️  Database")
	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Health check failed: %v", err))
		return err
	}
	fmt.Printf("Healthy:       %v\n", health.Healthy)
	fmt.Printf("Response time: %v\n", health.ResponseTime)
	fmt.Printf("Connections:   %d/%d (idle %d)\n",
		health.Stats.TotalConns, health.Stats.MaxConns, health.Stats.IdleConns)

	// Schema
	fmt.Println("\n📦 Schema")
	schema := store.NewSchema(a.db.Pool, a.cfg.Database.Schema, a.log)
	ok, issues := schema.Verify(ctx)
	if ok {
		PrintSuccess(fmt.Sprintf("Schema %q verified", a.cfg.Database.Schema))
	} else {
		PrintError(fmt.Sprintf("Schema %q has issues:", a.cfg.Database.Schema))
		for _, issue := range issues {
			fmt.Printf("   • %s\n", issue)
		}
	}

	// Redis
	fmt.Println("\n⚡ Cache")
	if a.redis.Enabled() {
		PrintSuccess("Redis connected")
	} else {
		PrintWarning("Redis disabled, caching off")
	}

	// Coverage
	fmt.Println("\n📊 Coverage")
	symbols, err := a.stocks.ListWithBars(ctx)
	if err != nil {
		return fmt.Errorf("list symbols: %w", err)
	}
	if len(symbols) == 0 {
		fmt.Println("No bar data stored yet")
		return nil
	}

	widths := []int{8, 19, 19, 10}
	PrintTableHeader([]string{"Symbol", "First", "Last", "Rows"}, widths)
	for _, symbol := range symbols {
		r, err := a.stocks.DataRange(ctx, symbol)
		if err != nil {
			PrintTableRow([]string{symbol, "error", err.Error(), ""}, widths)
			continue
		}
		PrintTableRow([]string{
			symbol,
			r.First.Format("2006-01-02 15:04"),
			r.Last.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.Rows),
		}, widths)
	}
	fmt.Printf("\n%d symbol(s) with data\n", len(symbols))

	return nil
}
