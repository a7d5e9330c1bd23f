package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/store"
)

// initdbCmd represents the initdb command
var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Initialize the database schema",
	Long: `Creates the trading schema, the stock dimension table and the
bars/quotes/trades hypertables, then verifies the layout.

Safe to run repeatedly: every statement is IF NOT EXISTS. When the
TimescaleDB extension is missing the tables are created as plain
PostgreSQL tables and a warning is logged.

Example:
  go run ./cmd/quant initdb`,
	RunE: runInitdb,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitdb(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Schema Initialization ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	if err := a.connectData(); err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	schema := store.NewSchema(a.db.Pool, a.cfg.Database.Schema, a.log)

	fmt.Printf("\n📦 Schema: %s\n\n", a.cfg.Database.Schema)

	if err := schema.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	ok, issues := schema.Verify(ctx)
	if !ok {
		PrintError("Schema verification failed:")
		for _, issue := range issues {
			fmt.Printf("   • %s\n", issue)
		}
		return fmt.Errorf("schema verification failed with %d issue(s)", len(issues))
	}

	PrintSuccess("Schema initialized and verified")
	return nil
}
