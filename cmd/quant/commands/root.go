package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Market data ingestion and backtesting toolkit",
	Long: `Research toolkit for US equities: ingest minute bars, quotes and
trades from Alpaca into TimescaleDB, validate data quality, and run
strategy backtests and parameter searches on the stored history.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant initdb
  go run ./cmd/quant ingest run --symbols AAPL,MSFT --from 2024-01-02
  go run ./cmd/quant backtest run --symbol AAPL --strategy ma_crossover --from 2024-01-02
  go run ./cmd/quant optimize grid --symbol AAPL --strategy bollinger --from 2024-01-02 --param period=10,20,30`,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
