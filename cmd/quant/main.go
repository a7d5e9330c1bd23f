package main

import (
	"os"

	"github.com/ll101/project-algo-trading/cmd/quant/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
