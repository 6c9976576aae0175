package main

import (
	"os"

	"github.com/atmx/sales-engine/cmd/salesreport/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
