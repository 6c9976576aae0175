// Package commands implements the salesreport CLI.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "salesreport",
	Short: "Seller performance reports from sales data",
	Long: `salesreport ranks sellers by profit and computes revenue, bonuses and
top products from a JSON document with sellers, products and purchase_records.

Examples:
  salesreport analyze --input data.json
  salesreport analyze --input data.json --format table
  cat data.json | salesreport analyze`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
