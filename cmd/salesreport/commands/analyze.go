package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atmx/sales-engine/internal/dataset"
	"github.com/atmx/sales-engine/internal/engine"
	"github.com/atmx/sales-engine/internal/model"
)

var (
	analyzeInput  string
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate the seller report",
	Long: `Reads the input document from --input (or stdin when omitted or "-"),
runs the aggregation engine with the reference policies and prints the
ranked report.

Formats:
  json   one JSON array of report entries (default)
  table  human-readable columns`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "-", "input JSON file")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "output format (json|table)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "json" && analyzeFormat != "table" {
		return fmt.Errorf("unknown format %q", analyzeFormat)
	}

	var r io.Reader = cmd.InOrStdin()
	if analyzeInput != "" && analyzeInput != "-" {
		f, err := os.Open(analyzeInput)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	in, err := dataset.Decode(r)
	if err != nil {
		return err
	}

	res, err := engine.Analyze(in, engine.DefaultConfig())
	if err != nil {
		return err
	}
	slog.Debug("report generated",
		"sellers", len(res.Entries),
		"records", res.Stats.Records,
		"skipped_records", res.Stats.SkippedRecords,
		"skipped_items", res.Stats.SkippedItems,
	)

	out := cmd.OutOrStdout()
	if analyzeFormat == "table" {
		return writeTable(out, res.Entries)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Entries)
}

func writeTable(w io.Writer, entries []model.ReportEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSELLER\tNAME\tREVENUE\tPROFIT\tSALES\tBONUS\tTOP PRODUCTS")
	for i, e := range entries {
		top := make([]string, 0, len(e.TopProducts))
		for _, p := range e.TopProducts {
			top = append(top, fmt.Sprintf("%s×%g", p.SKU, p.Quantity))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%d\t%.2f\t%s\n",
			i+1, e.SellerID, e.Name, e.Revenue, e.Profit, e.SalesCount, e.Bonus, strings.Join(top, ", "))
	}
	return tw.Flush()
}
