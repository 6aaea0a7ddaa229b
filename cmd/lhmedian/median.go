// cmd/lhmedian/median.go
package lhmedian

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/report"
)

// medianCmd implements 'median', which prints the flagged run of an export.
var medianCmd = &cobra.Command{
	Use:   "median",
	Short: "Print the median run of a JSON export",
	Long:  `The 'median' command loads a JSON export written by 'run' and prints the run flagged as the median. It fails when no run is flagged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return usageError(cmd, "--file is required")
		}
		return printMedian(file, report.NewExporter(cfg.ReportOptions()), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(medianCmd)
	medianCmd.Flags().StringP("file", "f", "", "JSON export to read")
}

func printMedian(path string, e *report.Exporter, out io.Writer) error {
	r, err := report.LoadMedian(path)
	if err != nil {
		if errors.Is(err, report.ErrNoMedian) {
			fmt.Fprintln(out, "no median")
		}
		return err
	}
	fmt.Fprintln(out, e.SummaryTable([]metrics.AnnotatedRecord{r}, format.ASCII))
	return nil
}
