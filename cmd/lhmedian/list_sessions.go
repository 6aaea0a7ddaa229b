// cmd/lhmedian/list_sessions.go
package lhmedian

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/report"
	"github.com/mwiater/lhmedian/internal/storage"
)

// sessionsCmd implements 'list sessions', which prints one row per session
// found under the reports directory.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List measurement sessions under the reports directory",
	Long:  `The 'sessions' subcommand reads the manifest of every session directory under --reports-dir and prints its URL, provider, run count and median run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions(cmd.OutOrStdout(), cfg.ReportsDir)
	},
}

func init() {
	listCmd.AddCommand(sessionsCmd)
}

func listSessions(w io.Writer, root string) error {
	sessions, err := storage.ListSessions(root)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintf(w, "No sessions found in %s\n", root)
		return nil
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("Session", "URL", "Provider", "Runs", "Median Run", "Median Score", "Finished")
	tb.Columns(
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
	)
	for _, s := range sessions {
		m := s.Manifest
		medianRun, medianScore := "-", "-"
		if m.MedianRun > 0 {
			medianRun = fmt.Sprint(m.MedianRun)
			medianScore = report.FormatScore(m.MedianScore)
		}
		tb.Row(s.Name, m.URL, m.Provider, m.Runs, medianRun, medianScore, m.FinishedAt.Format(time.DateTime))
	}
	fmt.Fprintln(w, tb.String())
	return nil
}
