// cmd/lhmedian/run.go
package lhmedian

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/k0kubun/pp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/lhmedian/internal/cli"
	"github.com/mwiater/lhmedian/internal/config"
	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/harness"
	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/median"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/provider"
	"github.com/mwiater/lhmedian/internal/provider/browser"
	"github.com/mwiater/lhmedian/internal/provider/lighthouse"
	"github.com/mwiater/lhmedian/internal/publish"
	"github.com/mwiater/lhmedian/internal/report"
	"github.com/mwiater/lhmedian/internal/storage"
)

// runCmd implements 'run', which measures a URL several times, marks the
// median run and writes the session summaries.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Measure a URL several times and mark the median run",
	Long: `The 'run' command measures --url --runs times in a row, one fresh browser per
run, stores each raw report, then writes <reports>.csv, <reports>.txt and
<reports>.json with the median run flagged. Any failed run aborts the session
before summaries are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.URL == "" {
			return usageError(cmd, "--url is required")
		}
		return runSession(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringP("url", "u", "", "URL to measure")
	f.IntP("runs", "r", 5, "Number of runs")
	f.String("reports", "lighthouse-report-run", "Session name and base name of the report files")
	f.StringP("cookie", "c", "", "Cookie header sent with every request")
	f.String("provider", "lighthouse", "Measurement provider: lighthouse or chromedp")
	f.String("layout", "session", "Report layout: session or flat")
	f.Bool("include-median", true, "Add the isMedian column to CSV and TXT")
	f.String("number-style", "compat", "Number style of CSV and TXT: compat or fixed")
	f.String("missing-score", "error", "Missing performance score: error or zero")
	f.String("form-factor", "mobile", "chromedp form factor: mobile or desktop")
	f.String("preset", "", "Lighthouse --preset, e.g. desktop")
	f.Bool("tui", true, "Show the interactive progress view on a terminal")
	f.Bool("debug", false, "Dump the resolved configuration")

	viper.BindPFlag("url", f.Lookup("url"))
	viper.BindPFlag("runs", f.Lookup("runs"))
	viper.BindPFlag("reports", f.Lookup("reports"))
	viper.BindPFlag("cookie", f.Lookup("cookie"))
	viper.BindPFlag("provider", f.Lookup("provider"))
	viper.BindPFlag("layout", f.Lookup("layout"))
	viper.BindPFlag("include_median", f.Lookup("include-median"))
	viper.BindPFlag("number_style", f.Lookup("number-style"))
	viper.BindPFlag("missing_score", f.Lookup("missing-score"))
	viper.BindPFlag("chromedp.form_factor", f.Lookup("form-factor"))
	viper.BindPFlag("lighthouse.preset", f.Lookup("preset"))
	viper.BindPFlag("tui", f.Lookup("tui"))
	viper.BindPFlag("debug", f.Lookup("debug"))
}

// newRegistry builds the providers known to 'run'. Tests replace it.
var newRegistry = func(c *config.Config) *provider.Registry {
	r := provider.NewRegistry()
	r.Register(lighthouse.Name, func() (provider.Provider, error) {
		return lighthouse.New(lighthouse.Config{
			Binary:       c.Lighthouse.Binary,
			ChromeFlags:  c.Lighthouse.ChromeFlags,
			Preset:       c.Lighthouse.Preset,
			MissingScore: c.MissingScorePolicy(),
		}), nil
	})
	r.Register(browser.Name, func() (provider.Provider, error) {
		ff, err := browser.ParseFormFactor(c.Chromedp.FormFactor)
		if err != nil {
			return nil, err
		}
		return browser.New(browser.Config{
			ExecPath:   c.Chromedp.ExecPath,
			FormFactor: ff,
			Settle:     c.Chromedp.Settle,
			Timeout:    c.Chromedp.Timeout,
		}), nil
	})
	return r
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// runSession measures, exports, writes the manifest and publishes.
func runSession(ctx context.Context, c *config.Config, out io.Writer) error {
	if c.Debug {
		pp.Fprintln(out, c)
	}

	p, err := newRegistry(c).Get(c.Provider)
	if err != nil {
		return err
	}
	area, err := storage.NewArea(c.ReportsDir, c.Reports, c.StorageLayout())
	if err != nil {
		return err
	}

	useTUI := c.TUI && isTerminal(out)
	if useTUI {
		f, err := tea.LogToFile(c.Log.File, "lhmedian")
		if err != nil {
			return fmt.Errorf("could not open log file: %w", err)
		}
		defer f.Close()
		initLogging(c, f)
	}
	log := logging.New("run")

	runner := harness.NewRunner(p, area, nil)
	session, err := cli.RunWithProgress(ctx, runner, cli.RunArgs{URL: c.URL, Runs: c.Runs, Cookie: c.Cookie}, useTUI, out)
	if err != nil {
		return err
	}

	annotated := median.Annotate(session.Records)
	exporter := report.NewExporter(c.ReportOptions())
	if _, err := exporter.Write(area, c.Reports, annotated); err != nil {
		return err
	}

	med, ok := median.Flagged(annotated)
	if !ok {
		log.Warn("no run matched the median score", "session", session.ID)
	}
	files, err := writeManifest(area, session, med, ok)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, exporter.SummaryTable(annotated, format.ASCII))
	fmt.Fprintf(out, "Reports written to %s\n", area.Dir())

	summary := publish.SessionSummary{
		ID:         session.ID,
		Name:       c.Reports,
		URL:        session.URL,
		Provider:   session.Provider,
		Runs:       session.RunCount,
		StartedAt:  session.StartedAt,
		FinishedAt: session.FinishedAt,
		Dir:        area.Dir(),
		Files:      files,
	}
	if ok {
		summary.Median = &med
	}
	pubs, closeAll, err := newPublishers(ctx, c, summary.Median != nil)
	if err != nil {
		return err
	}
	defer closeAll()
	return publish.All(ctx, pubs, summary)
}

// writeManifest stores the session manifest and returns the area's files,
// manifest included.
func writeManifest(area *storage.Area, s *metrics.Session, med metrics.AnnotatedRecord, hasMedian bool) ([]string, error) {
	files, err := area.Files()
	if err != nil {
		return nil, err
	}
	m := storage.Manifest{
		ID:         s.ID,
		URL:        s.URL,
		Provider:   s.Provider,
		Runs:       s.RunCount,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Files:      append(files, area.ManifestName()),
	}
	if hasMedian {
		m.MedianRun = med.Run
		m.MedianScore = med.Score
	}
	if err := area.WriteManifest(m); err != nil {
		return nil, err
	}
	return area.Files()
}

// newPublishers returns the enabled sinks and a func releasing them.
func newPublishers(ctx context.Context, c *config.Config, hasMedian bool) ([]publish.Publisher, func(), error) {
	var pubs []publish.Publisher
	var closers []func() error
	closeAll := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}

	if s3 := c.Publish.S3; s3.Enabled {
		u, err := publish.NewS3Uploader(ctx, publish.S3Config{
			Bucket:          s3.Bucket,
			Prefix:          s3.Prefix,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			UsePathStyle:    s3.UsePathStyle,
			Concurrency:     s3.Concurrency,
		})
		if err != nil {
			return nil, closeAll, err
		}
		pubs = append(pubs, u)
	}

	if pg := c.Publish.Pushgateway; pg.Enabled {
		if hasMedian {
			pubs = append(pubs, &publish.Pushgateway{URL: pg.URL, Job: pg.Job})
		} else {
			logging.New("run").Warn("skipping pushgateway: session has no median run")
		}
	}

	if n := c.Publish.NATS; n.Enabled {
		notifier, err := publish.NewNATSNotifier(publish.NATSConfig{URL: n.URL, Subject: n.Subject, JetStream: n.JetStream})
		if err != nil {
			return nil, closeAll, err
		}
		pubs = append(pubs, notifier)
		closers = append(closers, notifier.Close)
	}
	return pubs, closeAll, nil
}
