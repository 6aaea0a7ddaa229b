// cmd/lhmedian/compare.go
package lhmedian

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mwiater/lhmedian/internal/compare"
	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/report"
)

// noMedianMessage is printed when either export lacks a flagged run.
const noMedianMessage = "Could not find median record in one or both files."

// compareOptions are the per-invocation inputs of 'compare'.
type compareOptions struct {
	Pre, Post   string
	Out         string
	Description string
	Format      string
	OutputDir   string
}

// compareCmd implements 'compare', which compares the median runs of two
// JSON exports and writes a comparison table.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the median runs of two JSON exports",
	Long: `The 'compare' command loads two JSON exports written by 'run', takes the
median run of each and writes a before/after table with the percentage change
of every metric under the comparison output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		opts := compareOptions{OutputDir: cfg.Comparison.OutputDir}
		opts.Pre, _ = f.GetString("pre")
		opts.Post, _ = f.GetString("post")
		opts.Out, _ = f.GetString("out")
		opts.Description, _ = f.GetString("description")
		opts.Format, _ = f.GetString("format")

		if opts.Pre == "" || opts.Post == "" {
			return usageError(cmd, "both --pre and --post are required")
		}
		if !f.Changed("out") && opts.Format == "markdown" {
			opts.Out = "comparison-table.md"
		}
		return runCompare(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	f := compareCmd.Flags()
	f.String("pre", "", "JSON export taken before the change")
	f.String("post", "", "JSON export taken after the change")
	f.String("out", "comparison-table.html", "Output file name")
	f.String("description", compare.DefaultCaption, "Table caption (alias --desc)")
	f.String("format", "html", "Output format: html or markdown")
	f.String("output-dir", "comparisonResults", "Directory comparison files are written to")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "desc" {
			name = "description"
		}
		return pflag.NormalizedName(name)
	})

	viper.BindPFlag("comparison.output_dir", f.Lookup("output-dir"))
}

// runCompare renders the comparison, writes it and prints the terminal view.
func runCompare(opts compareOptions, out, errOut io.Writer) error {
	if !filepath.IsLocal(opts.Out) {
		return fmt.Errorf("%w: --out %q must be a relative path inside %s", errUsage, opts.Out, opts.OutputDir)
	}
	before, after, err := compare.LoadMedians(opts.Pre, opts.Post)
	if err != nil {
		if errors.Is(err, report.ErrNoMedian) {
			fmt.Fprintln(errOut, noMedianMessage)
		}
		return err
	}
	c := compare.Build(before, after, opts.Description)

	var buf bytes.Buffer
	switch opts.Format {
	case "html":
		if err := compare.RenderHTML(&buf, c); err != nil {
			return err
		}
	case "markdown":
		buf.WriteString(compare.RenderMarkdown(c) + "\n")
	default:
		return fmt.Errorf("%w: unknown format %q (want html or markdown)", errUsage, opts.Format)
	}

	path := filepath.Join(opts.OutputDir, opts.Out)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.New("compare").Debug("comparison written", "file", path, "bytes", buf.Len())

	fmt.Fprintln(out, compare.RenderTerminal(c))
	fmt.Fprintf(out, "Comparison table written to %s\n", path)
	return nil
}
