// cmd/lhmedian/root.go
package lhmedian

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/lhmedian/internal/config"
	"github.com/mwiater/lhmedian/internal/logging"
)

// rootCmd is the base Cobra command for the lhmedian application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "lhmedian",
	Short: "Run Lighthouse several times and keep the median run",
	Long: `lhmedian measures a page several times, marks the run whose performance
score equals the median, exports CSV, TXT and JSON summaries and compares
the median runs of two exports.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// cfg is the resolved configuration of the running command.
var cfg *config.Config

// errUsage marks errors caused by missing or invalid arguments.
var errUsage = errors.New("usage")

// usageError prints the command usage to stderr and returns a usage error.
func usageError(cmd *cobra.Command, msg string) error {
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return fmt.Errorf("%w: %s", errUsage, msg)
}

// loadConfig resolves the configuration once flags are parsed and sets up
// logging from it.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(viper.GetViper(), viper.GetString("config"))
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	initLogging(c, cmd.ErrOrStderr())
	cfg = c
	return nil
}

func initLogging(c *config.Config, w io.Writer) {
	level, _ := logging.ParseLevel(c.Log.Level)
	logging.Init(level, c.Log.Format, w)
}

// Execute runs the root Cobra command and all registered subcommands.
// It prints any returned error and exits the process with a non-zero
// status code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (YAML, JSON or TOML)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("reports-dir", "reports", "Directory all sessions are written under")

	viper.BindPFlag("config", pf.Lookup("config"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("reports_dir", pf.Lookup("reports-dir"))
}
