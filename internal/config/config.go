// internal/config/config.go
// Package: config
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/provider"
	"github.com/mwiater/lhmedian/internal/provider/browser"
	"github.com/mwiater/lhmedian/internal/report"
	"github.com/mwiater/lhmedian/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. LHMEDIAN_RUNS.
const EnvPrefix = "LHMEDIAN"

// Config holds every setting of the CLI.
type Config struct {
	// URL is the page to measure.
	URL string `mapstructure:"url"`
	// Runs is the number of measurements in a session.
	Runs int `mapstructure:"runs"`
	// Reports is the session name and file base name.
	Reports string `mapstructure:"reports"`
	// ReportsDir is the root all sessions are written under.
	ReportsDir string `mapstructure:"reports_dir"`
	// Cookie is sent with every page request when set.
	Cookie string `mapstructure:"cookie"`
	// Provider is "lighthouse" or "chromedp".
	Provider string `mapstructure:"provider"`
	// Layout is "session" or "flat".
	Layout string `mapstructure:"layout"`
	// IncludeMedian adds the isMedian column to CSV and TXT.
	IncludeMedian bool `mapstructure:"include_median"`
	// NumberStyle is "compat" or "fixed".
	NumberStyle string `mapstructure:"number_style"`
	// MissingScore is "error" or "zero".
	MissingScore string `mapstructure:"missing_score"`
	// TUI shows the Bubble Tea progress view.
	TUI bool `mapstructure:"tui"`
	// Debug dumps the resolved configuration.
	Debug bool `mapstructure:"debug"`

	Log        LogConfig        `mapstructure:"log"`
	Lighthouse LighthouseConfig `mapstructure:"lighthouse"`
	Chromedp   ChromedpConfig   `mapstructure:"chromedp"`
	Comparison ComparisonConfig `mapstructure:"comparison"`
	Publish    PublishConfig    `mapstructure:"publish"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives logs while the progress view owns the terminal.
	File string `mapstructure:"file"`
}

type LighthouseConfig struct {
	Binary      string   `mapstructure:"binary"`
	ChromeFlags []string `mapstructure:"chrome_flags"`
	Preset      string   `mapstructure:"preset"`
}

type ChromedpConfig struct {
	ExecPath   string        `mapstructure:"exec_path"`
	FormFactor string        `mapstructure:"form_factor"`
	Settle     time.Duration `mapstructure:"settle"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ComparisonConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type PublishConfig struct {
	S3          S3Config          `mapstructure:"s3"`
	Pushgateway PushgatewayConfig `mapstructure:"pushgateway"`
	NATS        NATSConfig        `mapstructure:"nats"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	Concurrency     int    `mapstructure:"concurrency"`
}

type PushgatewayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Job     string `mapstructure:"job"`
}

type NATSConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	Subject   string `mapstructure:"subject"`
	JetStream bool   `mapstructure:"jetstream"`
}

// defaults lists every key so environment overrides reach Unmarshal.
var defaults = map[string]any{
	"url":            "",
	"runs":           5,
	"reports":        "lighthouse-report-run",
	"reports_dir":    "reports",
	"cookie":         "",
	"provider":       "lighthouse",
	"layout":         "session",
	"include_median": true,
	"number_style":   "compat",
	"missing_score":  "error",
	"tui":            true,
	"debug":          false,

	"log.level":  "info",
	"log.format": "text",
	"log.file":   "lhmedian.log",

	"lighthouse.binary":       "lighthouse",
	"lighthouse.chrome_flags": []string{"--headless=new", "--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"},
	"lighthouse.preset":       "",

	"chromedp.exec_path":   "",
	"chromedp.form_factor": "mobile",
	"chromedp.settle":      3 * time.Second,
	"chromedp.timeout":     90 * time.Second,

	"comparison.output_dir": "comparisonResults",

	"publish.s3.enabled":           false,
	"publish.s3.bucket":            "",
	"publish.s3.prefix":            "lhmedian",
	"publish.s3.region":            "",
	"publish.s3.endpoint":          "",
	"publish.s3.access_key_id":     "",
	"publish.s3.secret_access_key": "",
	"publish.s3.use_path_style":    false,
	"publish.s3.concurrency":       4,

	"publish.pushgateway.enabled": false,
	"publish.pushgateway.url":     "",
	"publish.pushgateway.job":     "lhmedian",

	"publish.nats.enabled":   false,
	"publish.nats.url":       "nats://127.0.0.1:4222",
	"publish.nats.subject":   "lhmedian.sessions",
	"publish.nats.jetstream": false,
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadDotEnv is replaced in tests.
var loadDotEnv = func() { _ = godotenv.Load() }

// Load resolves defaults, the optional config file, a .env file, the
// environment and any flags already bound to v, in rising precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	loadDotEnv()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerations and the settings of enabled publishers.
func (c *Config) Validate() error {
	var errs []error
	if c.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be at least 1, got %d", c.Runs))
	}
	if strings.TrimSpace(c.Reports) == "" {
		errs = append(errs, errors.New("reports name is required"))
	}
	switch strings.ToLower(c.Provider) {
	case "lighthouse", "chromedp":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want lighthouse or chromedp)", c.Provider))
	}
	if _, err := storage.ParseLayout(c.Layout); err != nil {
		errs = append(errs, err)
	}
	if _, err := report.ParseNumberStyle(c.NumberStyle); err != nil {
		errs = append(errs, err)
	}
	if _, err := provider.ParseMissingScorePolicy(c.MissingScore); err != nil {
		errs = append(errs, err)
	}
	if _, err := browser.ParseFormFactor(c.Chromedp.FormFactor); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format))
	}
	if c.Publish.S3.Enabled && c.Publish.S3.Bucket == "" {
		errs = append(errs, errors.New("publish.s3.bucket is required when s3 publishing is enabled"))
	}
	if c.Publish.Pushgateway.Enabled && c.Publish.Pushgateway.URL == "" {
		errs = append(errs, errors.New("publish.pushgateway.url is required when pushgateway publishing is enabled"))
	}
	if c.Publish.NATS.Enabled && (c.Publish.NATS.URL == "" || c.Publish.NATS.Subject == "") {
		errs = append(errs, errors.New("publish.nats.url and publish.nats.subject are required when nats publishing is enabled"))
	}
	return errors.Join(errs...)
}

// ReportOptions maps the export settings. Call after Validate.
func (c *Config) ReportOptions() report.Options {
	style, _ := report.ParseNumberStyle(c.NumberStyle)
	return report.Options{Style: style, IncludeMedian: c.IncludeMedian}
}

// StorageLayout maps the layout setting. Call after Validate.
func (c *Config) StorageLayout() storage.Layout {
	l, _ := storage.ParseLayout(c.Layout)
	return l
}

// MissingScorePolicy maps the missing score setting. Call after Validate.
func (c *Config) MissingScorePolicy() provider.MissingScorePolicy {
	p, _ := provider.ParseMissingScorePolicy(c.MissingScore)
	return p
}
