// internal/provider/lighthouse/lighthouse.go
// Package: lighthouse
package lighthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/provider"
)

// Name is the registry key of this provider.
const Name = "lighthouse"

// DefaultChromeFlags launch a headless Chrome that works inside containers.
var DefaultChromeFlags = []string{
	"--headless=new",
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

// Audit ids read from the report, keyed by the metric they fill.
var auditIDs = map[metrics.Metric]string{
	metrics.FCP: "first-contentful-paint",
	metrics.LCP: "largest-contentful-paint",
	metrics.TBT: "total-blocking-time",
	metrics.CLS: "cumulative-layout-shift",
	metrics.SI:  "speed-index",
}

// Config configures the Lighthouse CLI invocation.
type Config struct {
	// Binary is the lighthouse executable, "lighthouse" when empty.
	Binary string
	// ChromeFlags replaces DefaultChromeFlags when non-empty.
	ChromeFlags []string
	// Preset is passed as --preset when set (e.g. "desktop").
	Preset string
	// MissingScore decides how a null performance score is handled.
	MissingScore provider.MissingScorePolicy
	// TempDir is where per-run output is written before it is read back.
	TempDir string
}

// runCommand executes the CLI. Tests replace it.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Provider runs one Lighthouse CLI process, and so one Chrome, per run.
type Provider struct {
	cfg Config
}

// New returns a Lighthouse provider.
func New(cfg Config) *Provider {
	if cfg.Binary == "" {
		cfg.Binary = "lighthouse"
	}
	if len(cfg.ChromeFlags) == 0 {
		cfg.ChromeFlags = DefaultChromeFlags
	}
	if cfg.MissingScore == "" {
		cfg.MissingScore = provider.MissingScoreError
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return Name }

// Args builds the CLI arguments for one run writing to outPath.
func (p *Provider) Args(req provider.Request, outPath string) ([]string, error) {
	args := []string{
		req.URL,
		"--output=json",
		"--output=html",
		"--output-path=" + outPath,
		"--only-categories=performance",
		"--chrome-flags=" + strings.Join(p.cfg.ChromeFlags, " "),
		"--quiet",
	}
	if p.cfg.Preset != "" {
		args = append(args, "--preset="+p.cfg.Preset)
	}
	if req.Cookie != "" {
		h, err := json.Marshal(map[string]string{"Cookie": req.Cookie})
		if err != nil {
			return nil, err
		}
		args = append(args, "--extra-headers="+string(h))
	}
	return args, nil
}

// Measure runs the CLI and maps its JSON report into a record. The HTML
// report is returned as the run artifact.
func (p *Provider) Measure(ctx context.Context, req provider.Request) (provider.Result, error) {
	log := logging.New("lighthouse")

	dir, err := os.MkdirTemp(p.cfg.TempDir, "lhmedian-run-*")
	if err != nil {
		return provider.Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	outPath := filepath.Join(dir, "run")
	args, err := p.Args(req, outPath)
	if err != nil {
		return provider.Result{}, fmt.Errorf("encode headers: %w", err)
	}

	log.Debug("starting lighthouse", "run", req.Run, "url", req.URL)
	out, err := runCommand(ctx, p.cfg.Binary, args...)
	if err != nil {
		return provider.Result{}, fmt.Errorf("%s failed: %w: %s", p.cfg.Binary, err, strings.TrimSpace(string(out)))
	}

	raw, err := os.ReadFile(outPath + ".report.json")
	if err != nil {
		return provider.Result{}, fmt.Errorf("read json report: %w", err)
	}
	html, err := os.ReadFile(outPath + ".report.html")
	if err != nil {
		return provider.Result{}, fmt.Errorf("read html report: %w", err)
	}

	rec, err := ParseReport(raw, p.cfg.MissingScore)
	if err != nil {
		return provider.Result{}, err
	}
	rec.Run = req.Run
	log.Debug("lighthouse finished", "run", req.Run, "score", rec.Score)

	return provider.Result{
		Record:   rec,
		Artifact: provider.Artifact{Data: html, Ext: ".html"},
	}, nil
}

// lhr is the subset of the Lighthouse result JSON that is read.
type lhr struct {
	Audits map[string]struct {
		NumericValue *float64 `json:"numericValue"`
	} `json:"audits"`
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	RuntimeError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError"`
}

// ParseReport maps a Lighthouse JSON report into a record. A missing
// numericValue counts as 0; a missing audit is an error.
func ParseReport(raw []byte, policy provider.MissingScorePolicy) (metrics.Record, error) {
	var r lhr
	if err := json.Unmarshal(raw, &r); err != nil {
		return metrics.Record{}, fmt.Errorf("decode lighthouse report: %w", err)
	}
	if r.RuntimeError != nil && r.RuntimeError.Code != "" && r.RuntimeError.Code != "NO_ERROR" {
		return metrics.Record{}, fmt.Errorf("lighthouse runtime error %s: %s", r.RuntimeError.Code, r.RuntimeError.Message)
	}

	var rec metrics.Record
	fields := map[metrics.Metric]*float64{
		metrics.FCP: &rec.FCP,
		metrics.LCP: &rec.LCP,
		metrics.TBT: &rec.TBT,
		metrics.CLS: &rec.CLS,
		metrics.SI:  &rec.SI,
	}
	for m, id := range auditIDs {
		a, ok := r.Audits[id]
		if !ok {
			return metrics.Record{}, fmt.Errorf("%w: %s", provider.ErrMissingAudit, id)
		}
		if a.NumericValue != nil {
			*fields[m] = *a.NumericValue
		}
	}

	perf, ok := r.Categories["performance"]
	switch {
	case ok && perf.Score != nil:
		rec.Score = *perf.Score * 100
	case policy == provider.MissingScoreZero:
		rec.Score = 0
	default:
		return metrics.Record{}, provider.ErrMissingScore
	}
	return rec, nil
}
