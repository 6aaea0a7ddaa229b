// internal/provider/browser/browser.go
// Package: browser
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/provider"
)

// Name is the registry key of this provider.
const Name = "chromedp"

// Config configures the headless Chrome measurement.
type Config struct {
	// ExecPath overrides the Chrome binary chromedp finds on its own.
	ExecPath string
	// FormFactor selects viewport emulation and scoring curves.
	FormFactor FormFactor
	// Settle is how long to keep observing after the load event.
	Settle time.Duration
	// Timeout bounds one run, browser start included.
	Timeout time.Duration
}

// Provider measures lab vitals in a fresh headless Chrome per run.
type Provider struct {
	cfg Config
}

// New returns a chromedp provider.
func New(cfg Config) *Provider {
	if cfg.FormFactor == "" {
		cfg.FormFactor = Mobile
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return Name }

// allocatorOptions mirrors the Chrome flags used with the Lighthouse CLI.
func (p *Provider) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}
	return opts
}

// runArtifact is stored as the raw report of a run.
type runArtifact struct {
	URL        string         `json:"url"`
	Run        int            `json:"run"`
	FormFactor FormFactor     `json:"formFactor"`
	Entries    Entries        `json:"entries"`
	Record     metrics.Record `json:"record"`
}

// Measure launches Chrome, loads the page once and scores what the
// collector observed. The browser is closed before returning.
func (p *Provider) Measure(ctx context.Context, req provider.Request) (provider.Result, error) {
	log := logging.New("chromedp")

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var raw string
	actions := []chromedp.Action{network.Enable()}
	if req.Cookie != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{"Cookie": req.Cookie}))
	}
	if p.cfg.FormFactor == Mobile {
		actions = append(actions,
			emulation.SetDeviceMetricsOverride(412, 823, 1.75, true),
			emulation.SetCPUThrottlingRate(4),
		)
	}
	actions = append(actions,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(collectorScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(p.cfg.Settle),
		chromedp.Evaluate(readEntriesScript, &raw),
	)

	log.Debug("starting chrome", "run", req.Run, "url", req.URL, "form_factor", p.cfg.FormFactor)
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return provider.Result{}, fmt.Errorf("chromedp: %w", err)
	}

	entries, err := ParseEntries(raw)
	if err != nil {
		return provider.Result{}, err
	}
	rec := Compute(entries, p.cfg.FormFactor)
	rec.Run = req.Run

	data, err := json.MarshalIndent(runArtifact{
		URL:        req.URL,
		Run:        req.Run,
		FormFactor: p.cfg.FormFactor,
		Entries:    entries,
		Record:     rec,
	}, "", "  ")
	if err != nil {
		return provider.Result{}, fmt.Errorf("encode artifact: %w", err)
	}
	log.Debug("chrome finished", "run", req.Run, "score", rec.Score)

	return provider.Result{
		Record:   rec,
		Artifact: provider.Artifact{Data: data, Ext: ".json"},
	}, nil
}
