// internal/harness/runner.go
// Package: harness
package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/provider"
)

// Runner executes measurement runs one after another.
type Runner struct {
	Provider provider.Provider
	Store    Store
	Observer Observer

	// now is replaced in tests.
	now func() time.Time
}

// NewRunner wires a runner. A nil observer is replaced by NopObserver.
func NewRunner(p provider.Provider, store Store, obs Observer) *Runner {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Runner{Provider: p, Store: store, Observer: obs, now: time.Now}
}

// Run measures url runCount times and returns the completed session. The
// first failing run aborts the session; records gathered so far are
// discarded.
func (r *Runner) Run(ctx context.Context, url string, runCount int, cookie string) (*metrics.Session, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrMissingURL
	}
	if runCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRunCount, runCount)
	}
	now := r.now
	if now == nil {
		now = time.Now
	}
	obs := r.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	log := logging.New("harness")

	if err := r.Store.Reset(); err != nil {
		return nil, fmt.Errorf("reset session area: %w", err)
	}

	session := &metrics.Session{
		ID:        uuid.NewString(),
		URL:       url,
		RunCount:  runCount,
		Provider:  r.Provider.Name(),
		StartedAt: now(),
		Records:   make([]metrics.Record, 0, runCount),
	}
	log.Info("session started", "id", session.ID, "url", url, "runs", runCount, "provider", session.Provider)

	for i := 1; i <= runCount; i++ {
		pct := Percent(i-1, runCount)
		obs.RunStarted(i, runCount, pct)

		res, err := r.Provider.Measure(ctx, provider.Request{URL: url, Run: i, Cookie: cookie})
		if err != nil {
			log.Error("run failed", "run", i, "error", err)
			return nil, &RunError{Run: i, Err: err}
		}

		rec := res.Record
		rec.Run = i
		if err := rec.Validate(); err != nil {
			return nil, &RunError{Run: i, Err: err}
		}

		path, err := r.Store.WriteRun(i, res.Artifact.Ext, res.Artifact.Data)
		if err != nil {
			return nil, &RunError{Run: i, Err: fmt.Errorf("store artifact: %w", err)}
		}

		session.Records = append(session.Records, rec)
		log.Info("run finished", "run", i, "of", runCount, "score", rec.Score, "artifact", path)
		obs.RunFinished(Progress{Run: i, Total: runCount, Percent: pct, Record: rec, Path: path})
	}

	session.FinishedAt = now()
	obs.Completed(session)
	log.Info("session complete", "id", session.ID, "elapsed", session.FinishedAt.Sub(session.StartedAt))
	return session, nil
}
