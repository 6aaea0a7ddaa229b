// internal/publish/publish.go
// Package: publish
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
)

// SessionSummary is what publishers receive once a session's files exist.
type SessionSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Provider   string    `json:"provider"`
	Runs       int       `json:"runs"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Median is nil when no run matched the median score.
	Median *metrics.AnnotatedRecord `json:"median,omitempty"`
	Dir    string                   `json:"dir"`
	Files  []string                 `json:"files"`
}

// Publisher ships a finished session somewhere outside the reports dir.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s SessionSummary) error
}

// All runs every publisher in order and stops at the first failure.
func All(ctx context.Context, pubs []Publisher, s SessionSummary) error {
	log := logging.New("publish")
	for _, p := range pubs {
		start := time.Now()
		if err := p.Publish(ctx, s); err != nil {
			return fmt.Errorf("publish %s: %w", p.Name(), err)
		}
		log.Info("published", "sink", p.Name(), "session", s.ID, "elapsed", time.Since(start))
	}
	return nil
}
