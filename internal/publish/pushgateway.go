// internal/publish/pushgateway.go
// Package: publish
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/mwiater/lhmedian/internal/metrics"
)

// Pushgateway pushes the median run as gauges, grouped by URL.
type Pushgateway struct {
	URL    string
	Job    string
	Client *http.Client
}

func (p *Pushgateway) Name() string { return "pushgateway" }

// Collectors builds one gauge per metric for the median record plus the
// run count.
func Collectors(s SessionSummary) (*prometheus.Registry, error) {
	if s.Median == nil {
		return nil, errors.New("session has no median run")
	}
	reg := prometheus.NewRegistry()
	for _, m := range metrics.All {
		help := fmt.Sprintf("%s of the median run.", m.Label())
		if u := m.Unit(); u != "" {
			help = fmt.Sprintf("%s of the median run in %s.", m.Label(), u)
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lhmedian_median_" + m.String(),
			Help: help,
		})
		g.Set(m.Value(s.Median.Record))
		if err := reg.Register(g); err != nil {
			return nil, err
		}
	}
	runs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lhmedian_runs",
		Help: "Number of runs in the session.",
	})
	runs.Set(float64(s.Runs))
	if err := reg.Register(runs); err != nil {
		return nil, err
	}
	return reg, nil
}

// Publish replaces the metrics of this job and URL on the gateway.
func (p *Pushgateway) Publish(ctx context.Context, s SessionSummary) error {
	reg, err := Collectors(s)
	if err != nil {
		return err
	}
	job := p.Job
	if job == "" {
		job = "lhmedian"
	}
	pusher := push.New(p.URL, job).Gatherer(reg).Grouping("url", s.URL)
	if p.Client != nil {
		pusher = pusher.Client(p.Client)
	}
	return pusher.PushContext(ctx)
}
