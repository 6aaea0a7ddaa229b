// internal/compare/compare.go
// Package: compare
package compare

import (
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/report"
)

// Title heads every comparison artifact.
const Title = "Lighthouse Performance Comparison"

// DefaultCaption is used when no description is given.
const DefaultCaption = "Median Comparison Table"

// Direction classifies a change.
type Direction int

const (
	Unchanged Direction = iota
	Improved
	Regressed
)

func (d Direction) String() string {
	switch d {
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	default:
		return "unchanged"
	}
}

// Color is the CSS colour of a direction.
func (d Direction) Color() string {
	switch d {
	case Improved:
		return "green"
	case Regressed:
		return "red"
	default:
		return "black"
	}
}

// Row is one metric of a comparison.
type Row struct {
	Metric metrics.Metric
	Label  string
	Before float64
	After  float64
	// Change is the percent difference from Before to After.
	Change    float64
	Direction Direction
}

// Comparison is the before/after view of two median runs.
type Comparison struct {
	Title   string
	Caption string
	Rows    []Row
}

// PercentDiff returns the percent change from before to after. A zero
// baseline yields 0 when after is also zero and 100 otherwise.
func PercentDiff(before, after float64) float64 {
	if before == 0 {
		if after == 0 {
			return 0
		}
		return 100
	}
	return (after - before) / before * 100
}

// Classify decides whether change is an improvement for m.
func Classify(m metrics.Metric, change float64) Direction {
	switch {
	case change == 0:
		return Unchanged
	case (change > 0) == m.HigherIsBetter():
		return Improved
	default:
		return Regressed
	}
}

// Build compares two median records metric by metric.
func Build(before, after metrics.Record, caption string) Comparison {
	if caption == "" {
		caption = DefaultCaption
	}
	c := Comparison{Title: Title, Caption: caption, Rows: make([]Row, 0, len(metrics.All))}
	for _, m := range metrics.All {
		b, a := m.Value(before), m.Value(after)
		change := PercentDiff(b, a)
		c.Rows = append(c.Rows, Row{
			Metric:    m,
			Label:     m.Label(),
			Before:    b,
			After:     a,
			Change:    change,
			Direction: Classify(m, change),
		})
	}
	return c
}

// LoadMedians loads two structured exports and returns their median
// records. A file without a flagged record is an input error.
func LoadMedians(prePath, postPath string) (before, after metrics.Record, err error) {
	pre, err := report.LoadMedian(prePath)
	if err != nil {
		return before, after, err
	}
	post, err := report.LoadMedian(postPath)
	if err != nil {
		return before, after, err
	}
	return pre.Record, post.Record, nil
}

// two formats a value with two decimals.
func two(v float64) string { return report.ToFixed(v, 2) }
