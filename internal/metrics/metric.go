package metrics

import "strings"

// Metric names one of the comparable fields of a Record.
type Metric string

const (
	FCP   Metric = "fcp"
	LCP   Metric = "lcp"
	TBT   Metric = "tbt"
	CLS   Metric = "cls"
	SI    Metric = "si"
	Score Metric = "score"
)

// All lists the metrics in report order.
var All = []Metric{FCP, LCP, TBT, CLS, SI, Score}

// Value extracts the metric from r.
func (m Metric) Value(r Record) float64 {
	switch m {
	case FCP:
		return r.FCP
	case LCP:
		return r.LCP
	case TBT:
		return r.TBT
	case CLS:
		return r.CLS
	case SI:
		return r.SI
	case Score:
		return r.Score
	default:
		return 0
	}
}

// Label is the upper-cased display name.
func (m Metric) Label() string { return strings.ToUpper(string(m)) }

// HigherIsBetter is true only for the score; every timing and CLS improves
// when it goes down.
func (m Metric) HigherIsBetter() bool { return m == Score }

// Unit returns "ms" for timings and "" for unitless metrics.
func (m Metric) Unit() string {
	switch m {
	case FCP, LCP, TBT, SI:
		return "ms"
	default:
		return ""
	}
}

func (m Metric) String() string { return string(m) }
