// internal/provider/browser/scoring.go
// Package: browser
package browser

import (
	"fmt"
	"math"
	"strings"

	"github.com/mwiater/lhmedian/internal/metrics"
)

// FormFactor selects the scoring curves.
type FormFactor string

const (
	Mobile  FormFactor = "mobile"
	Desktop FormFactor = "desktop"
)

// ParseFormFactor accepts "mobile" (or empty) and "desktop".
func ParseFormFactor(s string) (FormFactor, error) {
	switch FormFactor(strings.ToLower(strings.TrimSpace(s))) {
	case "", Mobile:
		return Mobile, nil
	case Desktop:
		return Desktop, nil
	default:
		return "", fmt.Errorf("unknown form factor %q (want mobile or desktop)", s)
	}
}

// Curve is a log-normal scoring curve: a value of P10 scores 0.9 and a value
// of Median scores 0.5.
type Curve struct {
	P10    float64
	Median float64
}

// Weighted pairs a curve with its share of the overall score.
type Weighted struct {
	Curve  Curve
	Weight float64
}

var curves = map[FormFactor]map[metrics.Metric]Weighted{
	Mobile: {
		metrics.FCP: {Curve{P10: 1800, Median: 3000}, 0.10},
		metrics.SI:  {Curve{P10: 3387, Median: 5800}, 0.10},
		metrics.LCP: {Curve{P10: 2500, Median: 4000}, 0.25},
		metrics.TBT: {Curve{P10: 200, Median: 600}, 0.30},
		metrics.CLS: {Curve{P10: 0.1, Median: 0.25}, 0.25},
	},
	Desktop: {
		metrics.FCP: {Curve{P10: 934, Median: 1600}, 0.10},
		metrics.SI:  {Curve{P10: 1311, Median: 2300}, 0.10},
		metrics.LCP: {Curve{P10: 1200, Median: 2400}, 0.25},
		metrics.TBT: {Curve{P10: 150, Median: 350}, 0.30},
		metrics.CLS: {Curve{P10: 0.1, Median: 0.25}, 0.25},
	},
}

// inverseErfcOneFifth is erfc⁻¹(0.2): it puts P10 at the 0.9 mark.
const inverseErfcOneFifth = 0.9061938024368232

// Score returns the 0..1 score of value on c.
func (c Curve) Score(value float64) float64 {
	if value <= 0 {
		return 1
	}
	xLogRatio := math.Log(math.Max(math.SmallestNonzeroFloat64, value/c.Median))
	p10LogRatio := -math.Log(math.Max(math.SmallestNonzeroFloat64, c.P10/c.Median))
	standardized := xLogRatio * inverseErfcOneFifth / p10LogRatio
	complementary := (1 - math.Erf(standardized)) / 2

	// Keep each band on its side of the control points despite rounding.
	switch {
	case value <= c.P10:
		return math.Max(0.9, math.Min(1, complementary))
	case value <= c.Median:
		return math.Max(0.5, math.Min(0.8999999999999999, complementary))
	default:
		return math.Max(0, math.Min(0.49999999999999994, complementary))
	}
}

func round2(v float64) float64 { return math.Floor(v*100+0.5) / 100 }

// PerformanceScore combines the metric scores into a 0..100 score.
func PerformanceScore(r metrics.Record, ff FormFactor) float64 {
	table, ok := curves[ff]
	if !ok {
		table = curves[Mobile]
	}
	var sum, weights float64
	for _, m := range metrics.All {
		w, ok := table[m]
		if !ok {
			continue
		}
		sum += round2(w.Curve.Score(m.Value(r))) * w.Weight
		weights += w.Weight
	}
	if weights == 0 {
		return 0
	}
	return math.Round(round2(sum/weights) * 100)
}
