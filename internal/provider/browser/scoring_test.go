package browser

import (
	"math"
	"testing"

	"github.com/mwiater/lhmedian/internal/metrics"
)

func TestCurve_ControlPoints(t *testing.T) {
	for ff, table := range curves {
		for m, w := range table {
			c := w.Curve
			if got := c.Score(c.Median); got != 0.5 {
				t.Errorf("%s/%s: score at median = %v; want 0.5", ff, m, got)
			}
			if got := c.Score(c.P10); got < 0.9 || got-0.9 > 1e-9 {
				t.Errorf("%s/%s: score at p10 = %v; want 0.9", ff, m, got)
			}
			if got := c.Score(0); got != 1 {
				t.Errorf("%s/%s: score at zero = %v; want 1", ff, m, got)
			}
			if got := c.Score(c.Median * 10); got >= 0.5 || got < 0 {
				t.Errorf("%s/%s: score far above median = %v", ff, m, got)
			}
		}
	}
}

func TestCurve_Monotonic(t *testing.T) {
	c := curves[Mobile][metrics.LCP].Curve
	prev := 1.0
	for v := 100.0; v <= 20000; v += 100 {
		s := c.Score(v)
		if s > prev {
			t.Fatalf("score rose from %v to %v at %v", prev, s, v)
		}
		prev = s
	}
}

func TestWeights_SumToOne(t *testing.T) {
	for ff, table := range curves {
		var sum float64
		for _, w := range table {
			sum += w.Weight
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%s weights sum to %v", ff, sum)
		}
	}
}

func TestPerformanceScore(t *testing.T) {
	perfect := metrics.Record{}
	if got := PerformanceScore(perfect, Mobile); got != 100 {
		t.Fatalf("perfect page score = %v; want 100", got)
	}

	mid := metrics.Record{FCP: 3000, SI: 5800, LCP: 4000, TBT: 600, CLS: 0.25}
	if got := PerformanceScore(mid, Mobile); got != 50 {
		t.Fatalf("median page score = %v; want 50", got)
	}

	// The same page scores worse on the stricter desktop curves.
	if d := PerformanceScore(mid, Desktop); d >= 50 {
		t.Fatalf("desktop score = %v; want < 50", d)
	}
}

func TestParseFormFactor(t *testing.T) {
	if ff, err := ParseFormFactor(""); err != nil || ff != Mobile {
		t.Fatalf("empty: %q %v", ff, err)
	}
	if ff, err := ParseFormFactor("Desktop"); err != nil || ff != Desktop {
		t.Fatalf("desktop: %q %v", ff, err)
	}
	if _, err := ParseFormFactor("tablet"); err == nil {
		t.Fatal("expected error")
	}
}
