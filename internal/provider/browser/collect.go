// internal/provider/browser/collect.go
// Package: browser
package browser

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/mwiater/lhmedian/internal/metrics"
)

// collectorScript runs before any page script and buffers the paint,
// layout-shift and long-task entries in window.__lhmedian.
const collectorScript = `(() => {
  const s = { fcp: 0, lcp: [], shifts: [], longTasks: [] };
  window.__lhmedian = s;
  const observe = (type, cb) => {
    try {
      new PerformanceObserver((list) => list.getEntries().forEach(cb)).observe({ type, buffered: true });
    } catch (e) {}
  };
  observe('paint', (e) => { if (e.name === 'first-contentful-paint') s.fcp = e.startTime; });
  observe('largest-contentful-paint', (e) => { s.lcp.push({ t: e.renderTime || e.loadTime || e.startTime, size: e.size }); });
  observe('layout-shift', (e) => { if (!e.hadRecentInput) s.shifts.push({ t: e.startTime, value: e.value }); });
  observe('longtask', (e) => { s.longTasks.push({ start: e.startTime, duration: e.duration }); });
})();`

// readEntriesScript returns the buffered entries as a JSON string.
const readEntriesScript = `JSON.stringify(window.__lhmedian || null)`

// Candidate is one largest-contentful-paint entry.
type Candidate struct {
	T    float64 `json:"t"`
	Size float64 `json:"size"`
}

// Shift is one layout-shift entry without recent input.
type Shift struct {
	T     float64 `json:"t"`
	Value float64 `json:"value"`
}

// LongTask is a main-thread task of 50ms or more.
type LongTask struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Entries is what the collector script buffers during a page load.
type Entries struct {
	FCP       float64     `json:"fcp"`
	LCP       []Candidate `json:"lcp"`
	Shifts    []Shift     `json:"shifts"`
	LongTasks []LongTask  `json:"longTasks"`
}

// ParseEntries decodes the collector output.
func ParseEntries(raw string) (Entries, error) {
	var e *Entries
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entries{}, fmt.Errorf("decode collected entries: %w", err)
	}
	if e == nil {
		return Entries{}, fmt.Errorf("collector did not run")
	}
	if e.FCP <= 0 {
		return Entries{}, fmt.Errorf("page produced no first contentful paint")
	}
	return *e, nil
}

// blockingThreshold is the part of a long task that does not block.
const blockingThreshold = 50.0

// TotalBlockingTime sums the blocking part of tasks after fcp. A task that
// straddles fcp only counts from fcp on.
func TotalBlockingTime(tasks []LongTask, fcp float64) float64 {
	var tbt float64
	for _, t := range tasks {
		end := t.Start + t.Duration
		if end <= fcp {
			continue
		}
		d := t.Duration
		if t.Start < fcp {
			d = end - fcp
		}
		tbt += math.Max(0, d-blockingThreshold)
	}
	return tbt
}

// Session window limits for CLS.
const (
	shiftGap       = 1000.0
	shiftWindowMax = 5000.0
)

// CumulativeLayoutShift returns the largest session window of shifts.
func CumulativeLayoutShift(shifts []Shift) float64 {
	sorted := slices.Clone(shifts)
	slices.SortFunc(sorted, func(a, b Shift) int { return cmp.Compare(a.T, b.T) })

	var best, cur, start, prev float64
	for i, s := range sorted {
		if i == 0 || s.T-prev > shiftGap || s.T-start > shiftWindowMax {
			cur = 0
			start = s.T
		}
		cur += s.Value
		prev = s.T
		best = math.Max(best, cur)
	}
	return best
}

// LargestContentfulPaint is the time of the last, largest candidate.
func LargestContentfulPaint(candidates []Candidate, fcp float64) float64 {
	var lcp, size float64
	for _, c := range candidates {
		if c.Size >= size {
			size = c.Size
			lcp = c.T
		}
	}
	return math.Max(lcp, fcp)
}

// SpeedIndex approximates visual progress from the LCP candidates: the page
// is taken to be as complete as its largest painted element relative to the
// final one. The result is never below fcp.
func SpeedIndex(candidates []Candidate, fcp float64) float64 {
	sorted := slices.Clone(candidates)
	slices.SortFunc(sorted, func(a, b Candidate) int { return cmp.Compare(a.T, b.T) })

	var final float64
	for _, c := range sorted {
		final = math.Max(final, c.Size)
	}
	if final <= 0 {
		return fcp
	}

	var si, prevT, complete float64
	for _, c := range sorted {
		si += (1 - complete) * (c.T - prevT)
		prevT = c.T
		complete = math.Max(complete, c.Size/final)
	}
	return math.Max(si, fcp)
}

// Compute turns collected entries into a scored record.
func Compute(e Entries, ff FormFactor) metrics.Record {
	r := metrics.Record{
		FCP: e.FCP,
		LCP: LargestContentfulPaint(e.LCP, e.FCP),
		TBT: TotalBlockingTime(e.LongTasks, e.FCP),
		CLS: CumulativeLayoutShift(e.Shifts),
		SI:  SpeedIndex(e.LCP, e.FCP),
	}
	r.Score = PerformanceScore(r, ff)
	return r
}
