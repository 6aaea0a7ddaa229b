// internal/median/median.go
// Package: median
package median

import (
	"slices"

	"github.com/mwiater/lhmedian/internal/metrics"
)

// Value returns the median of values (copy-safe). An even count yields the
// mean of the two middle values. ok is false for an empty slice.
func Value(values []float64) (median float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	cp := slices.Clone(values)
	slices.Sort(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid], true
	}
	return (cp[mid-1] + cp[mid]) / 2, true
}

// Index returns the position of the first record, in run order, whose score
// equals the median score exactly, or -1 when no score matches.
func Index(records []metrics.Record) int {
	m, ok := Value(metrics.Scores(records))
	if !ok {
		return -1
	}
	// Scores rarely move between runs, so the first exact match stands in
	// for the typical run.
	return slices.IndexFunc(records, func(r metrics.Record) bool { return r.Score == m })
}

// Annotate flags the median run. The input is left untouched and the output
// keeps its order. When the median of an even count falls between two
// scores no record is flagged; callers must handle that.
func Annotate(records []metrics.Record) []metrics.AnnotatedRecord {
	idx := Index(records)
	out := make([]metrics.AnnotatedRecord, len(records))
	for i, r := range records {
		out[i] = metrics.AnnotatedRecord{Record: r, IsMedian: i == idx}
	}
	return out
}

// Flagged returns the flagged record, if any.
func Flagged(records []metrics.AnnotatedRecord) (metrics.AnnotatedRecord, bool) {
	for _, r := range records {
		if r.IsMedian {
			return r, true
		}
	}
	return metrics.AnnotatedRecord{}, false
}
