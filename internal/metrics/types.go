// internal/metrics/types.go
// Package: metrics
package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Record captures the metrics of a single completed audit run.
type Record struct {
	Run int `json:"run"` // 1-based index within the session

	// Timings in milliseconds
	FCP float64 `json:"fcp"` // first contentful paint
	LCP float64 `json:"lcp"` // largest contentful paint
	TBT float64 `json:"tbt"` // total blocking time
	CLS float64 `json:"cls"` // cumulative layout shift (unitless)
	SI  float64 `json:"si"`  // speed index

	// Overall performance score, 0..100
	Score float64 `json:"score"`
}

// AnnotatedRecord is a Record plus the median flag added after a session
// completes. The embedded Record is flattened in JSON.
type AnnotatedRecord struct {
	Record
	IsMedian bool `json:"isMedian"`
}

// Session is the ordered set of runs produced by one orchestration.
type Session struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	RunCount   int       `json:"run_count"`
	Provider   string    `json:"provider"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    []Record  `json:"records"`
}

// ErrInvalidRecord is wrapped by every Validate failure.
var ErrInvalidRecord = errors.New("invalid metrics record")

// Validate reports whether r is a fully populated record.
func (r Record) Validate() error {
	if r.Run < 1 {
		return fmt.Errorf("%w: run %d must be >= 1", ErrInvalidRecord, r.Run)
	}
	for _, m := range All {
		v := m.Value(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: run %d: %s is not a finite number", ErrInvalidRecord, r.Run, m)
		}
		if v < 0 {
			return fmt.Errorf("%w: run %d: %s is negative (%v)", ErrInvalidRecord, r.Run, m, v)
		}
	}
	if r.Score > 100 {
		return fmt.Errorf("%w: run %d: score %v exceeds 100", ErrInvalidRecord, r.Run, r.Score)
	}
	return nil
}

// Scores returns the score of every record, in order.
func Scores(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Score
	}
	return out
}
