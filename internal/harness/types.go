// internal/harness/types.go
// Package: harness
package harness

import (
	"errors"
	"fmt"

	"github.com/mwiater/lhmedian/internal/metrics"
)

var (
	// ErrMissingURL is returned when no target URL was given.
	ErrMissingURL = errors.New("url is required")
	// ErrInvalidRunCount is returned for a run count below 1.
	ErrInvalidRunCount = errors.New("run count must be at least 1")
)

// RunError reports the run that aborted a session.
type RunError struct {
	Run int
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %d: %v", e.Run, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Progress is reported after every successful run.
type Progress struct {
	Run   int // 1-based index of the run that just finished
	Total int
	// Percent is round((Run-1)/Total*100): the share done before this run.
	Percent int
	Record  metrics.Record
	// Path is where the run artifact was stored.
	Path string
}

// Observer receives session progress. Calls happen on the goroutine that
// called Runner.Run, one at a time.
type Observer interface {
	// RunStarted is called before run i of n starts.
	RunStarted(run, total, percent int)
	// RunFinished is called after a run's record and artifact are stored.
	RunFinished(p Progress)
	// Completed is called once every run has succeeded.
	Completed(s *metrics.Session)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) RunStarted(int, int, int)   {}
func (NopObserver) RunFinished(Progress)       {}
func (NopObserver) Completed(*metrics.Session) {}

// Store is the session area the runner writes to.
type Store interface {
	Reset() error
	WriteRun(run int, ext string, data []byte) (string, error)
}

// Percent returns round(done/total*100), halves rounded up.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (done*200 + total) / (total * 2)
}
