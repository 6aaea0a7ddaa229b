// internal/cli/observer.go
package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/lhmedian/internal/harness"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/report"
)

// sender is the part of *tea.Program the observer needs.
type sender interface {
	Send(msg tea.Msg)
}

// TeaObserver forwards harness notifications to a running Bubble Tea program.
type TeaObserver struct {
	program sender
}

// NewTeaObserver returns an observer sending to p.
func NewTeaObserver(p *tea.Program) *TeaObserver {
	return &TeaObserver{program: p}
}

func (o *TeaObserver) RunStarted(run, total, percent int) {
	o.program.Send(runStartedMsg{run: run, total: total, percent: percent})
}

func (o *TeaObserver) RunFinished(p harness.Progress) {
	o.program.Send(runFinishedMsg{progress: p})
}

func (o *TeaObserver) Completed(s *metrics.Session) {
	o.program.Send(sessionDoneMsg{session: s})
}

// PlainObserver prints progress lines, for pipes and --tui=false.
type PlainObserver struct {
	W io.Writer
}

func (o PlainObserver) RunStarted(run, total, percent int) {
	fmt.Fprintf(o.W, "Running: %d%% (Run %d of %d)\n", percent, run, total)
}

func (o PlainObserver) RunFinished(p harness.Progress) {
	r := p.Record
	fmt.Fprintf(o.W, "Run %d: fcp=%s lcp=%s tbt=%s cls=%s si=%s score=%s\n",
		p.Run,
		report.FormatScore(r.FCP),
		report.FormatScore(r.LCP),
		report.FormatScore(r.TBT),
		report.FormatScore(r.CLS),
		report.FormatScore(r.SI),
		report.FormatScore(r.Score),
	)
}

func (o PlainObserver) Completed(*metrics.Session) {
	fmt.Fprintln(o.W, "Running: 100% (All runs complete)")
}

// RunArgs are the per-session inputs of the harness.
type RunArgs struct {
	URL    string
	Runs   int
	Cookie string
}

// newProgram is replaced in tests.
var newProgram = func(m tea.Model, out io.Writer) *tea.Program {
	return tea.NewProgram(m, tea.WithOutput(out))
}

// RunWithProgress runs the session, showing a Bubble Tea progress view when
// useTUI is set and plain lines otherwise. The runner's observer is
// replaced.
func RunWithProgress(ctx context.Context, runner *harness.Runner, args RunArgs, useTUI bool, out io.Writer) (*metrics.Session, error) {
	if !useTUI {
		runner.Observer = PlainObserver{W: out}
		return runner.Run(ctx, args.URL, args.Runs, args.Cookie)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgressModel(args.URL, cancel)
	p := newProgram(m, out)
	runner.Observer = NewTeaObserver(p)

	type result struct {
		session *metrics.Session
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := runner.Run(ctx, args.URL, args.Runs, args.Cookie)
		if err != nil {
			p.Send(sessionErrMsg{err: err})
		}
		done <- result{session: s, err: err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	res := <-done
	return res.session, res.err
}
