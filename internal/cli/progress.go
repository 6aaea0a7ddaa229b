// internal/cli/progress.go
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/harness"
	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/report"
)

// runStartedMsg is sent before a run starts.
type runStartedMsg struct {
	run, total, percent int
}

// runFinishedMsg is sent when a run's record has been stored.
type runFinishedMsg struct{ progress harness.Progress }

// sessionDoneMsg is sent once every run succeeded.
type sessionDoneMsg struct{ session *metrics.Session }

// sessionErrMsg is sent when the session aborted.
type sessionErrMsg struct{ err error }

// ProgressModel is the Bubble Tea model of a measurement session. It only
// displays what the harness reports; it never drives the runs itself.
type ProgressModel struct {
	// Target URL, shown in the header.
	url string
	// Bubble Tea spinner shown while a run is in flight.
	spinner spinner.Model
	// Progress bar, rendered statically from percent.
	bar progress.Model

	// Run currently in flight and the session size.
	run, total int
	// Share of the session completed before the current run.
	percent int
	// Records of finished runs, in order.
	results []metrics.Record
	// Set once the session completed.
	done bool
	// Set when the session aborted.
	err error

	// Renders the results table.
	exporter *report.Exporter
	// Cancels the session when the user quits early.
	cancel context.CancelFunc
	// Time the model was created.
	startedAt time.Time
	width     int
}

// NewProgressModel returns a model for a session against url. cancel may be
// nil.
func NewProgressModel(url string, cancel context.CancelFunc) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ProgressModel{
		url:       url,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		exporter:  report.NewExporter(report.Options{Style: report.StyleCompat}),
		cancel:    cancel,
		startedAt: time.Now(),
	}
}

// Init starts the spinner animation.
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update applies harness notifications and key presses.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 60)

	case runStartedMsg:
		m.run, m.total, m.percent = msg.run, msg.total, msg.percent
		return m, nil

	case runFinishedMsg:
		m.results = append(m.results, msg.progress.Record)
		return m, nil

	case sessionDoneMsg:
		m.done = true
		m.percent = 100
		if msg.session != nil {
			m.results = msg.session.Records
		}
		return m, tea.Quit

	case sessionErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// StatusLine is the single-line progress text.
func (m *ProgressModel) StatusLine() string {
	switch {
	case m.done:
		return "Running: 100% (All runs complete)"
	case m.total == 0:
		return "Preparing session..."
	default:
		return fmt.Sprintf("Running: %d%% (Run %d of %d)", m.percent, m.run, m.total)
	}
}

// View renders the results so far and the progress line.
func (m *ProgressModel) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	b.WriteString(headerStyle.Render("URL: "+m.url) + "\n\n")

	if len(m.results) > 0 {
		if !m.done {
			b.WriteString("Previous results:\n")
		}
		rows := make([]metrics.AnnotatedRecord, len(m.results))
		for i, r := range m.results {
			rows[i] = metrics.AnnotatedRecord{Record: r}
		}
		b.WriteString(m.exporter.SummaryTable(rows, format.ASCII) + "\n\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
		return b.String()
	}

	status := m.StatusLine()
	if !m.done && m.total > 0 {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(status + "\n")
	b.WriteString(m.bar.ViewAs(float64(m.percent)/100) + "\n")

	if !m.done {
		elapsed := fmt.Sprintf("%.1fs", time.Since(m.startedAt).Seconds())
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(" elapsed "+elapsed+" (q to abort)") + "\n")
	}
	return b.String()
}
