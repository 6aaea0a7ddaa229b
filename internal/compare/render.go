// internal/compare/render.go
// Package: compare
package compare

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/lhmedian/internal/format"
)

//go:embed comparison.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("comparison").Funcs(template.FuncMap{
	"two": two,
}).Parse(htmlSource))

// RenderHTML writes a standalone HTML page for c.
func RenderHTML(w io.Writer, c Comparison) error {
	if err := htmlTemplate.Execute(w, c); err != nil {
		return fmt.Errorf("render comparison html: %w", err)
	}
	return nil
}

func marker(d Direction) string {
	switch d {
	case Improved:
		return "▲"
	case Regressed:
		return "▼"
	default:
		return ""
	}
}

// RenderMarkdown renders c as a Markdown document.
func RenderMarkdown(c Comparison) string {
	tb := format.NewTable(format.Markdown)
	tb.Header("Metric", "Before", "After", "% Change")
	tb.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	for _, r := range c.Rows {
		change := two(r.Change) + "%"
		if m := marker(r.Direction); m != "" {
			change += " " + m
		}
		tb.Row(r.Label, two(r.Before), two(r.After), change)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", c.Title, c.Caption)
	b.WriteString(tb.String())
	b.WriteString("\n")
	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	captionStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle     = lipgloss.NewStyle().Width(8)
	numberStyle    = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	improvedStyle  = numberStyle.Foreground(lipgloss.Color("2"))
	regressedStyle = numberStyle.Foreground(lipgloss.Color("1"))
)

func changeStyle(d Direction) lipgloss.Style {
	switch d {
	case Improved:
		return improvedStyle
	case Regressed:
		return regressedStyle
	default:
		return numberStyle
	}
}

// RenderTerminal renders c with colours for a terminal.
func RenderTerminal(c Comparison) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title) + "\n")
	b.WriteString(captionStyle.Render(c.Caption) + "\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Inherit(headerStyle).Render("Metric"),
		numberStyle.Inherit(headerStyle).Render("Before"),
		numberStyle.Inherit(headerStyle).Render("After"),
		numberStyle.Inherit(headerStyle).Render("% Change"),
	) + "\n")
	for _, r := range c.Rows {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(r.Label),
			numberStyle.Render(two(r.Before)),
			numberStyle.Render(two(r.After)),
			changeStyle(r.Direction).Render(two(r.Change)+"%"),
		) + "\n")
	}
	return b.String()
}
