package format_test

import (
	"strings"
	"testing"

	"github.com/mwiater/lhmedian/internal/format"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Run", "FCP", "Score")
	tb.Row(1, "1.2", 91)
	tb.Row(2, "1.3", 88.5)
	out := tb.String()

	for _, want := range []string{"Run", "FCP", "1.2", "88.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII mode:\n%s", out)
	}
}

func TestMarkdown_PipeSyntax(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Metric", "Before", "After")
	tb.Row("FCP", "2000.00", "1500.00")
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	out := tb.String()

	if !strings.Contains(out, "| Metric | Before | After |") {
		t.Errorf("expected markdown header row, got:\n%s", out)
	}
	if !strings.Contains(out, "| FCP |") {
		t.Errorf("expected markdown data row, got:\n%s", out)
	}
}
