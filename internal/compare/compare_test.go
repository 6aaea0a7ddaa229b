package compare

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/lhmedian/internal/metrics"
	"github.com/mwiater/lhmedian/internal/report"
)

func TestPercentDiff(t *testing.T) {
	tests := []struct {
		before, after, want float64
	}{
		{0, 0, 0},
		{0, 500, 100},
		{0, -3, 100},
		{2000, 1500, -25},
		{70, 85, 21.428571428571427},
		{100, 100, 0},
	}
	for _, tt := range tests {
		if got := PercentDiff(tt.before, tt.after); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PercentDiff(%v, %v) = %v; want %v", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestBuild_DirectionsAndOrder(t *testing.T) {
	before := metrics.Record{Run: 1, Score: 70, FCP: 2000, LCP: 3000, TBT: 100}
	after := metrics.Record{Run: 4, Score: 85, FCP: 1500, LCP: 3300, TBT: 100}

	c := Build(before, after, "")
	if c.Title != Title || c.Caption != DefaultCaption {
		t.Fatalf("unexpected title/caption %q / %q", c.Title, c.Caption)
	}

	want := []struct {
		label  string
		change string
		dir    Direction
	}{
		{"FCP", "-25.00", Improved},
		{"LCP", "10.00", Regressed},
		{"TBT", "0.00", Unchanged},
		{"CLS", "0.00", Unchanged},
		{"SI", "0.00", Unchanged},
		{"SCORE", "21.43", Improved},
	}
	if len(c.Rows) != len(want) {
		t.Fatalf("got %d rows", len(c.Rows))
	}
	for i, w := range want {
		r := c.Rows[i]
		if r.Label != w.label || two(r.Change) != w.change || r.Direction != w.dir {
			t.Errorf("row %d = %s %s %v; want %s %s %v", i, r.Label, two(r.Change), r.Direction, w.label, w.change, w.dir)
		}
	}
}

func TestClassify_ScoreDropIsRegression(t *testing.T) {
	if d := Classify(metrics.Score, -5); d != Regressed {
		t.Fatalf("score drop classified as %v", d)
	}
	if d := Classify(metrics.CLS, 12); d != Regressed {
		t.Fatalf("cls rise classified as %v", d)
	}
	if d := Classify(metrics.SI, -0.1); d != Improved {
		t.Fatalf("si drop classified as %v", d)
	}
}

func TestRenderHTML(t *testing.T) {
	c := Build(metrics.Record{Score: 70, FCP: 2000}, metrics.Record{Score: 85, FCP: 1500}, "<b>release 2</b>")
	var buf bytes.Buffer
	if err := RenderHTML(&buf, c); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Median Comparison Table</title>",
		"<h1>Lighthouse Performance Comparison</h1>",
		"&lt;b&gt;release 2&lt;/b&gt;",
		`<td>FCP</td><td>2000.00</td><td>1500.00</td><td class="improved" style="color:green">-25.00%</td>`,
		`<td>SCORE</td><td>70.00</td><td>85.00</td><td class="improved" style="color:green">21.43%</td>`,
		`<td class="unchanged" style="color:black">0.00%</td>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in html:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<b>release 2</b>") {
		t.Error("caption was not escaped")
	}
}

func TestRenderMarkdownAndTerminal(t *testing.T) {
	c := Build(metrics.Record{Score: 90, LCP: 2000}, metrics.Record{Score: 80, LCP: 2000}, "nightly")

	md := RenderMarkdown(c)
	for _, want := range []string{"# Lighthouse Performance Comparison", "nightly", "| SCORE |", "-11.11% ▼"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}

	term := RenderTerminal(c)
	for _, want := range []string{"Lighthouse Performance Comparison", "SCORE", "-11.11%", "2000.00"} {
		if !strings.Contains(term, want) {
			t.Errorf("expected %q in terminal output:\n%s", want, term)
		}
	}
}

func writeExport(t *testing.T, dir, name string, recs []metrics.AnnotatedRecord) string {
	t.Helper()
	b, err := report.MarshalStructured(recs)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMedians(t *testing.T) {
	dir := t.TempDir()
	pre := writeExport(t, dir, "pre.json", []metrics.AnnotatedRecord{
		{Record: metrics.Record{Run: 1, Score: 60}},
		{Record: metrics.Record{Run: 2, Score: 70, FCP: 2000}, IsMedian: true},
		{Record: metrics.Record{Run: 3, Score: 80}},
	})
	post := writeExport(t, dir, "post.json", []metrics.AnnotatedRecord{
		{Record: metrics.Record{Run: 1, Score: 85, FCP: 1500}, IsMedian: true},
	})
	none := writeExport(t, dir, "none.json", []metrics.AnnotatedRecord{
		{Record: metrics.Record{Run: 1, Score: 70}},
		{Record: metrics.Record{Run: 2, Score: 80}},
	})

	b, a, err := LoadMedians(pre, post)
	if err != nil {
		t.Fatalf("LoadMedians: %v", err)
	}
	if b.Run != 2 || b.FCP != 2000 || a.Score != 85 {
		t.Fatalf("unexpected medians %+v / %+v", b, a)
	}

	_, _, err = LoadMedians(pre, none)
	var ie *report.InputError
	if !errors.As(err, &ie) || ie.Path != none || !errors.Is(err, report.ErrNoMedian) {
		t.Fatalf("expected InputError for %s, got %v", none, err)
	}
}
