package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/metrics"
)

type memWriter map[string][]byte

func (m memWriter) WriteFile(name string, data []byte) error {
	m[name] = append([]byte(nil), data...)
	return nil
}

type failWriter struct{}

func (failWriter) WriteFile(string, []byte) error { return errors.New("disk full") }

func sample() []metrics.AnnotatedRecord {
	return []metrics.AnnotatedRecord{
		{Record: metrics.Record{Run: 1, FCP: 1234.5, LCP: 2000, TBT: 0, CLS: 0.0126, SI: 1750, Score: 85}, IsMedian: true},
		{Record: metrics.Record{Run: 2, FCP: 980, LCP: 2450, TBT: 123.6, CLS: 0, SI: 3000, Score: 72.5}},
	}
}

func TestExport_CSVAndTXT(t *testing.T) {
	a, err := NewExporter(DefaultOptions()).Export(sample())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	wantCSV := "Run,FCP,LCP,TBT,CLS,SI,Score,isMedian\n" +
		"1,1.2,2,0,0.013,1.8,85,true\n" +
		"2,1,2.5,124,0,3,72.5,false"
	if diff := cmp.Diff(wantCSV, string(a.CSV)); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}

	wantTXT := strings.ReplaceAll(wantCSV, ",", "\t")
	if diff := cmp.Diff(wantTXT, string(a.TXT)); diff != "" {
		t.Fatalf("txt mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_FixedStyleWithoutMedianColumn(t *testing.T) {
	a, err := NewExporter(Options{Style: StyleFixed}).Export(sample())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(string(a.CSV), "\n")
	if lines[0] != "Run,FCP,LCP,TBT,CLS,SI,Score" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "2,1.0,2.5,124,0.000,3.0,72.5" {
		t.Fatalf("unexpected row %q", lines[2])
	}
	// JSON keeps the flag regardless of the delimited column.
	if !strings.Contains(string(a.JSON), `"isMedian": true`) {
		t.Fatalf("json lost isMedian:\n%s", a.JSON)
	}
}

func TestExport_JSONRoundTrip(t *testing.T) {
	in := sample()
	a, err := NewExporter(DefaultOptions()).Export(in)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(string(a.JSON), "[\n  {\n    \"run\": 1,") {
		t.Fatalf("json not indented by two spaces:\n%s", a.JSON)
	}
	got, err := DecodeStructured(a.JSON)
	if err != nil {
		t.Fatalf("DecodeStructured: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_StoresThreeFiles(t *testing.T) {
	w := memWriter{}
	if _, err := NewExporter(DefaultOptions()).Write(w, "site", sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, name := range []string{"site.csv", "site.txt", "site.json"} {
		if len(w[name]) == 0 {
			t.Errorf("missing %s", name)
		}
	}
}

func TestWrite_PropagatesWriterError(t *testing.T) {
	_, err := NewExporter(DefaultOptions()).Write(failWriter{}, "site", sample())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestLoadStructured_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	cases := map[string]string{
		"malformed":     write("bad.json", "{not json"),
		"missing field": write("partial.json", `[{"run":1,"fcp":1,"lcp":1,"tbt":0,"cls":0,"si":1}]`),
		"negative":      write("neg.json", `[{"run":1,"fcp":-1,"lcp":1,"tbt":0,"cls":0,"si":1,"score":50}]`),
		"two medians":   write("two.json", `[{"run":1,"fcp":1,"lcp":1,"tbt":0,"cls":0,"si":1,"score":50,"isMedian":true},{"run":2,"fcp":1,"lcp":1,"tbt":0,"cls":0,"si":1,"score":50,"isMedian":true}]`),
		"unknown field": write("extra.json", `[{"run":1,"fcp":1,"lcp":1,"tbt":0,"cls":0,"si":1,"score":50,"ttfb":3}]`),
		"missing file":  filepath.Join(dir, "nope.json"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadStructured(path)
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InputError, got %T %v", err, err)
			}
			if ie.Path != path {
				t.Fatalf("InputError.Path = %q; want %q", ie.Path, path)
			}
		})
	}
}

func TestLoadMedian(t *testing.T) {
	dir := t.TempDir()
	body, err := MarshalStructured(sample())
	if err != nil {
		t.Fatal(err)
	}
	withMedian := filepath.Join(dir, "with.json")
	if err := os.WriteFile(withMedian, body, 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMedian(withMedian)
	if err != nil {
		t.Fatalf("LoadMedian: %v", err)
	}
	if m.Run != 1 || m.Score != 85 {
		t.Fatalf("unexpected median %+v", m)
	}

	noMedian := filepath.Join(dir, "without.json")
	if err := os.WriteFile(noMedian, []byte(`[{"run":1,"fcp":1,"lcp":1,"tbt":0,"cls":0,"si":1,"score":50,"isMedian":false}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadMedian(noMedian)
	if !errors.Is(err, ErrNoMedian) {
		t.Fatalf("expected ErrNoMedian, got %v", err)
	}
}

func TestSummaryTable(t *testing.T) {
	out := NewExporter(DefaultOptions()).SummaryTable(sample(), format.Markdown)
	for _, want := range []string{"| Run |", "isMedian", "| 72.5 |", "true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
}
