package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mwiater/lhmedian/internal/metrics"
)

func TestFunc_Measure(t *testing.T) {
	p := Func{ID: "fake", Fn: func(_ context.Context, req Request) (Result, error) {
		return Result{Record: metrics.Record{Run: req.Run, Score: 90}}, nil
	}}
	res, err := p.Measure(context.Background(), Request{URL: "https://example.com", Run: 4})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "fake" || res.Record.Run != 4 {
		t.Fatalf("unexpected result %+v from %s", res, p.Name())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("Lighthouse", func() (Provider, error) { return Func{ID: "lighthouse"}, nil })
	r.Register("chromedp", func() (Provider, error) { return nil, errors.New("no chrome") })

	if diff := cmp.Diff([]string{"chromedp", "lighthouse"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	p, err := r.Get("LIGHTHOUSE")
	if err != nil || p.Name() != "lighthouse" {
		t.Fatalf("Get: %v, %v", p, err)
	}
	if _, err := r.Get("chromedp"); err == nil {
		t.Fatal("expected factory error")
	}
	if _, err := r.Get("webpagetest"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestParseMissingScorePolicy(t *testing.T) {
	for in, want := range map[string]MissingScorePolicy{"": MissingScoreError, "error": MissingScoreError, "Zero": MissingScoreZero} {
		got, err := ParseMissingScorePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMissingScorePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMissingScorePolicy("skip"); err == nil {
		t.Fatal("expected error")
	}
}
