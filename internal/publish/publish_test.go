package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
)

func summary(t *testing.T) SessionSummary {
	t.Helper()
	dir := t.TempDir()
	files := []string{"site-1.html", "site.csv", "site.json"}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("data:"+f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return SessionSummary{
		ID:       "b8f0b8a4-3f0e-4a57-9c3e-5d55d1f8a0e2",
		Name:     "site",
		URL:      "https://example.com/pricing",
		Provider: "lighthouse",
		Runs:     1,
		Median: &metrics.AnnotatedRecord{
			Record:   metrics.Record{Run: 1, FCP: 1200, LCP: 2100, TBT: 90, CLS: 0.02, SI: 1800, Score: 91},
			IsMedian: true,
		},
		Dir:   dir,
		Files: files,
	}
}

type fakePutter struct {
	mu   sync.Mutex
	keys map[string]string
	fail string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if *in.Key == f.fail {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[*in.Bucket+"/"+*in.Key] = string(body) + "|" + *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Publish(t *testing.T) {
	fp := &fakePutter{keys: map[string]string{}}
	u := newS3Uploader(fp, S3Config{Bucket: "perf", Prefix: "/lighthouse/", Concurrency: 2})

	if err := u.Publish(context.Background(), summary(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := map[string]string{
		"perf/lighthouse/site/site-1.html": "data:site-1.html|text/html; charset=utf-8",
		"perf/lighthouse/site/site.csv":    "data:site.csv|text/csv; charset=utf-8",
		"perf/lighthouse/site/site.json":   "data:site.json|application/json",
	}
	if diff := cmp.Diff(want, fp.keys); diff != "" {
		t.Fatalf("uploads mismatch (-want +got):\n%s", diff)
	}
}

func TestS3Uploader_PublishError(t *testing.T) {
	fp := &fakePutter{keys: map[string]string{}, fail: "site/site.csv"}
	u := newS3Uploader(fp, S3Config{Bucket: "perf"})
	err := u.Publish(context.Background(), summary(t))
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestPushgateway_Publish(t *testing.T) {
	var (
		method, path string
		body         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &Pushgateway{URL: srv.URL, Job: "perf"}
	if err := p.Publish(context.Background(), summary(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("method = %s; want PUT", method)
	}
	if !strings.HasPrefix(path, "/metrics/job/perf/url") {
		t.Fatalf("unexpected push path %q", path)
	}
	for _, name := range []string{"lhmedian_median_fcp", "lhmedian_median_score", "lhmedian_runs"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("pushed body lacks %s", name)
		}
	}
}

func TestCollectors_RequiresMedian(t *testing.T) {
	s := summary(t)
	s.Median = nil
	if _, err := Collectors(s); err == nil {
		t.Fatal("expected error without median")
	}
}

type fakeConn struct {
	subject string
	data    []byte
	flushed bool
	closed  bool
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	c.subject, c.data = subj, data
	return nil
}

func (c *fakeConn) FlushTimeout(time.Duration) error {
	c.flushed = true
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

type fakeStream struct{ subject string }

func (s *fakeStream) Publish(subj string, _ []byte, _ ...nats.PubOpt) (*nats.PubAck, error) {
	s.subject = subj
	return &nats.PubAck{Stream: "LHMEDIAN", Sequence: 1}, nil
}

func TestNATSNotifier_Publish(t *testing.T) {
	conn := &fakeConn{}
	n := &NATSNotifier{conn: conn, subject: "lhmedian.sessions"}
	s := summary(t)

	if err := n.Publish(context.Background(), s); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if conn.subject != "lhmedian.sessions" || !conn.flushed {
		t.Fatalf("unexpected publish state %+v", conn)
	}
	var got SessionSummary
	if err := json.Unmarshal(conn.data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID || got.Median == nil || got.Median.Score != 91 {
		t.Fatalf("unexpected payload %+v", got)
	}

	js := &fakeStream{}
	jn := &NATSNotifier{conn: &fakeConn{}, js: js, subject: "lhmedian.sessions"}
	if err := jn.Publish(context.Background(), s); err != nil || js.subject != "lhmedian.sessions" {
		t.Fatalf("jetstream publish: %v subject=%q", err, js.subject)
	}

	_ = n.Close()
	if !conn.closed {
		t.Fatal("Close should close the connection")
	}
}

func TestConnectState(t *testing.T) {
	tests := []struct {
		status nats.Status
		want   string
	}{
		{nats.CONNECTED, "Connected to NATS"},
		{nats.RECONNECTING, "NATS not reachable yet, retrying in background"},
		{nats.CLOSED, ""},
	}
	for _, tt := range tests {
		if got := connectState(tt.status); got != tt.want {
			t.Errorf("connectState(%v) = %q; want %q", tt.status, got, tt.want)
		}
	}
}

// lockedBuffer is written by NATS callbacks on their own goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewNATSNotifier_UnreachableServer(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)
	buf := &lockedBuffer{}
	logging.Init(slog.LevelInfo, "text", buf)

	n, err := NewNATSNotifier(NATSConfig{URL: "nats://127.0.0.1:1", Subject: "lhmedian.sessions"})
	if err != nil {
		t.Fatalf("NewNATSNotifier: %v", err)
	}
	defer n.Close()

	out := buf.String()
	if strings.Contains(out, "Connected to NATS") {
		t.Fatalf("reported a connection that does not exist:\n%s", out)
	}
	if !strings.Contains(out, "retrying in background") {
		t.Fatalf("pending connection not reported:\n%s", out)
	}
}

type stubPublisher struct {
	name  string
	err   error
	calls *[]string
}

func (s stubPublisher) Name() string { return s.name }

func (s stubPublisher) Publish(context.Context, SessionSummary) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestAll_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	pubs := []Publisher{
		stubPublisher{name: "a", calls: &calls},
		stubPublisher{name: "b", err: errors.New("boom"), calls: &calls},
		stubPublisher{name: "c", calls: &calls},
	}
	err := All(context.Background(), pubs, SessionSummary{})
	if err == nil || !strings.Contains(err.Error(), "publish b") {
		t.Fatalf("expected failure from b, got %v", err)
	}
	if !slices.Equal(calls, []string{"a", "b"}) {
		t.Fatalf("calls = %v", calls)
	}
}
