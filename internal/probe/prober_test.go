package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

func TestHTTPProber_OnlineWithContent(t *testing.T) {
	var gotUA string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(200)
		w.Write([]byte("#EXTM3U"))
	}))
	defer s.Close()

	p := NewHTTPProber(2*time.Second, 3, 0)
	out := p.Probe(context.Background(), domain.Endpoint{Name: "A", URL: s.URL})
	if out.Outcome != domain.OutcomeOnline {
		t.Fatalf("want online, got %+v", out)
	}
	if out.ResponseTime == nil || *out.ResponseTime < 0 {
		t.Fatalf("want response time on success, got %v", out.ResponseTime)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Fatalf("fixed headers not sent, ua=%q", gotUA)
	}
}

func TestHTTPProber_EmptyBodyIsNoContent(t *testing.T) {
	var hits int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(200)
	}))
	defer s.Close()

	p := NewHTTPProber(2*time.Second, 3, 0)
	out := p.Probe(context.Background(), domain.Endpoint{Name: "A", URL: s.URL})
	if out.Outcome != domain.OutcomeOfflineNoContent {
		t.Fatalf("want no content, got %+v", out)
	}
	if out.ResponseTime != nil {
		t.Fatalf("response time must only be reported on success")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("empty body must not be retried, got %d requests", n)
	}
}

func TestHTTPProber_TimeoutClassified(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer s.Close()

	p := NewHTTPProber(50*time.Millisecond, 2, 0)
	out := p.Probe(context.Background(), domain.Endpoint{Name: "A", URL: s.URL})
	if out.Outcome != domain.OutcomeOfflineTimeout {
		t.Fatalf("want timeout, got %+v", out)
	}
	if strings.Contains(out.Detail, s.URL) {
		t.Fatalf("detail leaks url: %q", out.Detail)
	}
}

// flakyTransport refuses the first n requests, then serves a body.
type flakyTransport struct {
	fail  int
	calls int
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, syscall.ECONNREFUSED
	}
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader("payload")),
		Header:     http.Header{},
		Request:    r,
	}, nil
}

func TestHTTPProber_SucceedsOnThirdAttempt(t *testing.T) {
	tr := &flakyTransport{fail: 2}
	p := NewHTTPProber(time.Second, 3, time.Millisecond)
	p.Client.Transport = tr

	out := p.Probe(context.Background(), domain.Endpoint{Name: "Server-A", URL: "http://server-a.test/live"})
	if out.Outcome != domain.OutcomeOnline {
		t.Fatalf("want online after retries, got %+v", out)
	}
	if tr.calls != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", tr.calls)
	}
}

func TestHTTPProber_StopsAfterAttempts(t *testing.T) {
	tr := &flakyTransport{fail: 10}
	p := NewHTTPProber(time.Second, 3, 0)
	p.Client.Transport = tr

	out := p.Probe(context.Background(), domain.Endpoint{Name: "A", URL: "http://a.test"})
	if out.Outcome != domain.OutcomeOfflineOther {
		t.Fatalf("want offline other, got %+v", out)
	}
	if tr.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", tr.calls)
	}
	if !strings.Contains(out.Detail, "connection refused") {
		t.Fatalf("want refusal in detail, got %q", out.Detail)
	}
}

func TestHTTPProber_CancelledIsUnknown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewHTTPProber(time.Second, 3, 0)
	out := p.Probe(ctx, domain.Endpoint{Name: "A", URL: "http://a.test"})
	if out.Outcome != domain.OutcomeUnknown {
		t.Fatalf("want unknown when cancelled, got %+v", out)
	}
}

func TestReadChunk(t *testing.T) {
	if readChunk(strings.NewReader(""), 16) {
		t.Fatal("empty reader must not count as content")
	}
	if !readChunk(strings.NewReader("x"), 16) {
		t.Fatal("single byte is content")
	}
	if readChunk(errReader{}, 16) {
		t.Fatal("read error must not count as content")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("corrupt") }
