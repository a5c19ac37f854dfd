package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// Prober performs one bounded-retry check of an endpoint.
type Prober interface {
	Probe(ctx context.Context, ep domain.Endpoint) domain.ProbeResult
}

// DefaultHeaders mimic a desktop browser; some IPTV panels reject bare clients.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":     "*/*",
}

const (
	DefaultTimeout   = 30 * time.Second
	DefaultAttempts  = 3
	DefaultBackoff   = time.Second
	DefaultChunkSize = 1024
)

type HTTPProber struct {
	Client    *http.Client
	Headers   map[string]string
	Attempts  int
	Backoff   time.Duration
	ChunkSize int
}

func NewHTTPProber(timeout time.Duration, attempts int, backoff time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if backoff < 0 {
		backoff = 0
	}
	return &HTTPProber{
		Client:    &http.Client{Timeout: timeout},
		Headers:   DefaultHeaders,
		Attempts:  attempts,
		Backoff:   backoff,
		ChunkSize: DefaultChunkSize,
	}
}

// Probe issues a GET and reads the first chunk of the body. Request-level
// errors are retried; a response whose body yields nothing is final
// (OfflineNoContent) and is not retried. The response time covers every
// attempt, measured from before the first one.
func (p *HTTPProber) Probe(ctx context.Context, ep domain.Endpoint) domain.ProbeResult {
	res := domain.ProbeResult{EndpointName: ep.Name}
	start := time.Now()

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		resp, err := p.do(ctx, ep.URL)
		if err != nil {
			lastErr = err
			if i < attempts-1 && !sleepCtx(ctx, p.Backoff) {
				lastErr = ctx.Err()
				break
			}
			continue
		}

		ok := readChunk(resp.Body, p.ChunkSize)
		resp.Body.Close()
		res.StatusCode = resp.StatusCode
		res.ObservedAt = time.Now()
		if !ok {
			res.Outcome = domain.OutcomeOfflineNoContent
			res.Detail = "no content"
			return res
		}
		rt := time.Since(start)
		res.Outcome = domain.OutcomeOnline
		res.ResponseTime = &rt
		return res
	}

	res.ObservedAt = time.Now()
	res.Outcome, res.Detail = Classify(lastErr)
	return res
}

func (p *HTTPProber) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	return p.Client.Do(req)
}

func readChunk(body io.Reader, size int) bool {
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	n, _ := io.ReadAtLeast(body, buf, 1)
	return n > 0
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
