package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.Outcome
	}{
		{"nil", nil, domain.OutcomeUnknown},
		{"cancelled", context.Canceled, domain.OutcomeUnknown},
		{"deadline", context.DeadlineExceeded, domain.OutcomeOfflineTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, domain.OutcomeOfflineTimeout},
		{"dns typed", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}}, domain.OutcomeOfflineDNS},
		{"dns text", errors.New("DNS resolution failed"), domain.OutcomeOfflineDNS},
		{"timeout text", fmt.Errorf("read: Timeout waiting for headers"), domain.OutcomeOfflineTimeout},
		{"other", errors.New("connection refused"), domain.OutcomeOfflineOther},
	}
	for _, c := range cases {
		got, _ := Classify(c.err)
		if got != c.want {
			t.Fatalf("%s: Classify=%s want %s", c.name, got, c.want)
		}
	}
}

func TestClassify_StripsURL(t *testing.T) {
	_, detail := Classify(&url.Error{Op: "Get", URL: "http://user:secret@x", Err: errors.New("connection reset")})
	if detail != "connection reset" {
		t.Fatalf("want inner error only, got %q", detail)
	}
}

func TestHost(t *testing.T) {
	cases := map[string]string{
		"http://example.com:8080/get.php?u=1": "example.com",
		"https://EXAMPLE.com/":                 "EXAMPLE.com",
		"example.com/live":                     "example.com",
		"":                                     "",
	}
	for in, want := range cases {
		if got := Host(in); got != want {
			t.Fatalf("Host(%q)=%q want %q", in, got, want)
		}
	}
}
