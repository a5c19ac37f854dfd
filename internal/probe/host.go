package probe

import (
	"net/url"
	"strings"
)

// Host pulls the bare hostname (no port) out of an endpoint URL so it can be
// pinged. Scheme-less input like "example.com/path" is accepted.
func Host(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
