package domain

import (
	"strings"
	"time"
	"unicode"
)

// Endpoint is a monitored server. Name is the identity.
type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ValidName reports whether name is usable as an endpoint identity. Names end
// up in alert subjects and mail headers, so control characters are refused.
func ValidName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return strings.IndexFunc(name, unicode.IsControl) < 0
}

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeOnline
	OutcomeOfflineNoContent
	OutcomeOfflineTimeout
	OutcomeOfflineDNS
	OutcomeOfflineOther
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOnline:
		return "online"
	case OutcomeOfflineNoContent:
		return "offline_no_content"
	case OutcomeOfflineTimeout:
		return "offline_timeout"
	case OutcomeOfflineDNS:
		return "offline_dns"
	case OutcomeOfflineOther:
		return "offline_other"
	default:
		return "unknown"
	}
}

func (o Outcome) Online() bool { return o == OutcomeOnline }

func (o Outcome) Offline() bool {
	switch o {
	case OutcomeOfflineNoContent, OutcomeOfflineTimeout, OutcomeOfflineDNS, OutcomeOfflineOther:
		return true
	}
	return false
}

// Status maps the outcome onto the binary up/down axis used for transitions.
// Unknown maps to StatusUnset.
func (o Outcome) Status() Status {
	switch {
	case o.Online():
		return StatusOnline
	case o.Offline():
		return StatusOffline
	default:
		return StatusUnset
	}
}

// ProbeResult is the observation of one endpoint in one tick.
//
// ResponseTime is set only for online results; LatencyMS is nil when the
// ping was inconclusive.
type ProbeResult struct {
	EndpointName string         `json:"endpoint_name"`
	Outcome      Outcome        `json:"outcome"`
	Detail       string         `json:"detail,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	ResponseTime *time.Duration `json:"response_time,omitempty"`
	LatencyMS    *int           `json:"latency_ms,omitempty"`
	ObservedAt   time.Time      `json:"observed_at"`
}

type Status int

const (
	StatusUnset Status = iota
	StatusOnline
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unset"
	}
}

// Transition is emitted when an endpoint crosses the online/offline boundary.
type Transition struct {
	EndpointName string
	From         Status
	To           Status
	Result       ProbeResult
}

// WentOffline reports whether the transition is online -> offline.
func (t Transition) WentOffline() bool { return t.To == StatusOffline }
