package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaskedURL replaces every endpoint URL that leaves the core.
const MaskedURL = "hidden"

// StatusRow is one line of the dashboard table.
type StatusRow struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Latency      string `json:"latency"`
	LastChecked  string `json:"last_checked"`
	ErrorDetail  string `json:"error_detail"`
	LastError    string `json:"last_error"`
}

type StatusReport struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        []StatusRow `json:"rows"`
}

type Overview struct {
	Total              int     `json:"total"`
	Online             int     `json:"online"`
	Offline            int     `json:"offline"`
	Uptime24hPercent   float64 `json:"uptime_24h_percent"`
	AvgResponseSeconds float64 `json:"avg_response_seconds"`
}

type Period int

const (
	PeriodDaily Period = iota
	PeriodWeekly
	PeriodMonthly
)

func (p Period) String() string {
	switch p {
	case PeriodWeekly:
		return "weekly"
	case PeriodMonthly:
		return "monthly"
	default:
		return "daily"
	}
}

// Title is the capitalized label used in rendered reports.
func (p Period) Title() string {
	s := p.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return PeriodDaily, nil
	case "weekly", "week":
		return PeriodWeekly, nil
	case "monthly", "month":
		return PeriodMonthly, nil
	}
	return PeriodDaily, fmt.Errorf("unknown period %q", s)
}

// WindowStart returns the beginning of the period ending at now.
func (p Period) WindowStart(now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case PeriodMonthly:
		return now.AddDate(0, -1, 0)
	default:
		return now.AddDate(0, 0, -1)
	}
}

// MaxWindow is the longest span WindowStart can cover; a calendar month is
// at most 31 days.
func (p Period) MaxWindow() time.Duration {
	switch p {
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	case PeriodMonthly:
		return 31 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type EndpointUptime struct {
	UptimePercent float64 `json:"uptime_percent"`
	IncidentCount int     `json:"incident_count"`
}

type ReportSummary struct {
	Period      Period                    `json:"period"`
	Snapshots   int                       `json:"snapshots"`
	PerEndpoint map[string]EndpointUptime `json:"per_endpoint"`
}
