package status

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// TimeLayout is used for last_checked values.
const TimeLayout = "2006-01-02 15:04:05"

const notAvailable = "N/A"

// Label is the user-facing status text of one result.
func Label(r domain.ProbeResult) string {
	switch r.Outcome {
	case domain.OutcomeOnline:
		return "🟢 Online"
	case domain.OutcomeOfflineNoContent:
		return "🔴 Offline (No content)"
	case domain.OutcomeOfflineTimeout:
		return "🔴 Offline (Timeout)"
	case domain.OutcomeOfflineDNS:
		return "🔴 Offline (DNS)"
	case domain.OutcomeOfflineOther:
		return fmt.Sprintf("🔴 Offline (%s)", r.Detail)
	default:
		return "❓ Unknown"
	}
}

// Reason is the short error text used in alerts and error_detail.
func Reason(r domain.ProbeResult) string {
	switch r.Outcome {
	case domain.OutcomeOfflineNoContent:
		return "No content"
	case domain.OutcomeOfflineTimeout:
		return "Timeout"
	case domain.OutcomeOfflineDNS:
		return "DNS"
	case domain.OutcomeOfflineOther:
		return r.Detail
	}
	return ""
}

func ResponseTime(r domain.ProbeResult) string {
	if r.ResponseTime == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2fs", r.ResponseTime.Seconds())
}

func Latency(r domain.ProbeResult) string {
	if r.LatencyMS == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d ms", *r.LatencyMS)
}

type board struct {
	at        time.Time
	results   []domain.ProbeResult
	lastError map[string]string
}

// Board holds the latest tick for readers. Publish is called by the tick
// owner only; readers never block it.
type Board struct {
	loc   *time.Location
	state atomic.Pointer[board]
}

func NewBoard(loc *time.Location) *Board {
	if loc == nil {
		loc = time.Local
	}
	b := &Board{loc: loc}
	b.state.Store(&board{lastError: map[string]string{}})
	return b
}

// Publish replaces the current results. The last offline reason of each
// endpoint is kept until a newer failure replaces it or the endpoint leaves
// the set.
func (b *Board) Publish(at time.Time, results []domain.ProbeResult) {
	prev := b.state.Load()
	next := &board{
		at:        at,
		results:   append([]domain.ProbeResult(nil), results...),
		lastError: make(map[string]string, len(results)),
	}
	for _, r := range results {
		if r.Outcome.Offline() {
			next.lastError[r.EndpointName] = Label(r)
		} else if e, ok := prev.lastError[r.EndpointName]; ok {
			next.lastError[r.EndpointName] = e
		}
	}
	b.state.Store(next)
}

func (b *Board) Results() []domain.ProbeResult {
	return append([]domain.ProbeResult(nil), b.state.Load().results...)
}

func (b *Board) UpdatedAt() time.Time { return b.state.Load().at }

// Report renders the latest tick. URLs are always masked.
func (b *Board) Report() domain.StatusReport {
	st := b.state.Load()
	rep := domain.StatusReport{GeneratedAt: st.at, Rows: make([]domain.StatusRow, 0, len(st.results))}
	for _, r := range st.results {
		rep.Rows = append(rep.Rows, domain.StatusRow{
			Name:         r.EndpointName,
			URL:          domain.MaskedURL,
			Status:       Label(r),
			ResponseTime: ResponseTime(r),
			Latency:      Latency(r),
			LastChecked:  r.ObservedAt.In(b.loc).Format(TimeLayout),
			ErrorDetail:  Reason(r),
			LastError:    st.lastError[r.EndpointName],
		})
	}
	return rep
}

// Summarize computes the dashboard counters. Uptime is the mean, over
// snapshots with at least one endpoint, of the fraction of endpoints online.
func Summarize(results []domain.ProbeResult, snaps []domain.HistorySnapshot) domain.Overview {
	var ov domain.Overview
	ov.Total = len(results)

	var rtSum float64
	var rtN int
	for _, r := range results {
		switch {
		case r.Outcome.Online():
			ov.Online++
		case r.Outcome.Offline():
			ov.Offline++
		}
		if r.ResponseTime != nil {
			rtSum += r.ResponseTime.Seconds()
			rtN++
		}
	}
	if rtN > 0 {
		ov.AvgResponseSeconds = rtSum / float64(rtN)
	}

	var fracSum float64
	var n int
	for _, sn := range snaps {
		if len(sn.Status) == 0 {
			continue
		}
		up := 0
		for _, v := range sn.Status {
			if v {
				up++
			}
		}
		fracSum += float64(up) / float64(len(sn.Status))
		n++
	}
	if n > 0 {
		ov.Uptime24hPercent = 100 * fracSum / float64(n)
	}
	return ov
}
