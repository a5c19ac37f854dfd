package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/history"
	"github.com/hamed0406/uptimewatch/internal/notify"
	"github.com/hamed0406/uptimewatch/internal/repo"
)

// Generate summarises snaps. Only endpoints present in the last snapshot are
// reported, even if others appear earlier in the window. ok is false when
// snaps is empty.
func Generate(period domain.Period, snaps []domain.HistorySnapshot) (domain.ReportSummary, bool) {
	n := len(snaps)
	if n == 0 {
		return domain.ReportSummary{}, false
	}
	latest := snaps[n-1]
	sum := domain.ReportSummary{
		Period:      period,
		Snapshots:   n,
		PerEndpoint: make(map[string]domain.EndpointUptime, len(latest.Status)),
	}
	for name := range latest.Status {
		online := 0
		for _, sn := range snaps {
			if sn.Status[name] {
				online++
			}
		}
		sum.PerEndpoint[name] = domain.EndpointUptime{
			UptimePercent: 100 * float64(online) / float64(n),
			IncidentCount: n - online,
		}
	}
	return sum, true
}

// Subject is the plain-text title used for email.
func Subject(p domain.Period) string {
	return fmt.Sprintf("%s Uptime Report", p.Title())
}

// Render formats the summary as chat HTML, one line per endpoint sorted by name.
func Render(sum domain.ReportSummary) string {
	names := make([]string, 0, len(sum.PerEndpoint))
	for name := range sum.PerEndpoint {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 %s</b>\n", Subject(sum.Period))
	for _, name := range names {
		u := sum.PerEndpoint[name]
		fmt.Fprintf(&b, "\n<b>%s</b>: Uptime: %.1f%% | Incidents: %d", notify.EscapeHTML(name), u.UptimePercent, u.IncidentCount)
	}
	return b.String()
}

// Reporter builds reports from the durable history rather than the live list.
type Reporter struct {
	Source   repo.SnapshotStore
	Notifier notify.Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func (r *Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Summary loads the persisted history and summarises the period ending now.
// A backend with no history yet yields ok=false and no error.
func (r *Reporter) Summary(ctx context.Context, p domain.Period) (domain.ReportSummary, bool, error) {
	snaps, err := r.Source.Load(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return domain.ReportSummary{}, false, nil
	}
	if err != nil {
		return domain.ReportSummary{}, false, fmt.Errorf("load history: %w", err)
	}
	now := r.now()
	sum, ok := Generate(p, history.Window(snaps, p.WindowStart(now)))
	return sum, ok, nil
}

// Run generates and sends one report. An unreadable history or an empty
// window sends nothing; send failures are logged only.
func (r *Reporter) Run(ctx context.Context, p domain.Period) {
	sum, ok, err := r.Summary(ctx, p)
	if err != nil {
		r.Log.Warn("report_history_unavailable", zap.String("period", p.String()), zap.Error(err))
		return
	}
	if !ok {
		r.Log.Info("report_skipped", zap.String("period", p.String()), zap.String("reason", "no snapshots"))
		return
	}
	if err := r.Notifier.Send(ctx, Subject(p), Render(sum)); err != nil {
		r.Log.Warn("report_send_failed", zap.String("period", p.String()), zap.Error(err))
		return
	}
	r.Log.Info("report_sent",
		zap.String("period", p.String()),
		zap.Int("snapshots", sum.Snapshots),
		zap.Int("endpoints", len(sum.PerEndpoint)))
}
