package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/notify"
	"github.com/hamed0406/uptimewatch/internal/status"
)

type AlerterConfig struct {
	NotifyOffline bool
	NotifyOnline  bool
}

// Alerter turns transitions into messages. Messages are rendered before
// they are handed to the notifier, which is normally an async Dispatcher.
type Alerter struct {
	out notify.Notifier
	cfg AlerterConfig
	log *zap.Logger
}

func NewAlerter(out notify.Notifier, cfg AlerterConfig, log *zap.Logger) *Alerter {
	return &Alerter{out: out, cfg: cfg, log: log}
}

// Message renders the subject and chat HTML for tr.
func Message(tr domain.Transition) (subject, body string) {
	name := notify.EscapeHTML(tr.EndpointName)
	if tr.To == domain.StatusOnline {
		return fmt.Sprintf("Server %s is back online", tr.EndpointName),
			fmt.Sprintf("✅ Server <b>%s</b> is ONLINE again!", name)
	}
	return fmt.Sprintf("Server %s is offline", tr.EndpointName),
		fmt.Sprintf("❌ Server <b>%s</b> is OFFLINE!\nError: %s", name, notify.EscapeHTML(status.Reason(tr.Result)))
}

func (a *Alerter) enabled(tr domain.Transition) bool {
	if tr.WentOffline() {
		return a.cfg.NotifyOffline
	}
	return a.cfg.NotifyOnline
}

// Handle sends one message per enabled transition, in order, and returns how
// many were handed off.
func (a *Alerter) Handle(ctx context.Context, trs []domain.Transition) int {
	sent := 0
	for _, tr := range trs {
		a.log.Info("transition",
			zap.String("endpoint", tr.EndpointName),
			zap.String("from", tr.From.String()),
			zap.String("to", tr.To.String()),
			zap.String("outcome", tr.Result.Outcome.String()),
		)
		if a.out == nil || !a.enabled(tr) {
			continue
		}
		subject, body := Message(tr)
		if err := a.out.Send(ctx, subject, body); err != nil {
			a.log.Warn("alert_send_failed", zap.String("endpoint", tr.EndpointName), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
