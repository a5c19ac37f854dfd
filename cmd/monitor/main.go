package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/auth"
	"github.com/hamed0406/uptimewatch/internal/config"
	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/history"
	"github.com/hamed0406/uptimewatch/internal/httpapi"
	"github.com/hamed0406/uptimewatch/internal/logging"
	"github.com/hamed0406/uptimewatch/internal/notify"
	"github.com/hamed0406/uptimewatch/internal/probe"
	"github.com/hamed0406/uptimewatch/internal/report"
	"github.com/hamed0406/uptimewatch/internal/repo"
	"github.com/hamed0406/uptimewatch/internal/repo/file"
	"github.com/hamed0406/uptimewatch/internal/repo/memory"
	pg "github.com/hamed0406/uptimewatch/internal/repo/postgres"
	"github.com/hamed0406/uptimewatch/internal/scheduler"
	"github.com/hamed0406/uptimewatch/internal/state"
	"github.com/hamed0406/uptimewatch/internal/status"
)

const (
	shutdownGrace  = 2 * time.Minute
	channelTimeout = time.Minute
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	// Endpoint set: configuration seeds it, the API edits it, nothing persists it.
	eps, err := cfg.LoadEndpoints()
	if err != nil {
		logger.Warn("endpoints_config_error", zap.Error(err))
	}
	endpoints := memory.New(eps...)
	logger.Info("endpoints_loaded", zap.Int("count", len(eps)))

	snapshots := openSnapshots(ctx, cfg, loc, logger)
	if c, ok := snapshots.(interface{ Close() }); ok {
		defer c.Close()
	}
	hist := history.Open(ctx, snapshots, cfg.HistoryRetention(), logger)
	logger.Info("history_retention", zap.Duration("max_age", hist.MaxAge()))

	channels, telegram := buildChannels(ctx, cfg, logger)
	dispatcher := notify.NewDispatcher(channels, notify.DefaultQueueSize, channelTimeout*time.Duration(len(channels)+1), logger)
	if telegram != nil && telegram.Enabled() {
		dispatcher.Enqueue("Monitor started", "✅ Uptime monitor started and connected to Telegram!")
	}

	board := status.NewBoard(loc)
	mon := &scheduler.Monitor{
		Logger:      logger,
		Endpoints:   endpoints,
		Prober:      probe.NewHTTPProber(cfg.HTTPTimeout, cfg.RetryAttempts, cfg.RetryBackoff),
		Pinger:      buildPinger(cfg),
		Tracker:     state.NewTracker(),
		Alerter:     scheduler.NewAlerter(dispatcher, scheduler.AlerterConfig{NotifyOffline: cfg.NotifyOffline, NotifyOnline: cfg.NotifyOnline}, logger),
		History:     hist,
		Board:       board,
		Interval:    cfg.CheckInterval,
		Concurrency: cfg.MaxConcurrent,
		DiagnoseDNS: probe.DiagnoseDNS,
	}

	reporter := &report.Reporter{Source: snapshots, Notifier: dispatcher, Log: logger}
	var jobs *scheduler.ReportJobs
	if cfg.NotifyReports {
		jobs, err = scheduler.NewReportJobs(loc, map[domain.Period]string{
			domain.PeriodDaily:   cfg.ReportDailyCron,
			domain.PeriodWeekly:  cfg.ReportWeeklyCron,
			domain.PeriodMonthly: cfg.ReportMonthlyCron,
		}, reporter.Run, logger)
		if err == nil {
			err = jobs.Start(ctx)
		}
		if err != nil {
			logger.Warn("report_jobs_disabled", zap.Error(err))
			jobs = nil
		}
	}

	gate, err := newGate(cfg)
	if err != nil {
		logger.Fatal("access_password_invalid", zap.Error(err))
	}
	api := &httpapi.Server{
		Logger:    logger,
		Endpoints: endpoints,
		Board:     board,
		History:   hist,
		Reports:   reporter,
		Gate:      gate,
		Refresher: mon,
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.CORSOrigins, httpapi.Limits{APIRPM: cfg.APIRPM, APIBurst: cfg.APIBurst, LoginRPM: cfg.LoginRPM, LoginBurst: cfg.LoginBurst, TrustProxy: cfg.TrustProxy}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.Bool("password_required", gate.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_failed", zap.Error(err))
			stop()
		}
	}()

	monDone := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(monDone)
	}()

	<-ctx.Done()
	logger.Info("shutdown_started")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	_ = srv.Shutdown(sctx)
	if jobs != nil {
		select {
		case <-jobs.Stop().Done():
		case <-sctx.Done():
		}
	}
	select {
	case <-monDone:
		if err := dispatcher.Close(sctx); err != nil {
			logger.Warn("notify_drain_incomplete", zap.Error(err))
		}
	case <-sctx.Done():
		// The tick is still running and may yet alert; leave the queue open.
		logger.Warn("monitor_shutdown_timeout")
	}
	logger.Info("shutdown_complete")
}

// openSnapshots picks Postgres when configured and reachable, else the JSON file.
func openSnapshots(ctx context.Context, cfg config.Config, loc *time.Location, logger *zap.Logger) repo.SnapshotStore {
	if cfg.DatabaseURL != "" {
		store, err := pg.New(ctx, cfg.DatabaseURL, logger)
		if err == nil {
			logger.Info("history_backend", zap.String("kind", "postgres"))
			return store
		}
		logger.Warn("postgres_unavailable", zap.Error(err))
	}
	logger.Info("history_backend", zap.String("kind", "file"), zap.String("path", cfg.HistoryFile))
	return file.New(cfg.HistoryFile, loc)
}

// buildChannels assembles every configured channel. Telegram is verified
// once here and disabled for the process if the handshake fails.
func buildChannels(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Multi, *notify.Telegram) {
	var channels notify.Multi

	tg := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if tg == nil {
		logger.Info("telegram_disabled", zap.String("reason", "missing credentials"))
	} else {
		hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := notify.Handshake(hctx, tg, notify.DefaultAttempts, notify.DefaultBackoff)
		cancel()
		if err != nil {
			tg.Disable()
			logger.Warn("telegram_disabled", zap.String("reason", "handshake failed"), zap.Error(err))
		} else {
			logger.Info("telegram_ready")
			channels = append(channels, notify.Channel{
				Name:     "telegram",
				Timeout:  channelTimeout,
				Notifier: notify.Retry{Next: tg, Attempts: notify.DefaultAttempts, Backoff: notify.DefaultBackoff, Log: logger},
			})
		}
	}

	var transport notify.Transport
	switch {
	case cfg.BrevoAPIKey != "":
		transport = notify.NewBrevoTransport(cfg.BrevoAPIKey, "")
	case cfg.SMTPHost != "":
		transport = notify.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	if email := notify.NewEmail(cfg.EmailFrom, cfg.EmailRecipients, transport); email != nil {
		channels = append(channels, notify.Channel{Name: "email", Timeout: channelTimeout, Notifier: email})
		logger.Info("email_ready", zap.Int("recipients", len(cfg.EmailRecipients)))
	} else {
		logger.Info("email_disabled", zap.String("reason", "missing sender, recipients or transport"))
	}

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		channels = append(channels, notify.Channel{
			Name:     "slack",
			Timeout:  channelTimeout,
			Notifier: notify.Retry{Next: slack, Attempts: notify.DefaultAttempts, Backoff: notify.DefaultBackoff, Log: logger},
		})
	}
	return channels, tg
}

func buildPinger(cfg config.Config) probe.Pinger {
	icmp := &probe.ICMPPinger{Timeout: cfg.PingTimeout}
	cmd := probe.NewCommandPinger(cfg.PingTimeout)
	switch cfg.PingMode {
	case "off":
		return nil
	case "icmp":
		return icmp
	case "command":
		return cmd
	default:
		return probe.FallbackPinger{icmp, cmd}
	}
}

func newGate(cfg config.Config) (*auth.Gate, error) {
	if cfg.AccessPasswordHash != "" {
		return auth.NewGateFromHash(cfg.AccessPasswordHash)
	}
	return auth.NewGate(cfg.AccessPassword, 0)
}
