// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/hamed0406/uptimewatch/internal/config"
	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/scheduler"
)

func main() {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	eps, err := cfg.LoadEndpoints()
	switch {
	case err != nil:
		fail(err.Error())
	case len(eps) == 0:
		warn("no endpoints configured (ENDPOINTS / ENDPOINTS_FILE); add them through the API.")
	default:
		ok(fmt.Sprintf("%d endpoints configured", len(eps)))
	}

	if cfg.TelegramEnabled() {
		ok("Telegram credentials present (verified with getMe at startup)")
	} else {
		warn("TELEGRAM_TOKEN / TELEGRAM_CHAT_ID missing; Telegram alerts disabled.")
	}

	switch {
	case cfg.EmailEnabled():
		ok(fmt.Sprintf("email enabled for %d recipients", len(cfg.EmailRecipients)))
	case cfg.EmailFrom != "" || len(cfg.EmailRecipients) > 0:
		warn("email partially configured (need EMAIL_FROM, EMAIL_RECIPIENTS and SMTP_HOST or BREVO_API_KEY); email disabled.")
	default:
		warn("email not configured; email alerts disabled.")
	}

	if cfg.AccessPassword == "" && cfg.AccessPasswordHash == "" {
		warn("ACCESS_PASSWORD empty; the API is open to anyone who can reach it.")
	} else {
		ok("access password set")
	}

	if cfg.DatabaseURL == "" {
		ok("history file: " + cfg.HistoryFile)
	} else {
		ok("DATABASE_URL present (history in Postgres)")
	}

	if got := scheduler.ClampInterval(cfg.CheckInterval); got != cfg.CheckInterval {
		warn(fmt.Sprintf("CHECK_INTERVAL_SECONDS=%d will be clamped to %s", int(cfg.CheckInterval.Seconds()), got))
	}

	loc := cfg.Location()
	if loc.String() != cfg.Timezone {
		warn("TIMEZONE " + cfg.Timezone + " not found; using fixed -03:00.")
	}
	for p, spec := range map[domain.Period]string{
		domain.PeriodDaily:   cfg.ReportDailyCron,
		domain.PeriodWeekly:  cfg.ReportWeeklyCron,
		domain.PeriodMonthly: cfg.ReportMonthlyCron,
	} {
		if spec == "" {
			warn(p.Title() + " report disabled.")
			continue
		}
		if _, err := scheduler.NewTrigger(p, spec, loc); err != nil {
			fail(err.Error())
		}
	}

	if strings.TrimSpace(os.Getenv("CORS_ORIGINS")) == "" {
		warn("CORS_ORIGINS empty; any origin may call the API from a browser.")
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
