package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

var brt = time.FixedZone("BRT", -3*60*60)

func at(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, brt)
}

// fire mimics one evaluation by the job runner.
func fire(tr *Trigger, now time.Time) bool {
	key, due := tr.Due(now)
	if due {
		tr.MarkFired(key)
	}
	return due
}

func TestTrigger_DailyBoundary(t *testing.T) {
	tr, err := NewTrigger(domain.PeriodDaily, DefaultDailySpec, brt)
	if err != nil {
		t.Fatal(err)
	}

	if fire(tr, at(2025, 6, 1, 23, 58, 30)) {
		t.Fatalf("fired before the window")
	}
	if !fire(tr, at(2025, 6, 1, 23, 59, 0)) {
		t.Fatalf("did not fire at 23:59")
	}
	for _, s := range []int{5, 20, 59} {
		if fire(tr, at(2025, 6, 1, 23, 59, s)) {
			t.Fatalf("refired within the same minute (sec %d)", s)
		}
	}
	if st, key := tr.State(); st != Fired || key != "2025-06-01" {
		t.Fatalf("state=%v key=%q", st, key)
	}

	if fire(tr, at(2025, 6, 2, 0, 1, 0)) {
		t.Fatalf("fired at 00:01")
	}
	if st, _ := tr.State(); st != Pending {
		t.Fatalf("not re-armed after day change: %v", st)
	}
	if !fire(tr, at(2025, 6, 2, 23, 59, 10)) {
		t.Fatalf("did not fire on the next day")
	}
}

func TestTrigger_UsesLocation(t *testing.T) {
	tr, _ := NewTrigger(domain.PeriodDaily, DefaultDailySpec, brt)
	// 02:59 UTC is 23:59 in -03:00.
	if !fire(tr, time.Date(2025, 6, 2, 2, 59, 0, 0, time.UTC)) {
		t.Fatalf("schedule not evaluated in the trigger location")
	}
	if _, key := tr.State(); key != "2025-06-01" {
		t.Fatalf("period key should be local: %q", key)
	}
}

func TestTrigger_WeeklyAndMonthly(t *testing.T) {
	wk, _ := NewTrigger(domain.PeriodWeekly, DefaultWeeklySpec, brt)
	// 2025-06-08 is a Sunday.
	if fire(wk, at(2025, 6, 7, 23, 59, 0)) {
		t.Fatalf("weekly fired on Saturday")
	}
	if !fire(wk, at(2025, 6, 8, 23, 59, 0)) {
		t.Fatalf("weekly did not fire on Sunday")
	}
	if fire(wk, at(2025, 6, 8, 23, 59, 30)) {
		t.Fatalf("weekly refired")
	}

	mo, _ := NewTrigger(domain.PeriodMonthly, DefaultMonthlySpec, brt)
	if !fire(mo, at(2025, 7, 1, 9, 0, 0)) {
		t.Fatalf("monthly did not fire on the 1st at 09:00")
	}
	if fire(mo, at(2025, 7, 1, 9, 0, 40)) {
		t.Fatalf("monthly refired")
	}
	if fire(mo, at(2025, 7, 2, 9, 0, 0)) {
		t.Fatalf("monthly fired on the 2nd")
	}
}

func TestPeriodKey(t *testing.T) {
	ts := at(2025, 1, 1, 12, 0, 0) // ISO week 1 of 2025
	cases := map[domain.Period]string{
		domain.PeriodDaily:   "2025-01-01",
		domain.PeriodWeekly:  "2025-W01",
		domain.PeriodMonthly: "2025-01",
	}
	for p, want := range cases {
		if got := PeriodKey(p, ts); got != want {
			t.Fatalf("PeriodKey(%v)=%q want %q", p, got, want)
		}
	}
}

func TestNewTrigger_BadSpec(t *testing.T) {
	if _, err := NewTrigger(domain.PeriodDaily, "every day", brt); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReportJobs_Evaluate(t *testing.T) {
	var ran []domain.Period
	j, err := NewReportJobs(brt, map[domain.Period]string{
		domain.PeriodDaily:   DefaultDailySpec,
		domain.PeriodWeekly:  DefaultWeeklySpec,
		domain.PeriodMonthly: "",
	}, func(_ context.Context, p domain.Period) { ran = append(ran, p) }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Triggers()) != 2 {
		t.Fatalf("empty spec should disable the monthly job")
	}

	sunday := at(2025, 6, 8, 23, 59, 0)
	got := j.Evaluate(context.Background(), sunday)
	if len(got) != 2 || len(ran) != 2 {
		t.Fatalf("fired=%v ran=%v", got, ran)
	}
	if got := j.Evaluate(context.Background(), sunday.Add(30*time.Second)); len(got) != 0 {
		t.Fatalf("refired %v", got)
	}
	if got := j.Evaluate(context.Background(), at(2025, 6, 9, 23, 59, 0)); len(got) != 1 || got[0] != domain.PeriodDaily {
		t.Fatalf("monday fired %v", got)
	}
}

func TestReportJobs_StartStop(t *testing.T) {
	j, err := NewReportJobs(brt, map[domain.Period]string{domain.PeriodDaily: DefaultDailySpec},
		func(context.Context, domain.Period) {}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-j.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not complete")
	}
}
