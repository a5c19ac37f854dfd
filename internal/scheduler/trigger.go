package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// Default report windows, standard five-field cron.
const (
	DefaultDailySpec   = "59 23 * * *"
	DefaultWeeklySpec  = "59 23 * * 0"
	DefaultMonthlySpec = "0 9 1 * *"
)

type TriggerState int

const (
	Pending TriggerState = iota
	Fired
)

func (s TriggerState) String() string {
	if s == Fired {
		return "fired"
	}
	return "pending"
}

// PeriodKey identifies the calendar period containing t.
func PeriodKey(p domain.Period, t time.Time) string {
	switch p {
	case domain.PeriodWeekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case domain.PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// Trigger fires a report at most once per period. It moves Pending -> Fired
// when the minute matches its schedule, and back to Pending on the first
// evaluation in a different period.
type Trigger struct {
	Period   domain.Period
	Spec     string
	schedule cron.Schedule
	loc      *time.Location

	mu      sync.Mutex
	state   TriggerState
	lastKey string
}

func NewTrigger(p domain.Period, spec string, loc *time.Location) (*Trigger, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%s report schedule %q: %w", p, spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Trigger{Period: p, Spec: spec, schedule: sched, loc: loc}, nil
}

// Matches reports whether the minute containing t is a scheduled minute.
func (t *Trigger) Matches(now time.Time) bool {
	m := now.In(t.loc).Truncate(time.Minute)
	return t.schedule.Next(m.Add(-time.Second)).Equal(m)
}

// Due re-arms the trigger if the period changed and reports whether it
// should fire now. The caller runs the job and then calls MarkFired.
func (t *Trigger) Due(now time.Time) (key string, due bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key = PeriodKey(t.Period, now.In(t.loc))
	if t.state == Fired && key != t.lastKey {
		t.state = Pending
	}
	return key, t.state == Pending && t.Matches(now)
}

func (t *Trigger) MarkFired(key string) {
	t.mu.Lock()
	t.state = Fired
	t.lastKey = key
	t.mu.Unlock()
}

func (t *Trigger) State() (TriggerState, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.lastKey
}
