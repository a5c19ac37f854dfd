package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// ReportFunc produces and sends one report.
type ReportFunc func(ctx context.Context, p domain.Period)

// ReportJobs evaluates the report triggers once a minute on its own cron
// runner, independent of the probe loop.
type ReportJobs struct {
	triggers []*Trigger
	run      ReportFunc
	log      *zap.Logger
	cron     *cron.Cron
	Now      func() time.Time
}

// NewReportJobs builds a trigger for every non-empty spec.
func NewReportJobs(loc *time.Location, specs map[domain.Period]string, run ReportFunc, log *zap.Logger) (*ReportJobs, error) {
	j := &ReportJobs{run: run, log: log, Now: time.Now}
	for _, p := range []domain.Period{domain.PeriodDaily, domain.PeriodWeekly, domain.PeriodMonthly} {
		spec := specs[p]
		if spec == "" {
			continue
		}
		tr, err := NewTrigger(p, spec, loc)
		if err != nil {
			return nil, err
		}
		j.triggers = append(j.triggers, tr)
	}
	j.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log.Sugar()})),
	)
	return j, nil
}

func (j *ReportJobs) Triggers() []*Trigger { return j.triggers }

// Evaluate fires every due trigger and returns the periods that ran.
func (j *ReportJobs) Evaluate(ctx context.Context, now time.Time) []domain.Period {
	var fired []domain.Period
	for _, tr := range j.triggers {
		key, due := tr.Due(now)
		if !due {
			continue
		}
		j.log.Info("report_due", zap.String("period", tr.Period.String()), zap.String("key", key))
		j.run(ctx, tr.Period)
		tr.MarkFired(key)
		fired = append(fired, tr.Period)
	}
	return fired
}

// Start schedules the minute evaluation. Stop the returned jobs with Stop.
func (j *ReportJobs) Start(ctx context.Context) error {
	if len(j.triggers) == 0 {
		j.log.Info("report_jobs_disabled")
		return nil
	}
	if _, err := j.cron.AddFunc("* * * * *", func() { j.Evaluate(ctx, j.Now()) }); err != nil {
		return err
	}
	j.cron.Start()
	for _, tr := range j.triggers {
		j.log.Info("report_job_scheduled", zap.String("period", tr.Period.String()), zap.String("spec", tr.Spec))
	}
	return nil
}

// Stop halts the runner and returns a context done when a running
// evaluation has finished.
func (j *ReportJobs) Stop() context.Context {
	return j.cron.Stop()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
