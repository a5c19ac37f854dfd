package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/history"
	"github.com/hamed0406/uptimewatch/internal/probe"
	"github.com/hamed0406/uptimewatch/internal/repo"
	"github.com/hamed0406/uptimewatch/internal/state"
	"github.com/hamed0406/uptimewatch/internal/status"
)

const (
	DefaultInterval = 60 * time.Second
	MinInterval     = 30 * time.Second
	MaxInterval     = 300 * time.Second
)

// ClampInterval maps d into [MinInterval, MaxInterval]; zero means default.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

// Monitor runs the probe cycle. One tick probes every endpoint in parallel,
// then updates state, alerts, records one snapshot and publishes the board,
// in that order.
type Monitor struct {
	Logger      *zap.Logger
	Endpoints   repo.EndpointStore
	Prober      probe.Prober
	Pinger      probe.Pinger
	Tracker     *state.Tracker
	Alerter     *Alerter
	History     *history.Store
	Board       *status.Board
	Interval    time.Duration
	Concurrency int
	// DiagnoseDNS is consulted for DNS-classified failures; nil skips it.
	DiagnoseDNS func(ctx context.Context, host string) probe.DNSDiagnosis
	Now         func() time.Time

	tickMu  sync.Mutex
	refresh chan struct{}
	once    sync.Once
}

func (m *Monitor) init() {
	m.once.Do(func() {
		m.refresh = make(chan struct{}, 1)
		if m.Concurrency < 1 {
			m.Concurrency = 1
		}
		if m.Now == nil {
			m.Now = time.Now
		}
	})
}

// Refresh asks Run for an immediate tick. Requests made while one is already
// pending are coalesced.
func (m *Monitor) Refresh() bool {
	m.init()
	select {
	case m.refresh <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run ticks immediately and then every Interval until ctx is done. A tick in
// progress when ctx ends runs to completion so its snapshot is persisted.
func (m *Monitor) Run(ctx context.Context) {
	m.init()
	interval := ClampInterval(m.Interval)
	t := time.NewTicker(interval)
	defer t.Stop()

	m.Logger.Info("monitor_started", zap.Duration("interval", interval), zap.Int("concurrency", m.Concurrency))
	tickCtx := context.WithoutCancel(ctx)

	m.Tick(tickCtx)
	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("monitor_stopped")
			return
		case <-t.C:
			m.Tick(tickCtx)
		case <-m.refresh:
			m.Tick(tickCtx)
			t.Reset(interval)
		}
	}
}

// Tick runs one full cycle and returns its results in endpoint order.
// Concurrent calls are serialised.
func (m *Monitor) Tick(ctx context.Context) []domain.ProbeResult {
	m.init()
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	log := m.Logger.With(zap.String("tick_id", uuid.NewString()))
	eps, err := m.Endpoints.List(ctx)
	if err != nil {
		log.Warn("endpoint_list_error", zap.Error(err))
		return nil
	}

	started := m.Now()
	results := make([]domain.ProbeResult, len(eps))

	var g errgroup.Group
	g.SetLimit(m.Concurrency)
	for i, ep := range eps {
		g.Go(func() error {
			results[i] = m.check(ctx, log, ep, started)
			return nil
		})
	}
	_ = g.Wait()

	// Every result is known; update state in endpoint order.
	names := make([]string, len(eps))
	var transitions []domain.Transition
	for i, res := range results {
		names[i] = res.EndpointName
		if tr, ok := m.Tracker.Update(res.EndpointName, res); ok {
			transitions = append(transitions, tr)
		}
	}
	m.Tracker.Retain(names)

	alerts := 0
	if m.Alerter != nil {
		alerts = m.Alerter.Handle(ctx, transitions)
	}

	at := m.Now()
	if m.History != nil {
		m.History.Record(ctx, domain.NewSnapshot(at, results))
	}
	if m.Board != nil {
		m.Board.Publish(at, results)
	}

	log.Info("tick_done",
		zap.Int("endpoints", len(eps)),
		zap.Int("transitions", len(transitions)),
		zap.Int("alerts", alerts),
		zap.Duration("took", at.Sub(started)),
	)
	return results
}

func (m *Monitor) check(ctx context.Context, log *zap.Logger, ep domain.Endpoint, started time.Time) domain.ProbeResult {
	res := m.Prober.Probe(ctx, ep)
	res.EndpointName = ep.Name
	if res.ObservedAt.IsZero() {
		res.ObservedAt = started
	}
	host := probe.Host(ep.URL)
	res.LatencyMS = probe.Latency(ctx, m.Pinger, host)

	fields := []zap.Field{
		zap.String("endpoint", ep.Name),
		zap.String("outcome", res.Outcome.String()),
		zap.String("detail", res.Detail),
	}
	if res.ResponseTime != nil {
		fields = append(fields, zap.Duration("response_time", *res.ResponseTime))
	}
	if res.LatencyMS != nil {
		fields = append(fields, zap.Int("latency_ms", *res.LatencyMS))
	}
	log.Debug("probe_done", fields...)

	if res.Outcome == domain.OutcomeOfflineDNS && m.DiagnoseDNS != nil && host != "" {
		d := m.DiagnoseDNS(ctx, host)
		log.Info("dns_diagnosis",
			zap.String("endpoint", ep.Name),
			zap.String("class", d.Class),
			zap.Strings("nameservers", d.Nameservers),
			zap.String("cname", d.CNAME),
			zap.String("resolver_error", d.ResolverError),
		)
	}
	return res
}
