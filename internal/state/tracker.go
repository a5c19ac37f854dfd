package state

import (
	"sync"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// Tracker holds the last binary status of every endpoint and reports
// online/offline boundary crossings. It is owned by the monitor loop; the
// mutex only protects concurrent readers such as the API.
type Tracker struct {
	mu   sync.RWMutex
	last map[string]entry
}

type entry struct {
	status  domain.Status
	outcome domain.Outcome
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]entry)}
}

// Update compares the new outcome with the stored status and then overwrites
// it. The first observation of an endpoint never reports a transition.
// Unknown outcomes are recorded but keep the previous binary status.
func (t *Tracker) Update(name string, res domain.ProbeResult) (domain.Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.last[name]
	next := res.Outcome.Status()
	if next == domain.StatusUnset {
		next = prev.status
	}
	t.last[name] = entry{status: next, outcome: res.Outcome}

	if prev.status == domain.StatusUnset || next == prev.status {
		return domain.Transition{}, false
	}
	return domain.Transition{
		EndpointName: name,
		From:         prev.status,
		To:           next,
		Result:       res,
	}, true
}

func (t *Tracker) Status(name string) domain.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last[name].status
}

// LastOutcome returns the most recent raw outcome, Unknown included.
func (t *Tracker) LastOutcome(name string) (domain.Outcome, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.last[name]
	return e.outcome, ok
}

// Retain drops every endpoint not in names, so a removed and re-added
// endpoint starts cold again.
func (t *Tracker) Retain(names []string) {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for n := range t.last {
		if _, ok := keep[n]; !ok {
			delete(t.last, n)
		}
	}
}
