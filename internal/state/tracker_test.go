package state

import (
	"testing"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

func res(o domain.Outcome) domain.ProbeResult {
	return domain.ProbeResult{EndpointName: "A", Outcome: o}
}

func TestTracker_ColdStartNeverFires(t *testing.T) {
	for _, o := range []domain.Outcome{domain.OutcomeOnline, domain.OutcomeOfflineTimeout} {
		tr := NewTracker()
		if _, fired := tr.Update("A", res(o)); fired {
			t.Fatalf("first observation %s fired a transition", o)
		}
	}
}

func TestTracker_FiresOnlyOnBoundaryCrossing(t *testing.T) {
	seq := []struct {
		o    domain.Outcome
		fire bool
	}{
		{domain.OutcomeOnline, false},
		{domain.OutcomeOnline, false},
		{domain.OutcomeOfflineDNS, true},
		{domain.OutcomeOfflineTimeout, false},
		{domain.OutcomeOfflineNoContent, false},
		{domain.OutcomeOnline, true},
		{domain.OutcomeOfflineOther, true},
	}
	tr := NewTracker()
	for i, s := range seq {
		tn, fired := tr.Update("A", res(s.o))
		if fired != s.fire {
			t.Fatalf("step %d (%s): fired=%v want %v", i, s.o, fired, s.fire)
		}
		if fired && tn.To != s.o.Status() {
			t.Fatalf("step %d: transition to %s, want %s", i, tn.To, s.o.Status())
		}
	}
}

func TestTracker_UnknownKeepsPriorStatus(t *testing.T) {
	tr := NewTracker()
	tr.Update("A", res(domain.OutcomeOnline))
	if _, fired := tr.Update("A", res(domain.OutcomeUnknown)); fired {
		t.Fatal("unknown must not fire")
	}
	if got := tr.Status("A"); got != domain.StatusOnline {
		t.Fatalf("status after unknown = %s, want online", got)
	}
	if o, _ := tr.LastOutcome("A"); o != domain.OutcomeUnknown {
		t.Fatalf("unknown outcome should still be recorded, got %s", o)
	}
	if _, fired := tr.Update("A", res(domain.OutcomeOfflineTimeout)); !fired {
		t.Fatal("online -> unknown -> offline should fire against the stored online")
	}
}

func TestTracker_UnknownFirstThenObservation(t *testing.T) {
	tr := NewTracker()
	tr.Update("A", res(domain.OutcomeUnknown))
	if _, fired := tr.Update("A", res(domain.OutcomeOfflineDNS)); fired {
		t.Fatal("status still unset after unknown; first real observation is cold start")
	}
}

func TestTracker_Retain(t *testing.T) {
	tr := NewTracker()
	tr.Update("A", res(domain.OutcomeOnline))
	tr.Update("B", res(domain.OutcomeOnline))
	tr.Retain([]string{"B"})
	if tr.Status("A") != domain.StatusUnset {
		t.Fatal("A should be forgotten")
	}
	if tr.Status("B") != domain.StatusOnline {
		t.Fatal("B should be kept")
	}
}
