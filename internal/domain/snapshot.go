package domain

import "time"

// HistorySnapshot is the composite status of every endpoint at one tick.
type HistorySnapshot struct {
	Timestamp time.Time
	Status    map[string]bool
}

// NewSnapshot folds one tick's results into a snapshot. Only Online counts
// as up; Unknown is recorded as down.
func NewSnapshot(at time.Time, results []ProbeResult) HistorySnapshot {
	s := HistorySnapshot{
		Timestamp: at.Truncate(time.Second),
		Status:    make(map[string]bool, len(results)),
	}
	for _, r := range results {
		s.Status[r.EndpointName] = r.Outcome.Online()
	}
	return s
}

// Equal compares timestamps at second granularity and status maps exactly.
func (s HistorySnapshot) Equal(o HistorySnapshot) bool {
	if !s.Timestamp.Truncate(time.Second).Equal(o.Timestamp.Truncate(time.Second)) {
		return false
	}
	if len(s.Status) != len(o.Status) {
		return false
	}
	for k, v := range s.Status {
		ov, ok := o.Status[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can't mutate the owner's map.
func (s HistorySnapshot) Clone() HistorySnapshot {
	c := HistorySnapshot{Timestamp: s.Timestamp, Status: make(map[string]bool, len(s.Status))}
	for k, v := range s.Status {
		c.Status[k] = v
	}
	return c
}
