package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/repo"
)

const DefaultMaxAge = 24 * time.Hour

// Store owns the live, timestamp-ordered snapshot list and mirrors it to a
// repo.SnapshotStore after every change.
type Store struct {
	mu      sync.RWMutex
	snaps   []domain.HistorySnapshot
	backend repo.SnapshotStore
	maxAge  time.Duration
	log     *zap.Logger
}

// Open loads the persisted history. A missing or unreadable backend starts
// the store empty; it never fails.
func Open(ctx context.Context, backend repo.SnapshotStore, maxAge time.Duration, log *zap.Logger) *Store {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	s := &Store{backend: backend, maxAge: maxAge, log: log}

	snaps, err := backend.Load(ctx)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("history_empty", zap.String("reason", "no backing file"))
	case err != nil:
		log.Warn("history_load_failed", zap.Error(err))
	default:
		s.snaps = snaps
		log.Info("history_loaded", zap.Int("snapshots", len(snaps)))
	}
	return s
}

func (s *Store) MaxAge() time.Duration { return s.maxAge }

// Append adds snap at the tail. Out-of-order timestamps are kept in arrival
// order; the monitor only appends monotonically.
func (s *Store) Append(snap domain.HistorySnapshot) {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap.Clone())
	s.mu.Unlock()
}

// Prune drops every snapshot older than now-maxAge and reports how many went.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.snaps)
	s.snaps = Prune(s.snaps, now, s.maxAge)
	return before - len(s.snaps)
}

// Persist writes the whole list to the backend.
func (s *Store) Persist(ctx context.Context) error {
	snaps := s.Snapshots()
	if err := s.backend.Save(ctx, snaps); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// Record is the per-tick sequence: append, prune relative to the snapshot
// time, persist. A failed write is logged and the in-memory list stays valid.
func (s *Store) Record(ctx context.Context, snap domain.HistorySnapshot) {
	s.Append(snap)
	if n := s.Prune(snap.Timestamp); n > 0 {
		s.log.Debug("history_pruned", zap.Int("removed", n))
	}
	if err := s.Persist(ctx); err != nil {
		s.log.Warn("history_persist_failed", zap.Error(err))
	}
}

// Snapshots returns a deep copy of the live list.
func (s *Store) Snapshots() []domain.HistorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HistorySnapshot, len(s.snaps))
	for i, sn := range s.snaps {
		out[i] = sn.Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// Prune keeps entries with now-timestamp <= maxAge, preserving order.
func Prune(snaps []domain.HistorySnapshot, now time.Time, maxAge time.Duration) []domain.HistorySnapshot {
	cutoff := now.Add(-maxAge)
	out := snaps[:0:0]
	for _, sn := range snaps {
		if !sn.Timestamp.Before(cutoff) {
			out = append(out, sn)
		}
	}
	return out
}

// Window returns the snapshots with timestamp >= since.
func Window(snaps []domain.HistorySnapshot, since time.Time) []domain.HistorySnapshot {
	var out []domain.HistorySnapshot
	for _, sn := range snaps {
		if !sn.Timestamp.Before(since) {
			out = append(out, sn)
		}
	}
	return out
}
