package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/repo"
)

// Store keeps endpoints in insertion order and an in-process copy of the
// history. The endpoint set is never persisted.
type Store struct {
	mu        sync.RWMutex
	order     []string
	endpoints map[string]domain.Endpoint
	snapshots []domain.HistorySnapshot
}

func New(eps ...domain.Endpoint) *Store {
	s := &Store{endpoints: make(map[string]domain.Endpoint)}
	for _, ep := range eps {
		_ = s.Add(context.Background(), ep)
	}
	return s
}

func (m *Store) Add(ctx context.Context, ep domain.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[ep.Name]; ok {
		return fmt.Errorf("endpoint %q: %w", ep.Name, repo.ErrDuplicate)
	}
	m.endpoints[ep.Name] = ep
	m.order = append(m.order, ep.Name)
	return nil
}

func (m *Store) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[name]; !ok {
		return fmt.Errorf("endpoint %q: %w", name, repo.ErrNotFound)
	}
	delete(m.endpoints, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Endpoint, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.endpoints[n])
	}
	return out, nil
}

func (m *Store) Load(ctx context.Context) ([]domain.HistorySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.snapshots), nil
}

func (m *Store) Save(ctx context.Context, snaps []domain.HistorySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = cloneAll(snaps)
	return nil
}

func cloneAll(in []domain.HistorySnapshot) []domain.HistorySnapshot {
	out := make([]domain.HistorySnapshot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
