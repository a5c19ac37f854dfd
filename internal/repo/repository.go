package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Ports the monitor and API depend on.
type EndpointStore interface {
	Add(ctx context.Context, ep domain.Endpoint) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]domain.Endpoint, error)
}

// SnapshotStore is the durable side of the history. Save overwrites the
// whole stored list; Load returns it in insertion order.
type SnapshotStore interface {
	Load(ctx context.Context) ([]domain.HistorySnapshot, error)
	Save(ctx context.Context, snaps []domain.HistorySnapshot) error
}
