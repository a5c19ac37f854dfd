package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

// Schema is applied on New; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS history_snapshots (
  id       BIGSERIAL PRIMARY KEY,
  taken_at TIMESTAMPTZ NOT NULL,
  status   JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_taken_at ON history_snapshots (taken_at);
`

// Store keeps the history in Postgres. The endpoint set is not persisted.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- SnapshotStore ----

func (s *Store) Load(ctx context.Context) ([]domain.HistorySnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT taken_at, status FROM history_snapshots ORDER BY taken_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistorySnapshot
	for rows.Next() {
		var (
			takenAt time.Time
			raw     []byte
		)
		if err := rows.Scan(&takenAt, &raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		st := map[string]bool{}
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("decode snapshot status: %w", err)
		}
		out = append(out, domain.HistorySnapshot{Timestamp: takenAt, Status: st})
	}
	return out, rows.Err()
}

// Save replaces the stored history with snaps in one transaction.
func (s *Store) Save(ctx context.Context, snaps []domain.HistorySnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM history_snapshots`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	batch := &pgx.Batch{}
	for _, sn := range snaps {
		st := sn.Status
		if st == nil {
			st = map[string]bool{}
		}
		raw, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode snapshot status: %w", err)
		}
		batch.Queue(`INSERT INTO history_snapshots (taken_at, status) VALUES ($1, $2::jsonb)`,
			sn.Timestamp.UTC(), string(raw))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("history_saved", zap.Int("snapshots", len(snaps)))
	return nil
}
