package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// TimeLayout is the on-disk timestamp format, local to the store's location.
const TimeLayout = "2006-01-02 15:04:05"

// Store persists the history as one JSON array, rewritten whole on Save.
type Store struct {
	Path     string
	Location *time.Location
}

func New(path string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{Path: path, Location: loc}
}

type record struct {
	Timestamp string          `json:"timestamp"`
	Status    map[string]bool `json:"status"`
}

// Load returns the stored snapshots. A missing file yields an error wrapping
// os.ErrNotExist; an unreadable entry rejects the whole file.
func (s *Store) Load(ctx context.Context) ([]domain.HistorySnapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return Decode(data, s.Location)
}

func (s *Store) Save(ctx context.Context, snaps []domain.HistorySnapshot) error {
	data, err := Encode(snaps, s.Location)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func Encode(snaps []domain.HistorySnapshot, loc *time.Location) ([]byte, error) {
	recs := make([]record, 0, len(snaps))
	for _, sn := range snaps {
		st := sn.Status
		if st == nil {
			st = map[string]bool{}
		}
		recs = append(recs, record{Timestamp: sn.Timestamp.In(loc).Format(TimeLayout), Status: st})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte, loc *time.Location) ([]domain.HistorySnapshot, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	out := make([]domain.HistorySnapshot, 0, len(recs))
	for i, r := range recs {
		ts, err := time.ParseInLocation(TimeLayout, r.Timestamp, loc)
		if err != nil {
			return nil, fmt.Errorf("decode history entry %d: %w", i, err)
		}
		st := r.Status
		if st == nil {
			st = map[string]bool{}
		}
		out = append(out, domain.HistorySnapshot{Timestamp: ts, Status: st})
	}
	return out, nil
}
