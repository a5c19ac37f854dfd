package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "history.json"), saoPaulo)

	base := time.Date(2025, 3, 9, 23, 59, 0, 0, saoPaulo)
	want := []domain.HistorySnapshot{
		{Timestamp: base, Status: map[string]bool{"Server-A": true, "Server-B": false}},
		{Timestamp: base.Add(time.Minute), Status: map[string]bool{"Server-A": false}},
		{Timestamp: base.Add(2 * time.Minute).UTC(), Status: map[string]bool{}},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("entry %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_WireFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	s := New(path, saoPaulo)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) // 00:04:05 in -03:00
	if err := s.Save(ctx, []domain.HistorySnapshot{{Timestamp: at, Status: map[string]bool{"A": true}}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"timestamp": "2025-01-02 00:04:05"`) {
		t.Fatalf("unexpected file contents:\n%s", raw)
	}
}

func TestStore_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"), saoPaulo)
	if _, err := s.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestDecode_RejectsCorrupt(t *testing.T) {
	cases := []string{
		`not json`,
		`[{"timestamp": "yesterday", "status": {}}]`,
		``,
	}
	for _, c := range cases {
		if _, err := Decode([]byte(c), saoPaulo); err == nil {
			t.Fatalf("Decode(%q) should fail", c)
		}
	}
}
