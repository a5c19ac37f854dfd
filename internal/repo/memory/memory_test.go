package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/uptimewatch/internal/domain"
	"github.com/hamed0406/uptimewatch/internal/repo"
)

func TestMemoryStore_AddListRemove(t *testing.T) {
	ctx := context.Background()
	s := New(domain.Endpoint{Name: "B", URL: "http://b"})

	if err := s.Add(ctx, domain.Endpoint{Name: "A", URL: "http://a"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, domain.Endpoint{Name: "A", URL: "http://other"}); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	all, _ := s.List(ctx)
	if len(all) != 2 || all[0].Name != "B" || all[1].Name != "A" {
		t.Fatalf("want insertion order [B A], got %+v", all)
	}

	if err := s.Remove(ctx, "B"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "B"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	all, _ = s.List(ctx)
	if len(all) != 1 || all[0].Name != "A" {
		t.Fatalf("unexpected list after remove: %+v", all)
	}
}

func TestMemoryStore_SnapshotsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	in := []domain.HistorySnapshot{{Timestamp: time.Now(), Status: map[string]bool{"A": true}}}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in[0].Status["A"] = false

	out, _ := s.Load(ctx)
	if len(out) != 1 || !out[0].Status["A"] {
		t.Fatalf("stored snapshot was mutated through caller slice: %+v", out)
	}
}
