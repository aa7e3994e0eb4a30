package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecentSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"1", "2", "3"} {
		title := ""
		if i != 1 {
			title = "Title " + id
		}
		if err := s.RecordSave(ctx, "u1", id, "https://x.com/"+id, title); err != nil {
			t.Fatalf("record save: %v", err)
		}
	}
	if err := s.RecordSave(ctx, "u2", "9", "https://y.com", "Other user"); err != nil {
		t.Fatal(err)
	}

	saves, err := s.RecentSaves(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("recent saves: %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(saves))
	}
	// Newest first.
	if saves[0].BookmarkID != "3" || saves[1].BookmarkID != "2" {
		t.Errorf("unexpected order: %v, %v", saves[0].BookmarkID, saves[1].BookmarkID)
	}
	if saves[1].Title != "" {
		t.Errorf("expected empty title, got %q", saves[1].Title)
	}
}

func TestRecentSaves_EmptyForUnknownUser(t *testing.T) {
	s := newTestStore(t)

	saves, err := s.RecentSaves(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("recent saves: %v", err)
	}
	if len(saves) != 0 {
		t.Errorf("expected no saves, got %d", len(saves))
	}
}

func TestRecordEvent(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordEvent(context.Background(), "u1", "register", "username=u1"); err != nil {
		t.Fatalf("record event: %v", err)
	}
}
