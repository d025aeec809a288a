package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"streamvault/src/features/resolving"
)

func newTestStore(t *testing.T) *SqliteHistory {
	t.Helper()
	store, err := NewSqliteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, outcome := range []string{"ok", "unavailable", "ok"} {
		entry := resolving.HistoryEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			TrackID:   "track-1",
			URL:       "https://a/t.mp3",
			Strategy:  "direct",
			Outcome:   outcome,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Newest first.
	if !entries[0].CreatedAt.After(entries[1].CreatedAt) {
		t.Errorf("entries not sorted newest first: %v then %v", entries[0].CreatedAt, entries[1].CreatedAt)
	}
	if entries[0].Outcome != "ok" || entries[1].Outcome != "unavailable" {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestListRespectsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := resolving.HistoryEntry{
			ID:        string(rune('a' + i)),
			TrackID:   "t",
			Strategy:  "direct",
			Outcome:   "ok",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestListEmptyStore(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
