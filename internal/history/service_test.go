package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"marginalia/internal/store"
)

func snapshot(lastUpdated string, comments map[string]store.Comment) *store.Database {
	db := store.NewDatabase(lastUpdated)
	for id, c := range comments {
		db.Comments[id] = c
	}
	total := 0
	for _, c := range comments {
		if !c.IsDeleted {
			total++
		}
	}
	db.Metadata.TotalComments = total
	return db
}

func TestSnapshotLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	svc := New(dir, "Avery")
	ctx := context.Background()

	first := snapshot("2024-03-01T12:00:00Z", map[string]store.Comment{
		"comment_1": {ID: "comment_1", AuthorID: "u1", Content: "hello", Timestamp: "2024-03-01T12:00:00Z"},
	})
	if err := svc.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "database.json")); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	second := snapshot("2024-03-01T12:01:00Z", map[string]store.Comment{
		"comment_1": {ID: "comment_1", AuthorID: "u1", Content: "hello", Timestamp: "2024-03-01T12:00:00Z"},
		"comment_2": {ID: "comment_2", AuthorID: "u2", Content: "reply", Timestamp: "2024-03-01T12:01:00Z",
			Reactions: map[string][]string{"🎉": {"u1"}}},
	})
	if err := svc.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("second SaveSnapshot() error = %v", err)
	}

	loaded, err := svc.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(loaded.Comments) != 2 {
		t.Fatalf("expected latest snapshot, got %d comments", len(loaded.Comments))
	}
	if loaded.Comments["comment_2"].Reactions["🎉"][0] != "u1" {
		t.Fatal("emoji reaction lost in git round trip")
	}

	entries, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(entries))
	}
	if entries[0].Author != "Avery" || entries[0].Hash == "" {
		t.Fatalf("unexpected head commit: %+v", entries[0])
	}

	old, err := svc.SnapshotAt(entries[1].Hash)
	if err != nil {
		t.Fatalf("SnapshotAt() error = %v", err)
	}
	if len(old.Comments) != 1 {
		t.Fatalf("expected first snapshot at oldest commit, got %d comments", len(old.Comments))
	}
}

func TestIdenticalSnapshotDoesNotCommit(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "history"), "Avery")
	ctx := context.Background()

	db := snapshot("2024-03-01T12:00:00Z", map[string]store.Comment{
		"comment_1": {ID: "comment_1", AuthorID: "u1", Content: "same", Timestamp: "2024-03-01T12:00:00Z"},
	})
	if err := svc.SaveSnapshot(ctx, db); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := svc.SaveSnapshot(ctx, db); err != nil {
		t.Fatalf("repeat SaveSnapshot() error = %v", err)
	}

	entries, err := svc.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("identical snapshot created a commit: %d entries", len(entries))
	}
}

func TestLoadWithoutRepoReportsNoSnapshot(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "empty"), "Avery")

	_, err := svc.LoadSnapshot(context.Background())
	if !errors.Is(err, store.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	entries, err := svc.History(5)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no history, got %d entries", len(entries))
	}
}
