package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/baterms/chatbot/internal/workflow"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Load(ctx, "missing")
			if err != nil {
				t.Fatalf("Load missing: %v", err)
			}
			if ok {
				t.Fatal("Load reported a session that was never saved")
			}

			snap := Snapshot{
				SessionID: "s1",
				Language:  "amharic",
				History: []workflow.HistoryEntry{
					{Role: "user", Content: "selam"},
					{Role: "assistant", Content: "selam!"},
				},
			}
			if err := store.Save(ctx, snap); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, ok, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !ok {
				t.Fatal("saved session not found")
			}
			if got.Language != "amharic" {
				t.Errorf("language = %q, want amharic", got.Language)
			}
			if len(got.History) != 2 || got.History[1].Content != "selam!" {
				t.Errorf("history = %+v", got.History)
			}
			if got.UpdatedAt.IsZero() {
				t.Error("UpdatedAt not stamped")
			}
		})
	}
}

func TestStoreUpsertReplacesHistory(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := Snapshot{SessionID: "s1", Language: "english",
				History: []workflow.HistoryEntry{{Role: "user", Content: "one"}}}
			if err := store.Save(ctx, first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			second := first
			second.History = append(second.History,
				workflow.HistoryEntry{Role: "assistant", Content: "two"})
			if err := store.Save(ctx, second); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, _, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got.History) != 2 {
				t.Errorf("history length = %d, want 2", len(got.History))
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Save(ctx, Snapshot{SessionID: "s1", Language: "english"}); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := store.Load(ctx, "s1"); ok {
				t.Error("session still present after Delete")
			}
			// Deleting again must be a no-op.
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Errorf("Delete missing session: %v", err)
			}
		})
	}
}

func TestMemoryStoreCopiesHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	history := []workflow.HistoryEntry{{Role: "user", Content: "original"}}
	if err := store.Save(ctx, Snapshot{SessionID: "s1", History: history}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	history[0].Content = "mutated"

	got, _, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.History[0].Content != "original" {
		t.Error("store shares the caller's history slice")
	}
}
