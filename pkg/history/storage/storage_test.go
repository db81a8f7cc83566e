package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/history"
)

// stores returns a fresh instance of every Store implementation; the
// contract tests below run against each.
func stores(t *testing.T) map[string]history.Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "history.db")}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]history.Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func record(id string, started time.Time, violations int) *history.Record {
	return &history.Record{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Summary:    engine.Summary{TotalRules: 1, FailedRules: 1, Violations: violations},
		Results:    json.RawMessage(`[{"rule_id":"r1","status":"FAIL"}]`),
	}
}

func TestSaveChainsHashes(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)

			r1 := record("run-1", base, 1)
			r2 := record("run-2", base.Add(time.Hour), 2)
			if err := store.Save(ctx, r1); err != nil {
				t.Fatalf("Save(r1) error = %v", err)
			}
			if err := store.Save(ctx, r2); err != nil {
				t.Fatalf("Save(r2) error = %v", err)
			}

			if r1.PrevHash != "" {
				t.Errorf("first record PrevHash = %q, want empty", r1.PrevHash)
			}
			if r2.PrevHash != r1.Hash {
				t.Errorf("second record PrevHash = %q, want %q", r2.PrevHash, r1.Hash)
			}
			if err := store.Verify(ctx); err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved := record("run-1", time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC), 3)
			if err := store.Save(ctx, saved); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ID != "run-1" || got.Summary.Violations != 3 || got.Hash != saved.Hash {
				t.Errorf("Get() = %+v, want the saved record", got)
			}
			if !got.StartedAt.Equal(saved.StartedAt) {
				t.Errorf("StartedAt = %v, want %v", got.StartedAt, saved.StartedAt)
			}

			if _, err := store.Get(ctx, "no-such-run"); !errors.Is(err, history.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListOrderAndPaging(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				rec := record(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), i)
				if err := store.Save(ctx, rec); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}

			all, err := store.List(ctx, nil)
			if err != nil {
				t.Fatalf("List(nil) error = %v", err)
			}
			if len(all) != 5 {
				t.Fatalf("List(nil) returned %d records, want 5", len(all))
			}
			if all[0].ID != "e" || all[4].ID != "a" {
				t.Errorf("List order = %s..%s, want newest first (e..a)", all[0].ID, all[4].ID)
			}

			page, err := store.List(ctx, &history.Query{Limit: 2, Offset: 1})
			if err != nil {
				t.Fatalf("List(page) error = %v", err)
			}
			if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
				t.Errorf("List(limit=2, offset=1) = %v, want [d c]", ids(page))
			}

			since := base.Add(90 * time.Minute)
			until := base.Add(survivors())
			ranged, err := store.List(ctx, &history.Query{Since: &since, Until: &until})
			if err != nil {
				t.Fatalf("List(range) error = %v", err)
			}
			if len(ranged) != 2 || ranged[0].ID != "d" || ranged[1].ID != "c" {
				t.Errorf("List(range) = %v, want [d c]", ids(ranged))
			}
		})
	}
}

func survivors() time.Duration { return 3*time.Hour + 30*time.Minute }

func ids(records []*history.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func TestDeleteBefore(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 4; i++ {
				if err := store.Save(ctx, record(string(rune('a'+i)), base.AddDate(0, 0, i), 0)); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}

			deleted, err := store.DeleteBefore(ctx, base.AddDate(0, 0, 2))
			if err != nil {
				t.Fatalf("DeleteBefore() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}

			count, err := store.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != 2 {
				t.Errorf("Count() = %d, want 2", count)
			}

			// The chain must still verify after pruning a prefix.
			if err := store.Verify(ctx); err != nil {
				t.Errorf("Verify() after prune error = %v", err)
			}
		})
	}
}

func TestDeleteOldest(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 4; i++ {
				if err := store.Save(ctx, record(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), 0)); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}

			deleted, err := store.DeleteOldest(ctx, 3)
			if err != nil {
				t.Fatalf("DeleteOldest() error = %v", err)
			}
			if deleted != 3 {
				t.Errorf("deleted = %d, want 3", deleted)
			}

			remaining, err := store.List(ctx, nil)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(remaining) != 1 || remaining[0].ID != "d" {
				t.Errorf("remaining = %v, want [d]", ids(remaining))
			}
			if err := store.Verify(ctx); err != nil {
				t.Errorf("Verify() after prune error = %v", err)
			}
		})
	}
}

func TestSQLiteReopenPreservesChain(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteStore(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	first := record("run-1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	second := record("run-2", time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC), 2)
	if err := reopened.Save(ctx, second); err != nil {
		t.Fatalf("Save() after reopen error = %v", err)
	}
	if second.PrevHash != first.Hash {
		t.Errorf("chain not continued across reopen: PrevHash = %q, want %q", second.PrevHash, first.Hash)
	}
	if err := reopened.Verify(ctx); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}
