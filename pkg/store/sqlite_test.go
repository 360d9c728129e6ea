package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	rec := &Record{ID: NewID(), Kind: "user", Attrs: map[string]any{"name": "Alice", "age": 30}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	loaded, err := st.Get(ctx, "user", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Attrs["name"] != "Alice" {
		t.Errorf("attrs = %v", loaded.Attrs)
	}
	// JSON round-trips numbers as float64.
	if loaded.Attrs["age"] != float64(30) {
		t.Errorf("age = %v (%T)", loaded.Attrs["age"], loaded.Attrs["age"])
	}
}

func TestSQLiteUpdate(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	rec := &Record{ID: "u1", Kind: "user", Attrs: map[string]any{"name": "Old"}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Attrs["name"] = "New"
	if err := st.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	loaded, _ := st.Get(ctx, "user", "u1")
	if loaded.Attrs["name"] != "New" {
		t.Errorf("attrs = %v", loaded.Attrs)
	}

	missing := &Record{ID: "nope", Kind: "user", Attrs: map[string]any{}}
	if err := st.Update(ctx, missing); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	st := newSQLite(t)
	if _, err := st.Get(context.Background(), "user", "nope"); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestSQLiteRelations(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	rec := &Record{ID: "u1", Kind: "user", Attrs: map[string]any{}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := st.SetRelated(ctx, "user", "u1", "groups", []string{"g2", "g1", "g3"}); err != nil {
		t.Fatalf("SetRelated: %v", err)
	}
	ids, err := st.Related(ctx, "user", "u1", "groups")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "g2" || ids[1] != "g1" || ids[2] != "g3" {
		t.Errorf("order must be preserved, got %v", ids)
	}

	if err := st.SetRelated(ctx, "user", "u1", "groups", nil); err != nil {
		t.Fatal(err)
	}
	ids, _ = st.Related(ctx, "user", "u1", "groups")
	if len(ids) != 0 {
		t.Errorf("expected cleared relation, got %v", ids)
	}

	if err := st.SetRelated(ctx, "user", "missing", "groups", nil); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}
