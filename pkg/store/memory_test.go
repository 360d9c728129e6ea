package store

import (
	"context"
	"testing"
)

func TestMemoryInsertGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{ID: NewID(), Kind: "user", Attrs: map[string]any{"name": "Alice"}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("expected timestamps on insert")
	}

	loaded, err := st.Get(ctx, "user", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Attrs["name"] != "Alice" {
		t.Errorf("attrs = %v", loaded.Attrs)
	}

	// Returned records are copies.
	loaded.Attrs["name"] = "Mallory"
	again, _ := st.Get(ctx, "user", rec.ID)
	if again.Attrs["name"] != "Alice" {
		t.Error("Get must return an independent copy")
	}
}

func TestMemoryUpdate(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{ID: "u1", Kind: "user", Attrs: map[string]any{"name": "Old"}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	created := rec.CreatedAt

	rec.Attrs["name"] = "New"
	if err := st.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	loaded, _ := st.Get(ctx, "user", "u1")
	if loaded.Attrs["name"] != "New" {
		t.Errorf("attrs = %v", loaded.Attrs)
	}
	if !loaded.CreatedAt.Equal(created) {
		t.Error("update must preserve the creation time")
	}

	missing := &Record{ID: "nope", Kind: "user", Attrs: map[string]any{}}
	if err := st.Update(ctx, missing); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestMemoryNotFound(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.Get(context.Background(), "user", "nope")
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
	if err.Error() != `store: user "nope" not found` {
		t.Errorf("message = %q", err.Error())
	}
}

func TestMemoryRelations(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{ID: "u1", Kind: "user", Attrs: map[string]any{}}
	if err := st.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := st.SetRelated(ctx, "user", "u1", "groups", []string{"g2", "g1"}); err != nil {
		t.Fatalf("SetRelated: %v", err)
	}
	ids, err := st.Related(ctx, "user", "u1", "groups")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "g2" || ids[1] != "g1" {
		t.Errorf("order must be preserved, got %v", ids)
	}

	// Replacement, not accumulation.
	if err := st.SetRelated(ctx, "user", "u1", "groups", []string{"g3"}); err != nil {
		t.Fatal(err)
	}
	ids, _ = st.Related(ctx, "user", "u1", "groups")
	if len(ids) != 1 || ids[0] != "g3" {
		t.Errorf("related = %v", ids)
	}

	if err := st.SetRelated(ctx, "user", "missing", "groups", nil); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}
