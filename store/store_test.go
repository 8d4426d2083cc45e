package store

import (
	"context"
	"testing"

	"github.com/viant/vptree/engine"
	"github.com/viant/vptree/index"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db, index.MetricEuclidean)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestSQLiteStore_AddSearchRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vectors := []Vector{
		{ID: "origin", Embedding: []float32{0, 0}},
		{ID: "close", Embedding: []float32{1, 1}},
		{ID: "far", Embedding: []float32{50, 50}},
	}
	if err := store.Add(ctx, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	matches, err := store.Search(ctx, []float32{0.5, 0.5}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Search returned %d matches, want 2", len(matches))
	}
	if matches[0].ID != "origin" && matches[0].ID != "close" {
		t.Errorf("Search best match = %s, want origin or close", matches[0].ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("Search scores not descending: %v then %v", matches[0].Score, matches[1].Score)
	}

	removed := matches[0].ID
	if err := store.Remove(ctx, removed); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	matches, err = store.Search(ctx, []float32{0.5, 0.5}, 10)
	if err != nil {
		t.Fatalf("Search after Remove failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Search after Remove returned %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.ID == removed {
			t.Fatalf("removed id %s still returned", removed)
		}
	}
}

func TestSQLiteStore_UpsertRefreshesIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, []Vector{
		{ID: "a", Embedding: []float32{0, 0}},
		{ID: "b", Embedding: []float32{10, 10}},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	matches, err := store.Search(ctx, []float32{9, 9}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if matches[0].ID != "b" {
		t.Fatalf("Search best match = %s, want b", matches[0].ID)
	}

	// Moving a across the plane must be visible on the next search.
	if err := store.Add(ctx, []Vector{{ID: "a", Embedding: []float32{9, 9}}}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	matches, err = store.Search(ctx, []float32{9, 9}, 1)
	if err != nil {
		t.Fatalf("Search after upsert failed: %v", err)
	}
	if matches[0].ID != "a" {
		t.Fatalf("Search best match after upsert = %s, want a", matches[0].ID)
	}
}

func TestSQLiteStore_MatchesSQLDistance(t *testing.T) {
	if err := engine.RegisterDistanceFunctions(); err != nil {
		t.Fatalf("RegisterDistanceFunctions failed: %v", err)
	}
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db, index.MetricEuclidean)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	ctx := context.Background()

	vectors := []Vector{
		{ID: "v1", Embedding: []float32{1, 2}},
		{ID: "v2", Embedding: []float32{3, 1}},
		{ID: "v3", Embedding: []float32{-4, 7}},
		{ID: "v4", Embedding: []float32{0, -2}},
		{ID: "v5", Embedding: []float32{6, 6}},
	}
	if err := store.Add(ctx, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	query := []float32{1, 1}
	matches, err := store.Search(ctx, query, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	blob, err := EncodeEmbedding(query)
	if err != nil {
		t.Fatalf("EncodeEmbedding failed: %v", err)
	}
	rows, err := db.QueryContext(ctx, `SELECT id FROM vectors ORDER BY vpt_l2(embedding, ?) LIMIT 3`, blob)
	if err != nil {
		t.Fatalf("SQL distance query failed: %v", err)
	}
	defer rows.Close()

	var want []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		want = append(want, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows failed: %v", err)
	}

	if len(matches) != len(want) {
		t.Fatalf("index returned %d matches, SQL %d", len(matches), len(want))
	}
	for i := range want {
		if matches[i].ID != want[i] {
			t.Errorf("match %d = %s, SQL order %s", i, matches[i].ID, want[i])
		}
	}
}

func TestSQLiteStore_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, []Vector{{ID: "", Embedding: []float32{1}}}); err == nil {
		t.Error("Add with empty id succeeded, want error")
	}
	if err := store.Add(ctx, []Vector{{ID: "x"}}); err == nil {
		t.Error("Add with empty embedding succeeded, want error")
	}
	if err := store.Remove(ctx, ""); err == nil {
		t.Error("Remove with empty id succeeded, want error")
	}

	// An empty store searches clean.
	matches, err := store.Search(ctx, []float32{1, 2}, 5)
	if err != nil {
		t.Fatalf("Search on empty store failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("Search on empty store returned %d matches, want 0", len(matches))
	}
}
