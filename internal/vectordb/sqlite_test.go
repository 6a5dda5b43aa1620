package vectordb

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	a := testItem("a.go", "alpha", []float32{1, 0, 0})
	b := testItem("b.go", "beta", []float32{0, 1, 0})
	if err := store.Upsert(ctx, []IndexItem{a, b}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("count = %d, want 2", store.Count())
	}

	got, err := store.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Metadata.Name != "alpha" || got.Metadata.StartLine != 1 {
		t.Errorf("metadata did not round-trip: %+v", got.Metadata)
	}
	if len(got.Vector) != 3 || got.Vector[0] != 1 {
		t.Errorf("vector did not round-trip: %v", got.Vector)
	}

	results, err := store.Query(ctx, []float32{0.9, 0.1, 0}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 || results[0].Item.ID != a.ID {
		t.Errorf("nearest neighbour should be alpha, got %+v", results)
	}

	if err := store.Delete(ctx, []string{a.ID, "no-such-id"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted item lookup = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	item := testItem("a.go", "alpha", []float32{1, 0, 0})
	if err := store.Upsert(ctx, []IndexItem{item}); err != nil {
		t.Fatal(err)
	}

	item.Vector = []float32{0, 0, 1}
	item.Metadata.ContentHash = "updated"
	if err := store.Upsert(ctx, []IndexItem{item}); err != nil {
		t.Fatalf("replacing upsert: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("count = %d after replace, want 1", store.Count())
	}
	got, err := store.Get(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.ContentHash != "updated" || got.Vector[2] != 1 {
		t.Error("replace did not update the row")
	}
}

func TestVectorSerializationRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.14159, -2.5e-7}
	out := deserializeVector(serializeVector(in))

	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
