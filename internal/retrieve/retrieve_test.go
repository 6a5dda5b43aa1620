package retrieve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarrett/codescope/internal/vectordb"
)

// fixedEmbedder returns the same vector for every input.
type fixedEmbedder struct {
	fail bool
}

func (e *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, errors.New("provider unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (e *fixedEmbedder) Dimensions() int { return 3 }
func (e *fixedEmbedder) Name() string    { return "fixed" }
func (e *fixedEmbedder) Close() error    { return nil }

// rankedStore returns a preset result list for any query.
type rankedStore struct {
	results []vectordb.SearchResult
}

func (s *rankedStore) Upsert(ctx context.Context, items []vectordb.IndexItem) error { return nil }
func (s *rankedStore) Delete(ctx context.Context, ids []string) error               { return nil }
func (s *rankedStore) Get(ctx context.Context, id string) (vectordb.IndexItem, error) {
	return vectordb.IndexItem{}, vectordb.ErrNotFound
}
func (s *rankedStore) Count() int   { return len(s.results) }
func (s *rankedStore) Close() error { return nil }

func (s *rankedStore) Query(ctx context.Context, vector []float32, k int) ([]vectordb.SearchResult, error) {
	if k > len(s.results) {
		k = len(s.results)
	}
	return s.results[:k], nil
}

func result(id, name, filePath string, sim float32) vectordb.SearchResult {
	return vectordb.SearchResult{
		Item: vectordb.IndexItem{
			ID:      id,
			Content: "func " + name + "() {}",
			Metadata: vectordb.Metadata{
				Kind:     "function",
				Name:     name,
				FilePath: filePath,
			},
		},
		Similarity: sim,
	}
}

func TestQueryRanksAndDedupes(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"a.go", "b.go"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("package main\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := &rankedStore{results: []vectordb.SearchResult{
		result("1", "alpha", "a.go", 0.9),
		result("2", "beta", "a.go", 0.8),
		result("3", "gamma", "b.go", 0.7),
	}}
	p := New(&fixedEmbedder{}, store, Config{RepoRoot: root})

	answer, err := p.Query(context.Background(), "how does alpha work")
	if err != nil {
		t.Fatal(err)
	}

	if len(answer.Matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(answer.Matches))
	}
	// Two matches share a.go; the bundle must contain each file once.
	if len(answer.Files) != 2 {
		t.Fatalf("bundle files = %d, want 2 (deduplicated)", len(answer.Files))
	}
	if answer.Files[0].FilePath != "a.go" || answer.Files[1].FilePath != "b.go" {
		t.Errorf("bundle order = %v, want ranking order", answer.Files)
	}
	if strings.Count(answer.Bundle, "=== a.go ===") != 1 {
		t.Error("a.go appears more than once in the bundle")
	}
}

func TestQueryMissingFileWarnsAndContinues(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "b.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &rankedStore{results: []vectordb.SearchResult{
		result("1", "alpha", "gone.go", 0.9),
		result("2", "beta", "b.go", 0.8),
	}}
	p := New(&fixedEmbedder{}, store, Config{RepoRoot: root})

	answer, err := p.Query(context.Background(), "find alpha")
	if err != nil {
		t.Fatalf("missing file must not fail the query: %v", err)
	}

	if len(answer.Warnings) != 1 || !strings.Contains(answer.Warnings[0], "gone.go") {
		t.Errorf("warnings = %v, want one mentioning gone.go", answer.Warnings)
	}
	if len(answer.Files) != 1 || answer.Files[0].FilePath != "b.go" {
		t.Errorf("remaining file not bundled: %+v", answer.Files)
	}
	// The match itself is still reported even though the file is gone.
	if len(answer.Matches) != 2 {
		t.Errorf("matches = %d, want 2", len(answer.Matches))
	}
}

func TestQueryBundleByteBound(t *testing.T) {
	root := t.TempDir()
	big := strings.Repeat("x", 4096)
	for _, f := range []string{"a.go", "b.go"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte(big), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := &rankedStore{results: []vectordb.SearchResult{
		result("1", "alpha", "a.go", 0.9),
		result("2", "beta", "b.go", 0.8),
	}}
	p := New(&fixedEmbedder{}, store, Config{RepoRoot: root, MaxBundleBytes: 1024})

	answer, err := p.Query(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}

	if len(answer.Bundle) > 1024+1 { // trailing newline allowance
		t.Errorf("bundle is %d bytes, budget 1024", len(answer.Bundle))
	}
	if len(answer.Files) != 1 || !answer.Files[0].Truncated {
		t.Errorf("highest ranked file should be included truncated, got %+v", answer.Files)
	}
}

func TestQueryEmptyTextRejected(t *testing.T) {
	p := New(&fixedEmbedder{}, &rankedStore{}, Config{})

	if _, err := p.Query(context.Background(), "   "); err == nil {
		t.Error("blank query must be rejected")
	}
}

func TestQueryEmbedFailureSurfaces(t *testing.T) {
	p := New(&fixedEmbedder{fail: true}, &rankedStore{}, Config{})

	if _, err := p.Query(context.Background(), "anything"); err == nil {
		t.Error("embedder failure must surface")
	}
}

func TestQueryWithoutRepoRootSkipsBundle(t *testing.T) {
	store := &rankedStore{results: []vectordb.SearchResult{
		result("1", "alpha", "a.go", 0.9),
	}}
	p := New(&fixedEmbedder{}, store, Config{})

	answer, err := p.Query(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Bundle != "" || len(answer.Files) != 0 {
		t.Error("bundle assembled without a repository root")
	}
	if len(answer.Matches) != 1 {
		t.Errorf("matches = %d, want 1", len(answer.Matches))
	}
}
