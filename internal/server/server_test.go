package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/segment"
	"github.com/mkarrett/codescope/internal/syncer"
	"github.com/mkarrett/codescope/internal/vectordb"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int { return 3 }
func (stubEmbedder) Name() string    { return "stub" }
func (stubEmbedder) Close() error    { return nil }

type stubStore struct {
	results []vectordb.SearchResult
}

func (s *stubStore) Upsert(ctx context.Context, items []vectordb.IndexItem) error { return nil }
func (s *stubStore) Delete(ctx context.Context, ids []string) error               { return nil }
func (s *stubStore) Get(ctx context.Context, id string) (vectordb.IndexItem, error) {
	return vectordb.IndexItem{}, vectordb.ErrNotFound
}
func (s *stubStore) Count() int   { return len(s.results) }
func (s *stubStore) Close() error { return nil }

func (s *stubStore) Query(ctx context.Context, vector []float32, k int) ([]vectordb.SearchResult, error) {
	if k > len(s.results) {
		k = len(s.results)
	}
	return s.results[:k], nil
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.js"), []byte("function foo() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &stubStore{results: []vectordb.SearchResult{
		{
			Item: vectordb.IndexItem{
				ID:      "id1",
				Content: "function foo() {}",
				Metadata: vectordb.Metadata{
					Kind:     "function",
					Name:     "foo",
					FilePath: "a.js",
				},
			},
			Similarity: 0.9,
		},
	}}

	pipeline := retrieve.New(stubEmbedder{}, store, retrieve.Config{RepoRoot: root})
	sync := syncer.New(segment.NewRouter(), stubEmbedder{}, store, nil, syncer.Config{
		RepoRoot: root,
		IndexDir: filepath.Join(root, ".codescope", "default"),
	})

	return New(Config{Port: 0}, pipeline, sync, store), root
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestQueryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"query": "where is foo defined"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/query", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var answer retrieve.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(answer.Matches) != 1 || answer.Matches[0].Name != "foo" {
		t.Errorf("matches = %+v", answer.Matches)
	}
}

func TestQueryEndpointRejectsBadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Nothing has been synced, so the segments found on disk are pending.
	if status.Segments == 0 || status.Added == 0 || status.UpToDate {
		t.Errorf("status = %+v, want pending additions", status)
	}
}
