package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/segment"
	"github.com/mkarrett/codescope/internal/syncer"
	"github.com/mkarrett/codescope/internal/vectordb"
)

// mockEmbedder implements embeddings.Embedder for testing.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 0, 0}
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }
func (m *mockEmbedder) Close() error    { return nil }

// mockStore implements vectordb.Store for testing.
type mockStore struct {
	results []vectordb.SearchResult
}

func (m *mockStore) Upsert(_ context.Context, _ []vectordb.IndexItem) error { return nil }
func (m *mockStore) Delete(_ context.Context, _ []string) error             { return nil }
func (m *mockStore) Get(_ context.Context, _ string) (vectordb.IndexItem, error) {
	return vectordb.IndexItem{}, vectordb.ErrNotFound
}
func (m *mockStore) Count() int   { return len(m.results) }
func (m *mockStore) Close() error { return nil }

func (m *mockStore) Query(_ context.Context, _ []float32, k int) ([]vectordb.SearchResult, error) {
	if k > len(m.results) {
		k = len(m.results)
	}
	return m.results[:k], nil
}

func newTestMCPServer(t *testing.T, store *mockStore) *Server {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.js"), []byte("function foo() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pipeline := retrieve.New(&mockEmbedder{}, store, retrieve.Config{RepoRoot: root})
	sync := syncer.New(segment.NewRouter(), &mockEmbedder{}, store, nil, syncer.Config{
		RepoRoot: root,
		IndexDir: filepath.Join(root, ".codescope", "default"),
	})
	return NewServer(pipeline, sync)
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_code", searchCodeTool, "search_code"},
		{"get_context", getContextTool, "get_context"},
		{"index_status", indexStatusTool, "index_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestMCPServer(t, &mockStore{})

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleSearchCode(t *testing.T) {
	store := &mockStore{
		results: []vectordb.SearchResult{
			{
				Item: vectordb.IndexItem{
					ID:      "1",
					Content: "function foo() {}",
					Metadata: vectordb.Metadata{
						Kind:      "function",
						Name:      "foo",
						FilePath:  "a.js",
						StartLine: 1,
					},
				},
				Similarity: 0.95,
			},
		},
	}
	srv := newTestMCPServer(t, store)
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "where is foo",
		}

		result, err := srv.handleSearchCode(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchCode(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		emptySrv := newTestMCPServer(t, &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "anything",
		}

		result, err := emptySrv.handleSearchCode(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Errorf("empty store should hint at syncing, not error: %v", result.Content)
		}
	})
}

func TestHandleIndexStatus(t *testing.T) {
	srv := newTestMCPServer(t, &mockStore{})

	req := mcp.CallToolRequest{}
	result, err := srv.handleIndexStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}

func TestFormatMatches(t *testing.T) {
	out := formatMatches([]retrieve.Match{
		{Kind: "function", Name: "foo", FilePath: "a.js", StartLine: 3, Similarity: 0.9, Snippet: "function foo() {"},
	})
	for _, want := range []string{"foo", "a.js:3", "0.900"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
}
