// Package retrieve answers natural-language queries against a populated
// vector store and assembles the matches into a byte-bounded context
// bundle suitable for prompting.
package retrieve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkarrett/codescope/internal/embeddings"
	"github.com/mkarrett/codescope/internal/vectordb"
)

// DefaultTopK is the number of nearest segments fetched per query.
const DefaultTopK = 10

// DefaultMaxBundleBytes caps the assembled context bundle (64 KB).
const DefaultMaxBundleBytes = 64 << 10

// Config controls a retrieval pipeline.
type Config struct {
	RepoRoot       string // where to read current file contents from; empty disables file loading
	TopK           int
	MaxBundleBytes int
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxBundleBytes <= 0 {
		c.MaxBundleBytes = DefaultMaxBundleBytes
	}
}

// Match is one scored search hit.
type Match struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line,omitempty"`
	EndLine    int     `json:"end_line,omitempty"`
	Similarity float32 `json:"similarity"`
	Snippet    string  `json:"snippet,omitempty"`
}

// FileContext is one file's contribution to the bundle.
type FileContext struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// Answer is the retrieval pipeline's output: the ranked matches plus the
// assembled bundle. Warnings report skipped files; they never fail the
// query, because the index describes a repository state that may have
// moved on since the last sync.
type Answer struct {
	Query    string        `json:"query"`
	Matches  []Match       `json:"matches"`
	Files    []FileContext `json:"files,omitempty"`
	Bundle   string        `json:"bundle,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Pipeline embeds queries and searches a store. The store may be the
// persistent index or an imported snapshot; the pipeline cannot tell the
// difference.
type Pipeline struct {
	embedder embeddings.Embedder
	store    vectordb.Store
	cfg      Config
}

// New creates a retrieval pipeline.
func New(embedder embeddings.Embedder, store vectordb.Store, cfg Config) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{embedder: embedder, store: store, cfg: cfg}
}

// Query runs one retrieval: embed the query text, fetch the top-k nearest
// segments, and assemble the context bundle from the current contents of
// the matched files, deduplicated by path in ranking order.
func (p *Pipeline) Query(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: provider returned %d vectors", len(vectors))
	}

	results, err := p.store.Query(ctx, vectors[0], p.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	answer := &Answer{Query: query}
	for _, r := range results {
		answer.Matches = append(answer.Matches, Match{
			ID:         r.Item.ID,
			Name:       r.Item.Metadata.Name,
			Kind:       r.Item.Metadata.Kind,
			FilePath:   r.Item.Metadata.FilePath,
			StartLine:  r.Item.Metadata.StartLine,
			EndLine:    r.Item.Metadata.EndLine,
			Similarity: r.Similarity,
			Snippet:    snippet(r.Item.Content),
		})
	}

	if p.cfg.RepoRoot != "" {
		p.assembleBundle(answer)
	}
	return answer, nil
}

// assembleBundle reads the current content of each matched file, highest
// ranked first, one entry per file, until the byte budget is spent.
func (p *Pipeline) assembleBundle(answer *Answer) {
	seen := make(map[string]bool)
	remaining := p.cfg.MaxBundleBytes

	var b strings.Builder
	for _, match := range answer.Matches {
		if seen[match.FilePath] {
			continue
		}
		seen[match.FilePath] = true

		content, err := os.ReadFile(filepath.Join(p.cfg.RepoRoot, filepath.FromSlash(match.FilePath)))
		if err != nil {
			answer.Warnings = append(answer.Warnings,
				fmt.Sprintf("skipping %s: no longer readable", match.FilePath))
			continue
		}

		header := fmt.Sprintf("=== %s ===\n", match.FilePath)
		if len(header) >= remaining {
			break
		}

		fc := FileContext{FilePath: match.FilePath, Content: string(content)}
		if len(header)+len(fc.Content) > remaining {
			fc.Content = strings.ToValidUTF8(fc.Content[:remaining-len(header)], "")
			fc.Truncated = true
		}

		b.WriteString(header)
		b.WriteString(fc.Content)
		if !strings.HasSuffix(fc.Content, "\n") {
			b.WriteString("\n")
		}
		remaining -= len(header) + len(fc.Content)

		answer.Files = append(answer.Files, fc)
		if remaining <= 0 {
			break
		}
	}

	answer.Bundle = b.String()
}

// snippet returns the first few lines of a segment for display.
func snippet(content string) string {
	const maxLines = 3
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
