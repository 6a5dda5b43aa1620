package vectordb

import (
	"context"
	"errors"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "segments"

// noEmbedFunc guards against accidental text queries on stores that were
// opened without an embedder (imported snapshots). All pipeline queries
// go through QueryEmbedding with a precomputed vector.
var noEmbedFunc chromem.EmbeddingFunc = func(context.Context, string) ([]float32, error) {
	return nil, errors.New("store opened without an embedder")
}

// ChromemStore implements Store using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (creating if needed) the persistent store rooted
// at dir. embedFunc may be nil when the store is only queried by vector.
func NewChromemStore(dir string, embedFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("open chromem store: %w", err)
	}

	return newChromemStore(db, embedFunc)
}

// NewMemoryStore creates an ephemeral in-memory store, used for imported
// snapshots and tests. The retrieval pipeline runs against it unmodified.
func NewMemoryStore() (*ChromemStore, error) {
	return newChromemStore(chromem.NewDB(), nil)
}

func newChromemStore(db *chromem.DB, embedFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	if embedFunc == nil {
		embedFunc = noEmbedFunc
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, items []IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(items))
	for i, item := range items {
		docs[i] = chromem.Document{
			ID:        item.ID,
			Content:   item.Content,
			Embedding: item.Vector,
			Metadata:  metadataToMap(item.Metadata),
		}
	}

	// Embeddings are precomputed, so chromem's own concurrency adds nothing.
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return &WriteError{Op: "upsert", ID: items[0].ID, Err: err}
	}
	return nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
			return &WriteError{Op: "delete", ID: id, Err: err}
		}
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if k > count {
		k = count
	}
	if k <= 0 {
		k = 1
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Item: IndexItem{
				ID:       r.ID,
				Vector:   r.Embedding,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) Get(ctx context.Context, id string) (IndexItem, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		// GetByID fails only for an absent id and chromem-go exposes no
		// sentinel to test for, so any error here means not found.
		return IndexItem{}, fmt.Errorf("chromem get %s: %w", id, ErrNotFound)
	}

	return IndexItem{
		ID:       doc.ID,
		Vector:   doc.Embedding,
		Content:  doc.Content,
		Metadata: mapToMetadata(doc.Metadata),
	}, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Close is a no-op: the persistent chromem DB writes through on every
// mutation.
func (s *ChromemStore) Close() error { return nil }
