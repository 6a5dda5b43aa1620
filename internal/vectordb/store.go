// Package vectordb provides the vector store capability consumed by the
// sync and retrieval pipelines: upsert, delete, vector query, and item
// lookup. Backends own their on-disk structure; callers never inspect it.
package vectordb

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested item doesn't exist.
var ErrNotFound = errors.New("item not found")

// Store is the minimal capability the pipelines need. The store is the
// system of record for what is currently indexed; during a sync run it
// has a single writer.
type Store interface {
	// Upsert creates or replaces items in place (same id, new vector
	// and metadata).
	Upsert(ctx context.Context, items []IndexItem) error

	// Delete removes items by id. Unknown ids are not an error.
	Delete(ctx context.Context, ids []string) error

	// Query returns the top-k items by the store's similarity metric.
	Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error)

	// Get fetches a single item by id, or ErrNotFound.
	Get(ctx context.Context, id string) (IndexItem, error)

	// Count returns the number of items currently stored.
	Count() int

	// Close releases the backend's resources.
	Close() error
}

// SearchResult pairs an item with its similarity score.
type SearchResult struct {
	Item       IndexItem
	Similarity float32
}

// WriteError reports a failed upsert or delete. A write failure aborts
// the current sync run's manifest update; previously written items are
// unaffected.
type WriteError struct {
	Op  string // "upsert" or "delete"
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
