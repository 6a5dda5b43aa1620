package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Export writes the given items as a portable JSON snapshot: a single
// array of {id, vector, metadata, content} records. The snapshot is
// self-contained and carries no store-internal structure.
func Export(ctx context.Context, store Store, ids []string, path string) (int, error) {
	items := make([]IndexItem, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		item, err := store.Get(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("export %s: %w", id, err)
		}
		items = append(items, item)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return len(items), nil
}

// Import loads a snapshot produced by Export into a fresh ephemeral
// in-memory store. The retrieval pipeline runs against the returned
// store without modification.
func Import(ctx context.Context, path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var items []IndexItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	store, err := NewMemoryStore()
	if err != nil {
		return nil, err
	}
	if err := store.Upsert(ctx, items); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return store, nil
}
