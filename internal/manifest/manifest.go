// Package manifest persists the id -> content hash map describing what is
// currently represented in the vector store, and diffs it against a fresh
// segmentation run. The store remains the system of record; the manifest
// is a derived cache whose only job is avoiding redundant embedding calls.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the manifest file name inside a profile's index directory.
const FileName = "manifest.json"

// Manifest maps segment id to content hash for one (repository, profile)
// pair. Generation and SyncedAt are bookkeeping for status reporting.
type Manifest struct {
	Generation int               `json:"generation"`
	SyncedAt   time.Time         `json:"synced_at"`
	Entries    map[string]string `json:"entries"`
}

// CorruptError reports an unreadable or malformed manifest file. Callers
// recover by proceeding with the empty manifest Load returns alongside it,
// which triggers a full re-add on the next sync.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("manifest %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Entries: make(map[string]string)}
}

// Path returns the manifest location inside an index directory.
func Path(indexDir string) string {
	return filepath.Join(indexDir, FileName)
}

// Load reads a manifest from disk. A missing file yields an empty manifest
// and no error. A malformed file yields an empty manifest together with a
// *CorruptError so the caller can warn; it is never fatal, because the
// store is the source of truth and a full re-add repairs the cache.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return New(), &CorruptError{Path: path, Err: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return New(), &CorruptError{Path: path, Err: err}
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	return &m, nil
}

// Save writes the manifest atomically (temp file + rename), bumping the
// generation counter and sync timestamp.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("manifest dir: %w", err)
	}

	m.Generation++
	m.SyncedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
