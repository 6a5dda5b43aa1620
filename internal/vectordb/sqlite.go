package vectordb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id           TEXT PRIMARY KEY,
    vector       BLOB NOT NULL,
    kind         TEXT NOT NULL,
    name         TEXT NOT NULL,
    file_path    TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    language     TEXT,
    start_line   INTEGER,
    end_line     INTEGER,
    context      TEXT,
    content      TEXT,
    updated_at   TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_file_path ON items(file_path);
`

// SQLiteStore implements Store on an embedded SQLite database. Vectors
// are stored as little-endian float32 blobs and similarity is computed
// in Go, which is plenty for repository-sized indexes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// WAL for read concurrency; single writer suits SQLite.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, items []IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Op: "upsert", ID: items[0].ID, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		INSERT INTO items (id, vector, kind, name, file_path, content_hash,
			language, start_line, end_line, context, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vector = excluded.vector,
			kind = excluded.kind,
			name = excluded.name,
			file_path = excluded.file_path,
			content_hash = excluded.content_hash,
			language = excluded.language,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			context = excluded.context,
			content = excluded.content,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	for _, item := range items {
		m := item.Metadata
		_, err := tx.ExecContext(ctx, query,
			item.ID, serializeVector(item.Vector), m.Kind, m.Name, m.FilePath,
			m.ContentHash, m.Language, m.StartLine, m.EndLine, m.Context,
			item.Content, now)
		if err != nil {
			return &WriteError{Op: "upsert", ID: item.ID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Op: "upsert", ID: items[0].ID, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
			return &WriteError{Op: "delete", ID: id, Err: err}
		}
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vector, kind, name, file_path, content_hash,
		       language, start_line, end_line, context, content
		FROM items`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		item, blob, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		item.Vector = deserializeVector(blob)
		results = append(results, SearchResult{
			Item:       item,
			Similarity: cosineSimilarity(vector, item.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (IndexItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vector, kind, name, file_path, content_hash,
		       language, start_line, end_line, context, content
		FROM items WHERE id = ?`, id)

	item, blob, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return IndexItem{}, ErrNotFound
		}
		return IndexItem{}, fmt.Errorf("sqlite get %s: %w", id, err)
	}
	item.Vector = deserializeVector(blob)
	return item, nil
}

func (s *SQLiteStore) Count() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0
	}
	return count
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (IndexItem, []byte, error) {
	var item IndexItem
	var blob []byte
	var language, context, content sql.NullString
	err := row.Scan(&item.ID, &blob, &item.Metadata.Kind, &item.Metadata.Name,
		&item.Metadata.FilePath, &item.Metadata.ContentHash, &language,
		&item.Metadata.StartLine, &item.Metadata.EndLine, &context, &content)
	if err != nil {
		return IndexItem{}, nil, err
	}
	item.Metadata.Language = language.String
	item.Metadata.Context = context.String
	item.Content = content.String
	return item, blob, nil
}

// serializeVector encodes a float32 slice as a little-endian blob.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector is the inverse of serializeVector.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 for mismatched or zero-magnitude inputs.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
