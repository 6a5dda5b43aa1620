package vectordb

import (
	"strconv"

	"github.com/mkarrett/codescope/internal/segment"
)

// Metadata describes the segment an item was embedded from. It mirrors
// the segment minus its content, which is stored separately.
type Metadata struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	FilePath    string `json:"file_path"`
	ContentHash string `json:"content_hash"`
	Language    string `json:"language,omitempty"`
	StartLine   int    `json:"start_line,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	Context     string `json:"context,omitempty"`
}

// IndexItem is the store-resident record of one segment: created on first
// successful embed+upsert, replaced in place on update, removed on delete.
type IndexItem struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata Metadata  `json:"metadata"`
	Content  string    `json:"content,omitempty"`
}

// NewItem builds an IndexItem from a segment and its embedding vector.
func NewItem(seg segment.Segment, vector []float32) IndexItem {
	return IndexItem{
		ID:      seg.ID,
		Vector:  vector,
		Content: seg.Content,
		Metadata: Metadata{
			Kind:        string(seg.Kind),
			Name:        seg.Name,
			FilePath:    seg.FilePath,
			ContentHash: seg.ContentHash,
			Language:    seg.Language,
			StartLine:   seg.StartLine,
			EndLine:     seg.EndLine,
			Context:     seg.Context,
		},
	}
}

// metadataToMap flattens Metadata for backends that store string maps.
func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"kind":         m.Kind,
		"name":         m.Name,
		"file_path":    m.FilePath,
		"content_hash": m.ContentHash,
		"language":     m.Language,
		"start_line":   strconv.Itoa(m.StartLine),
		"end_line":     strconv.Itoa(m.EndLine),
		"context":      m.Context,
	}
}

// mapToMetadata is the inverse of metadataToMap.
func mapToMetadata(m map[string]string) Metadata {
	startLine, _ := strconv.Atoi(m["start_line"])
	endLine, _ := strconv.Atoi(m["end_line"])
	return Metadata{
		Kind:        m["kind"],
		Name:        m["name"],
		FilePath:    m["file_path"],
		ContentHash: m["content_hash"],
		Language:    m["language"],
		StartLine:   startLine,
		EndLine:     endLine,
		Context:     m["context"],
	}
}
