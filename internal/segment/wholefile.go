package segment

import (
	"context"
	"path"
	"strings"
)

// wholeFileStrategy emits a single file-kind segment covering the entire
// content. It is the universal fallback: every indexed file contributes at
// least one retrievable unit, even when no sub-file structure is known.
type wholeFileStrategy struct{}

func (wholeFileStrategy) Name() string { return "wholefile" }

func (wholeFileStrategy) Segment(_ context.Context, content []byte, filePath string) ([]RawSegment, error) {
	text := string(content)
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	if len(text) == 0 {
		lines = 0
	}

	return []RawSegment{{
		Kind:      KindFile,
		Name:      path.Base(filePath),
		Content:   text,
		StartLine: 1,
		EndLine:   lines,
	}}, nil
}
