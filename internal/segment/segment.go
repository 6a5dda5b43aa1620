package segment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mkarrett/codescope/internal/walker"
)

// Kind categorizes the unit of code a segment covers.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindFile     Kind = "file"
)

// AnonymousName is used when a symbol name cannot be recovered.
const AnonymousName = "anonymous"

// Segment is a single indexable unit of source code.
type Segment struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	FilePath    string `json:"file_path"` // repository-relative, forward slashes
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"`
	Language    string `json:"language,omitempty"`
	StartLine   int    `json:"start_line,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	Context     string `json:"context,omitempty"` // modifiers such as "async", "static"
}

// RawSegment is a strategy's output before identity assignment.
type RawSegment struct {
	Kind      Kind
	Name      string
	Content   string
	StartLine int
	EndLine   int
	Context   string
}

// Strategy extracts raw segments from a single file's content.
//
// A strategy may return zero segments for files with no extractable
// declarations; the Router turns that into a whole-file fallback segment.
type Strategy interface {
	Name() string
	Segment(ctx context.Context, content []byte, filePath string) ([]RawSegment, error)
}

// ParseError reports an unrecoverable parse failure for one file. It is
// surfaced instead of an empty result so callers can decide whether to
// abort the run or skip the file.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Router dispatches files to a language-appropriate segmentation strategy
// by extension and normalizes the result: occurrence indexes, stable ids,
// content hashes, and a whole-file fallback when a strategy finds nothing.
type Router struct {
	strategies map[string]Strategy // extension (including dot) -> strategy
	fallback   Strategy
}

// NewRouter creates a Router with the default strategy table: the AST
// strategy for ECMAScript-family extensions, the generic tree-walker for
// other supported languages, and whole-file for everything else.
func NewRouter() *Router {
	r := &Router{
		strategies: make(map[string]Strategy),
		fallback:   wholeFileStrategy{},
	}

	register := func(s Strategy, exts ...string) {
		for _, ext := range exts {
			r.strategies[ext] = s
		}
	}

	register(newECMAScriptStrategy(dialectJavaScript), ".js", ".jsx", ".mjs", ".cjs")
	register(newECMAScriptStrategy(dialectTypeScript), ".ts", ".mts")
	register(newECMAScriptStrategy(dialectTSX), ".tsx")
	register(newTreeWalkStrategy(languageGo), ".go")
	register(newTreeWalkStrategy(languagePython), ".py", ".pyi")
	register(newTreeWalkStrategy(languageRust), ".rs")

	return r
}

// Register installs a strategy for the given extension, replacing any
// existing mapping. Extensions must include the leading dot.
func (r *Router) Register(ext string, s Strategy) {
	r.strategies[strings.ToLower(ext)] = s
}

// StrategyFor returns the strategy that would handle the given path.
func (r *Router) StrategyFor(path string) Strategy {
	ext := strings.ToLower(filepath.Ext(path))
	if s, ok := r.strategies[ext]; ok {
		return s
	}
	return r.fallback
}

// SegmentFile slices one file into segments. It never returns an empty,
// nil-error result: files without extractable declarations yield exactly
// one file-kind segment covering the full content. A *ParseError is
// returned when the AST strategy cannot recover anything from a broken
// file; all other inputs degrade instead of failing.
func (r *Router) SegmentFile(ctx context.Context, relPath string, content []byte) ([]Segment, error) {
	relPath = filepath.ToSlash(relPath)
	strategy := r.StrategyFor(relPath)

	raw, err := strategy.Segment(ctx, content, relPath)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 && strategy != r.fallback {
		raw, err = r.fallback.Segment(ctx, content, relPath)
		if err != nil {
			return nil, err
		}
	}

	language := walker.DetectLanguage(relPath)

	// Occurrence indexes disambiguate repeated names (overloads, nested
	// closures) within one file. Assignment follows traversal order, which
	// tree-sitter keeps deterministic for unchanged input.
	occurrences := make(map[string]int)
	segments := make([]Segment, 0, len(raw))
	for _, rs := range raw {
		name := rs.Name
		if name == "" {
			name = AnonymousName
		}
		occurrences[name]++
		occ := occurrences[name]

		segments = append(segments, Segment{
			ID:          ID(relPath, name, occ),
			Kind:        rs.Kind,
			Name:        name,
			FilePath:    relPath,
			Content:     rs.Content,
			ContentHash: HashContent(rs.Content),
			Language:    language,
			StartLine:   rs.StartLine,
			EndLine:     rs.EndLine,
			Context:     rs.Context,
		})
	}

	return segments, nil
}
