package segment

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
)

// walkLanguage describes one language handled by the generic tree-walker:
// its grammar and the set of node types that become segments.
type walkLanguage struct {
	name        string
	grammar     func() *sitter.Language
	interesting map[string]Kind
}

var (
	languageGo = walkLanguage{
		name:    "go",
		grammar: golang.GetLanguage,
		interesting: map[string]Kind{
			"function_declaration": KindFunction,
			"method_declaration":   KindFunction,
			"type_spec":            KindClass,
		},
	}

	languagePython = walkLanguage{
		name:    "python",
		grammar: python.GetLanguage,
		interesting: map[string]Kind{
			"function_definition": KindFunction,
			"class_definition":    KindClass,
		},
	}

	languageRust = walkLanguage{
		name:    "rust",
		grammar: rust.GetLanguage,
		interesting: map[string]Kind{
			"function_item": KindFunction,
			"struct_item":   KindClass,
			"enum_item":     KindClass,
			"trait_item":    KindClass,
		},
	}
)

// treeWalkStrategy is the generic non-ECMAScript strategy: parse with the
// language grammar, walk the whole tree, and emit a segment for every node
// whose type is in the language's interesting set. The walk always visits
// every descendant so nested declarations are emitted independently.
type treeWalkStrategy struct {
	lang walkLanguage
}

func newTreeWalkStrategy(lang walkLanguage) *treeWalkStrategy {
	return &treeWalkStrategy{lang: lang}
}

func (s *treeWalkStrategy) Name() string {
	return "treewalk/" + s.lang.name
}

func (s *treeWalkStrategy) Segment(ctx context.Context, content []byte, filePath string) ([]RawSegment, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(s.lang.grammar())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var segs []RawSegment
	s.walk(root, content, &segs)
	return segs, nil
}

func (s *treeWalkStrategy) walk(n *sitter.Node, content []byte, out *[]RawSegment) {
	if kind, ok := s.lang.interesting[n.Type()]; ok {
		name := AnonymousName
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = nameNode.Content(content)
		}
		*out = append(*out, RawSegment{
			Kind:      kind,
			Name:      name,
			Content:   n.Content(content),
			StartLine: int(n.StartPoint().Row) + 1,
			EndLine:   int(n.EndPoint().Row) + 1,
			Context:   s.context(n, content),
		})
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		s.walk(n.Child(i), content, out)
	}
}

// context captures a method's receiver (Go) or decorators (Python) for
// display; the diff and embedding logic never look at it.
func (s *treeWalkStrategy) context(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case "method_declaration":
		if recv := n.ChildByFieldName("receiver"); recv != nil {
			return recv.Content(content)
		}
	case "function_definition", "class_definition":
		if parent := n.Parent(); parent != nil && parent.Type() == "decorated_definition" && parent.ChildCount() > 0 {
			if first := parent.Child(0); first.Type() == "decorator" {
				return first.Content(content)
			}
		}
	}
	return ""
}
