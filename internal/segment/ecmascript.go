package segment

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type esDialect int

const (
	dialectJavaScript esDialect = iota
	dialectTypeScript
	dialectTSX
)

func (d esDialect) String() string {
	switch d {
	case dialectTypeScript:
		return "typescript"
	case dialectTSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// esFunctionNodes are the tree-sitter node types emitted as function
// segments. variable_declarator is handled separately because it only
// counts when its value is a function.
var esFunctionNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"method_definition":              true,
}

// esClassNodes are the node types emitted as class segments.
var esClassNodes = map[string]bool{
	"class_declaration":          true,
	"abstract_class_declaration": true,
	"interface_declaration":      true,
}

// esFunctionValues are declarator value types that make a variable
// declaration function-like (const f = () => {...}).
var esFunctionValues = map[string]bool{
	"arrow_function":      true,
	"function":            true,
	"function_expression": true,
	"generator_function":  true,
}

// esModifierTokens are anonymous keyword children captured into a
// segment's context for display.
var esModifierTokens = map[string]bool{
	"async":  true,
	"static": true,
	"get":    true,
	"set":    true,
}

// ecmascriptStrategy parses ECMAScript-family sources with tree-sitter
// (which recovers from localized syntax errors) and extracts function and
// class declarations, including nested ones.
type ecmascriptStrategy struct {
	lang    *sitter.Language
	dialect esDialect
}

func newECMAScriptStrategy(dialect esDialect) *ecmascriptStrategy {
	s := &ecmascriptStrategy{dialect: dialect}
	switch dialect {
	case dialectTypeScript:
		s.lang = typescript.GetLanguage()
	case dialectTSX:
		s.lang = tsx.GetLanguage()
	default:
		s.lang = javascript.GetLanguage()
	}
	return s
}

func (s *ecmascriptStrategy) Name() string {
	return "ast/" + s.dialect.String()
}

func (s *ecmascriptStrategy) Segment(ctx context.Context, content []byte, filePath string) ([]RawSegment, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(s.lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: filePath, Reason: "parser returned no syntax tree"}
	}

	var segs []RawSegment
	collectES(root, content, &segs)

	// Error recovery usually salvages the intact declarations. Only when
	// nothing at all could be extracted from a broken file do we fail the
	// file, since silently indexing nothing would hide it from retrieval.
	if root.HasError() && len(segs) == 0 {
		return nil, &ParseError{Path: filePath, Reason: "unrecoverable syntax errors"}
	}

	return segs, nil
}

// collectES walks every descendant so nested declarations (a method inside
// a class, a closure inside a function) are each emitted independently.
func collectES(n *sitter.Node, content []byte, out *[]RawSegment) {
	nodeType := n.Type()

	switch {
	case esFunctionNodes[nodeType]:
		*out = append(*out, esSegment(n, content, KindFunction, esNodeName(n, content)))
	case esClassNodes[nodeType]:
		*out = append(*out, esSegment(n, content, KindClass, esNodeName(n, content)))
	case nodeType == "variable_declarator":
		if value := n.ChildByFieldName("value"); value != nil && esFunctionValues[value.Type()] {
			*out = append(*out, esSegment(n, content, KindFunction, esNodeName(n, content)))
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		collectES(n.Child(i), content, out)
	}
}

func esSegment(n *sitter.Node, content []byte, kind Kind, name string) RawSegment {
	return RawSegment{
		Kind:      kind,
		Name:      name,
		Content:   n.Content(content),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Context:   esContext(n),
	}
}

func esNodeName(n *sitter.Node, content []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(content)
	}
	return AnonymousName
}

// esContext gathers keyword modifiers ("async", "static") plus "export"
// when the declaration sits inside an export statement.
func esContext(n *sitter.Node) string {
	var parts []string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && esModifierTokens[child.Type()] {
			parts = append(parts, child.Type())
		}
	}
	if parent := n.Parent(); parent != nil && parent.Type() == "export_statement" {
		parts = append(parts, "export")
	}
	return strings.Join(parts, " ")
}
