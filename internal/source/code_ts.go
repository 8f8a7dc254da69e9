package source

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor extracts top-level declarations from TypeScript files,
// including exported ones and arrow functions bound with const or let.
type tsExtractor struct{}

var tsKinds = map[string]DeclKind{
	"function_declaration":       DeclFunction,
	"class_declaration":          DeclClass,
	"abstract_class_declaration": DeclClass,
	"interface_declaration":      DeclInterface,
	"type_alias_declaration":     DeclType,
	"enum_declaration":           DeclEnum,
}

func (tsExtractor) Extract(root *tree_sitter.Node, source []byte, path string) []Declaration {
	var decls []Declaration
	namedChildren(root, func(node *tree_sitter.Node) {
		// The export keyword stays in the text of the declaration it wraps.
		outer, inner := node, node
		if node.Kind() == "export_statement" {
			if inner = node.ChildByFieldName("declaration"); inner == nil {
				return
			}
		}

		if inner.Kind() == "lexical_declaration" {
			if name := tsArrowName(inner, source); name != "" {
				decls = append(decls, declaration(outer, source, path, name, DeclFunction))
			}
			return
		}
		kind, ok := tsKinds[inner.Kind()]
		if !ok {
			return
		}
		if name := fieldText(inner, "name", source); name != "" {
			decls = append(decls, declaration(outer, source, path, name, kind))
		}
	})
	return decls
}

// tsArrowName returns the name bound by the first declarator whose value is
// an arrow function, e.g. "const foo = () => { ... }".
func tsArrowName(node *tree_sitter.Node, source []byte) string {
	var name string
	namedChildren(node, func(child *tree_sitter.Node) {
		if name != "" || child.Kind() != "variable_declarator" {
			return
		}
		if v := child.ChildByFieldName("value"); v != nil && v.Kind() == "arrow_function" {
			name = fieldText(child, "name", source)
		}
	})
	return name
}
