package source

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsExtractor extracts items from Rust files. An impl block is one
// declaration named after the type it implements, qualified by the trait
// when there is one.
type rsExtractor struct{}

var rsKinds = map[string]DeclKind{
	"function_item": DeclFunction,
	"struct_item":   DeclType,
	"type_item":     DeclType,
	"enum_item":     DeclEnum,
	"trait_item":    DeclInterface,
}

func (rsExtractor) Extract(root *tree_sitter.Node, source []byte, path string) []Declaration {
	var decls []Declaration
	namedChildren(root, func(node *tree_sitter.Node) {
		if node.Kind() == "impl_item" {
			name := fieldText(node, "type", source)
			if name == "" {
				return
			}
			if trait := fieldText(node, "trait", source); trait != "" {
				name = trait + " for " + name
			}
			decls = append(decls, declaration(node, source, path, name, DeclImpl))
			return
		}
		kind, ok := rsKinds[node.Kind()]
		if !ok {
			return
		}
		if name := fieldText(node, "name", source); name != "" {
			decls = append(decls, declaration(node, source, path, name, kind))
		}
	})
	return decls
}
