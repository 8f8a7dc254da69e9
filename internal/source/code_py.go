package source

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts module-level functions and classes from Python files.
// Decorators are kept with the definition they decorate.
type pyExtractor struct{}

func (pyExtractor) Extract(root *tree_sitter.Node, source []byte, path string) []Declaration {
	var decls []Declaration
	namedChildren(root, func(node *tree_sitter.Node) {
		def := node
		if node.Kind() == "decorated_definition" {
			if def = node.ChildByFieldName("definition"); def == nil {
				return
			}
		}

		var kind DeclKind
		switch def.Kind() {
		case "function_definition":
			kind = DeclFunction
		case "class_definition":
			kind = DeclClass
		default:
			return
		}
		if name := fieldText(def, "name", source); name != "" {
			decls = append(decls, declaration(node, source, path, name, kind))
		}
	})
	return decls
}
