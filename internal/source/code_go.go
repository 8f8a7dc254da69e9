package source

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor extracts functions, methods and types from Go files.
type goExtractor struct{}

func (goExtractor) Extract(root *tree_sitter.Node, source []byte, path string) []Declaration {
	var decls []Declaration
	namedChildren(root, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "function_declaration":
			if name := fieldText(node, "name", source); name != "" {
				decls = append(decls, declaration(node, source, path, name, DeclFunction))
			}

		case "method_declaration":
			if name := fieldText(node, "name", source); name != "" {
				decls = append(decls, declaration(node, source, path, name, DeclMethod))
			}

		case "type_declaration":
			decls = append(decls, goTypes(node, source, path)...)
		}
	})
	return decls
}

// goTypes splits a type declaration into one Declaration per spec. A grouped
// declaration yields each spec prefixed with "type " so it reads standalone.
func goTypes(node *tree_sitter.Node, source []byte, path string) []Declaration {
	var specs []*tree_sitter.Node
	namedChildren(node, func(child *tree_sitter.Node) {
		if child.Kind() == "type_spec" || child.Kind() == "type_alias" {
			specs = append(specs, child)
		}
	})

	decls := make([]Declaration, 0, len(specs))
	for _, spec := range specs {
		name := fieldText(spec, "name", source)
		if name == "" {
			continue
		}
		kind := DeclType
		if t := spec.ChildByFieldName("type"); t != nil && t.Kind() == "interface_type" {
			kind = DeclInterface
		}
		if len(specs) == 1 {
			decls = append(decls, declaration(node, source, path, name, kind))
			continue
		}
		d := declaration(spec, source, path, name, kind)
		d.Text = "type " + d.Text
		decls = append(decls, d)
	}
	return decls
}
