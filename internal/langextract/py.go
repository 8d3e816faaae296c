package langextract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ExtractPython parses source with the tree-sitter Python grammar and
// returns the import groups per spec.md §4.2:
//   - "import X[.Y...]"            -> [X[.Y...]] iff X's top segment is internal
//   - "from . import ..." (rel.)   -> ["." * level + module]
//   - "from X[.Y] import a, b"     -> [X.Y.a, X.Y.b, ..., X.Y] (absolute, internal)
//
// A syntax error aborts extraction for this file only (returns an error);
// callers must treat that as a per-file skip, not a fatal failure.
func ExtractPython(source []byte, internalPrefixes map[string]struct{}) (Result, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return Result{}, errNoParser
	}
	defer parser.Close()

	lang := sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(lang); err != nil {
		return Result{}, err
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return Result{}, errParseFailed
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Result{}, errSyntaxError
	}

	var groups []Group
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "import_statement":
			if g := pyImportStatement(node, source, internalPrefixes); g != nil {
				groups = append(groups, g)
			}
		case "import_from_statement":
			if g := pyImportFromStatement(node, source, internalPrefixes); g != nil {
				groups = append(groups, g)
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	return Result{Specifiers: flattenSorted(groups), Groups: groups}, nil
}

func nodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(src) {
		end = uint(len(src))
	}
	return string(src[start:end])
}

// pyImportStatement handles "import X[.Y...] [as alias]" and comma-joined
// forms; each dotted name becomes its own group if internal.
func pyImportStatement(node *sitter.Node, src []byte, internal map[string]struct{}) Group {
	var group Group
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		name := child
		if child.Kind() == "aliased_import" {
			name = child.ChildByFieldName("name")
		}
		if name == nil {
			continue
		}
		dotted := nodeText(name, src)
		if dotted == "" {
			continue
		}
		top := strings.SplitN(dotted, ".", 2)[0]
		if _, ok := internal[top]; ok {
			group = append(group, dotted)
		}
	}
	return group
}

// pyImportFromStatement handles "from . import x" (relative) and
// "from X[.Y] import a, b, ..." (absolute internal only).
//
// The tree-sitter grammar's module_name field already includes any leading
// dots for a relative import (e.g. "from ..pkg import x" -> module_name text
// "..pkg"). When the portion after the dots is empty (a bare "from . import
// sibling"), the specifier is just the dots themselves. The imported names
// are attributes of the package, not separate modules, so they are never
// appended.
func pyImportFromStatement(node *sitter.Node, src []byte, internal map[string]struct{}) Group {
	moduleNode := node.ChildByFieldName("module_name")
	moduleText := ""
	if moduleNode != nil {
		moduleText = nodeText(moduleNode, src)
	}

	dots := 0
	for dots < len(moduleText) && moduleText[dots] == '.' {
		dots++
	}
	if dots > 0 {
		remainder := moduleText[dots:]
		if remainder != "" {
			return Group{moduleText}
		}
		return Group{strings.Repeat(".", dots)}
	}

	if moduleNode == nil {
		return nil
	}
	top := strings.SplitN(moduleText, ".", 2)[0]
	if _, ok := internal[top]; !ok {
		return nil
	}

	names := pyImportedNames(node, moduleNode, src)
	var group Group
	for _, n := range names {
		group = append(group, moduleText+"."+n)
	}
	group = append(group, moduleText) // package form tried last
	return group
}

// pyImportedNames collects the non-wildcard names imported by a
// import_from_statement, in source order.
func pyImportedNames(node, moduleNode *sitter.Node, src []byte) []string {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			continue // "*" skipped per spec.md §4.2
		case "dotted_name", "identifier":
			names = append(names, nodeText(child, src))
		case "aliased_import":
			if n := child.ChildByFieldName("name"); n != nil {
				names = append(names, nodeText(n, src))
			}
		}
	}
	return names
}
