package imports

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParseError reports source text that is not valid Python.
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Extract parses Python source and returns one Record per imported module or name,
// in source order. Imports nested in functions, classes or conditionals are
// included with TopLevel unset.
func Extract(source []byte) ([]Record, error) {
	p := getParser()
	defer putParser(p)

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Line: 1, Column: 1, Msg: "parser produced no syntax tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}
	if node, what := findLegacyNode(root, source); node != nil {
		return nil, nodeError(node, "invalid syntax: "+what)
	}

	e := &extractor{
		source:   source,
		occupied: occupiedRows(root),
		records:  []Record{},
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		e.walk(root.Child(i), true)
	}
	return e.records, nil
}

type extractor struct {
	source   []byte
	occupied map[int]bool // rows holding module-level statements other than imports
	records  []Record
}

func (e *extractor) walk(node *sitter.Node, moduleLevel bool) {
	switch node.Kind() {
	case "import_statement":
		e.extractPlain(node, moduleLevel)
		return
	case "import_from_statement", "future_import_statement":
		e.extractSelective(node, moduleLevel)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), false)
	}
}

// extractPlain handles "import a, b.c as d".
func (e *extractor) extractPlain(node *sitter.Node, moduleLevel bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name":
			e.add(NewPlain(e.text(child)), node, moduleLevel)
		case "aliased_import":
			r := NewPlain(e.text(child.ChildByFieldName("name")))
			r.Alias = e.text(child.ChildByFieldName("alias"))
			e.add(r, node, moduleLevel)
		}
	}
}

// extractSelective handles "from m import x, y as z", "from . import x",
// "from m import *" and "from __future__ import x".
func (e *extractor) extractSelective(node *sitter.Node, moduleLevel bool) {
	module := "__future__"
	if node.Kind() == "import_from_statement" {
		module = e.text(node.ChildByFieldName("module_name"))
	}

	afterImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			afterImport = true
		case "dotted_name":
			if afterImport {
				e.add(NewSelective(module, e.text(child)), node, moduleLevel)
			}
		case "aliased_import":
			if afterImport {
				r := NewSelective(module, e.text(child.ChildByFieldName("name")))
				r.Alias = e.text(child.ChildByFieldName("alias"))
				e.add(r, node, moduleLevel)
			}
		case "wildcard_import":
			e.add(NewSelective(module, "*"), node, moduleLevel)
		}
	}
}

func (e *extractor) add(r Record, stmt *sitter.Node, moduleLevel bool) {
	r.StartLine = int(stmt.StartPosition().Row)
	r.EndLine = int(stmt.EndPosition().Row)
	r.TopLevel = moduleLevel && !e.sharesRow(r.StartLine, r.EndLine)
	e.records = append(e.records, r)
}

func (e *extractor) sharesRow(start, end int) bool {
	for row := start; row <= end; row++ {
		if e.occupied[row] {
			return true
		}
	}
	return false
}

// text returns the node source with whitespace and line continuations removed,
// so "os . path" and "os.\<newline>path" both read "os.path".
func (e *extractor) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\\':
			return -1
		}
		return r
	}, node.Utf8Text(e.source))
}

// occupiedRows collects the rows covered by module-level statements that are not
// imports or comments. An import sharing one of these rows cannot be moved
// without dragging the other statement along.
func occupiedRows(root *sitter.Node) map[int]bool {
	rows := make(map[int]bool)
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "import_statement", "import_from_statement", "future_import_statement", "comment":
			continue
		}
		for row := child.StartPosition().Row; row <= child.EndPosition().Row; row++ {
			rows[int(row)] = true
		}
	}
	return rows
}

func syntaxError(root *sitter.Node, source []byte) *ParseError {
	node := findErrorNode(root)
	if node == nil {
		return &ParseError{Line: 1, Column: 1, Msg: "invalid syntax"}
	}

	if node.IsMissing() {
		return nodeError(node, fmt.Sprintf("missing %s", node.Kind()))
	}

	near, _, _ := strings.Cut(node.Utf8Text(source), "\n")
	if len(near) > 32 {
		near = near[:32]
	}
	return nodeError(node, fmt.Sprintf("invalid syntax near %q", near))
}

func nodeError(node *sitter.Node, msg string) *ParseError {
	pos := node.StartPosition()
	return &ParseError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: msg}
}

// findLegacyNode returns the first construct that the grammar accepts only for
// Python 2, with a short description, or nil.
func findLegacyNode(node *sitter.Node, source []byte) (*sitter.Node, string) {
	switch node.Kind() {
	case "comment":
		return nil, ""
	case "print_statement":
		return node, "print statement"
	case "exec_statement":
		return node, "exec statement"
	case "comparison_operator":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child.Kind() == "<>" {
				return child, "'<>' operator"
			}
		}
	case "except_clause":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child.Kind() == "," {
				return child, "comma in except clause"
			}
		}
	case "integer":
		if what := legacyInteger(node.Utf8Text(source)); what != "" {
			return node, what
		}
		return nil, ""
	case "string_start":
		if strings.HasSuffix(node.Utf8Text(source), "`") {
			return node, "backtick expression"
		}
		return nil, ""
	case "argument_list":
		if arg := misplacedArgument(node); arg != nil {
			return arg, "argument follows keyword argument or ** unpacking"
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		if found, what := findLegacyNode(node.Child(i), source); found != nil {
			return found, what
		}
	}
	return nil, ""
}

// legacyInteger describes why text is not a Python 3 integer literal, or returns "".
func legacyInteger(text string) string {
	lower := strings.ToLower(text)
	if strings.HasSuffix(lower, "l") {
		return "long integer suffix"
	}
	if len(lower) < 2 || lower[0] != '0' || strings.HasSuffix(lower, "j") {
		return ""
	}
	switch lower[1] {
	case 'x', 'o', 'b':
		return ""
	}
	if strings.Trim(lower, "0_") != "" {
		return "leading zeros in decimal integer"
	}
	return ""
}

// misplacedArgument returns the first positional or *-unpacked argument that
// follows a keyword argument or **-unpacking it may not follow.
func misplacedArgument(node *sitter.Node) *sitter.Node {
	seenKeyword, seenDoubleSplat := false, false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		arg := node.NamedChild(i)
		switch arg.Kind() {
		case "comment":
		case "keyword_argument":
			seenKeyword = true
		case "dictionary_splat":
			seenDoubleSplat = true
		case "list_splat":
			if seenDoubleSplat {
				return arg
			}
		default:
			if seenKeyword || seenDoubleSplat {
				return arg
			}
		}
	}
	return nil
}

func findErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := findErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
