package imports

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// parserPool recycles tree-sitter parsers configured for Python. A parser is not
// safe for concurrent use, so every Extract call leases its own.
var parserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		_ = p.SetLanguage(pythonLanguage)
		return p
	},
}

func getParser() *sitter.Parser {
	p := parserPool.Get().(*sitter.Parser)
	_ = p.SetLanguage(pythonLanguage)
	return p
}

func putParser(p *sitter.Parser) {
	if p == nil {
		return
	}
	p.Reset()
	parserPool.Put(p)
}
