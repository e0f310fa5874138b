// Package imports classifies, extracts and orders Python import statements.
package imports

import "strings"

// Category is the provenance of an imported module.
type Category int

const (
	Standard   Category = iota // shipped with CPython
	ThirdParty                 // installed package, dotted path
	Local                      // project module, relative or single-segment path
)

func (c Category) String() string {
	switch c {
	case Standard:
		return "standard"
	case ThirdParty:
		return "third-party"
	case Local:
		return "local"
	default:
		return "unknown"
	}
}

// Record represents a single imported module or name.
//
// A statement importing several modules or names expands into one Record per
// module or name. Records are values: ordering returns new slices and never edits
// a Record in place.
type Record struct {
	OriginalText  string   // canonical "import m" or "from m import x"
	Category      Category // assigned once from ModulePath at extraction time
	ModulePath    string   // dotted module path, relative paths keep their leading dots
	ImportedNames []string // single name for selective imports, empty for plain imports
	IsSelective   bool     // "from m import x" form
	Alias         string   // "as" name, empty if no alias
	StartLine     int      // 0-based first row of the owning statement
	EndLine       int      // 0-based last row of the owning statement
	TopLevel      bool     // statement is a direct child of the module
}

// NewPlain builds the record for "import modulePath".
func NewPlain(modulePath string) Record {
	return Record{
		OriginalText: "import " + modulePath,
		Category:     Classify(modulePath),
		ModulePath:   modulePath,
	}
}

// NewSelective builds the record for "from modulePath import name".
func NewSelective(modulePath, name string) Record {
	return Record{
		OriginalText:  "from " + modulePath + " import " + name,
		Category:      Classify(modulePath),
		ModulePath:    modulePath,
		ImportedNames: []string{name},
		IsSelective:   true,
	}
}

// Render returns the source line for r. With keepAlias set, an "as" clause is
// appended when the statement carried one.
func (r Record) Render(keepAlias bool) string {
	if !keepAlias || r.Alias == "" {
		return r.OriginalText
	}
	var b strings.Builder
	b.WriteString(r.OriginalText)
	b.WriteString(" as ")
	b.WriteString(r.Alias)
	return b.String()
}
