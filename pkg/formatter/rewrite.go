package formatter

import (
	"strings"

	"github.com/siyuan-infoblox/pysort/pkg/imports"
)

const utf8BOM = "\xef\xbb\xbf"

// Rewrite is the outcome of reordering the imports of one source text.
type Rewrite struct {
	Output   []byte   // new file content
	Original []string // import lines removed from the source, in source order
	Sorted   []string // rendered import lines, in output order
}

// RewriteSource moves the module-level imports of src to the top of the file in
// policy order and keeps every other line verbatim in its original order.
//
// The import block is exactly the set of rows spanned by module-level import
// statements that share no row with another statement. Imports nested in
// functions or conditionals, and imports sharing a row with other code, are left
// where they are.
func RewriteSource(src []byte, policy imports.Policy, keepAliases bool) (Rewrite, error) {
	text := string(src)
	bom := ""
	if strings.HasPrefix(text, utf8BOM) {
		bom, text = utf8BOM, text[len(utf8BOM):]
	}

	records, err := imports.Extract([]byte(text))
	if err != nil {
		return Rewrite{}, err
	}

	lines := splitLines(text)
	block := make(map[int]bool)
	var movable []imports.Record
	for _, r := range records {
		if !r.TopLevel {
			continue
		}
		movable = append(movable, r)
		for row := r.StartLine; row <= r.EndLine; row++ {
			block[row] = true
		}
	}

	if len(movable) == 0 {
		return Rewrite{Output: src}, nil
	}

	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}

	var original []string
	for i, line := range lines {
		if block[i] {
			original = append(original, strings.TrimRight(line, "\r\n"))
		}
	}

	var b strings.Builder
	b.WriteString(bom)
	sorted := make([]string, 0, len(movable))
	for _, r := range imports.Order(movable, policy) {
		line := r.Render(keepAliases)
		sorted = append(sorted, line)
		b.WriteString(line)
		b.WriteString(newline)
	}
	for i, line := range lines {
		if !block[i] {
			b.WriteString(line)
		}
	}

	return Rewrite{
		Output:   []byte(b.String()),
		Original: original,
		Sorted:   sorted,
	}, nil
}

// splitLines splits s after every newline, keeping the terminators so lines can
// be written back verbatim.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
