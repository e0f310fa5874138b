// Package std holds the table of Python standard-library top-level module names.
package std

import (
	_ "embed"
	"strings"
)

//go:embed python.txt
var pythonModules string

// standardModules is the set of top-level module names shipped with CPython.
// It is filled once at init and only read afterwards.
var standardModules = map[string]bool{}

func init() {
	for _, line := range strings.Split(pythonModules, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		standardModules[line] = true
	}
}

// IsStandardModule reports whether modulePath names a standard-library module or a
// submodule of one. Only the first dot-separated segment is compared, so "os.path"
// matches "os" while "osprey" does not.
func IsStandardModule(modulePath string) bool {
	top, _, _ := strings.Cut(modulePath, ".")
	if top == "" {
		return false
	}
	return standardModules[top]
}
