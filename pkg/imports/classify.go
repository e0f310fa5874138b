package imports

import (
	"strings"

	"github.com/siyuan-infoblox/pysort/pkg/std"
)

// Classify determines the provenance of a module path.
//
// Standard-library modules (matched on the first path segment) are Standard.
// Relative paths and single-segment paths are Local. Everything else is ThirdParty.
func Classify(modulePath string) Category {
	if std.IsStandardModule(modulePath) {
		return Standard
	}
	if !strings.Contains(modulePath, ".") || strings.HasPrefix(modulePath, ".") {
		return Local
	}
	return ThirdParty
}
