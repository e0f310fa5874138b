package utils

import (
	"os"
	"path/filepath"
)

// ConfigFileNames are the files searched for settings, in priority order within
// a directory.
var ConfigFileNames = []string{".pysort.toml", ".pysort.yaml", ".pysort.yml", "pyproject.toml"}

// FindConfigFile walks up from path looking for a settings file. accept is asked
// about every candidate so callers can skip files without a pysort section, such
// as a pyproject.toml that only configures other tools. It returns "" when
// nothing is found.
func FindConfigFile(path string, accept func(string) bool) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	dir := absPath
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if accept == nil || accept(candidate) {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
