package utils

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
)

// PythonSuffix is the source suffix of files pysort rewrites.
const PythonSuffix = ".py"

// skippedDirs are never descended into during a directory sweep.
var skippedDirs = map[string]bool{
	"__pycache__":   true,
	"venv":          true,
	"node_modules":  true,
	"site-packages": true,
}

// IsPythonFile checks if a file is a Python source file
func IsPythonFile(filename string) bool {
	return strings.HasSuffix(filename, PythonSuffix)
}

// CompileGlobs compiles exclude patterns, matched against base names.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf(errors.ErrMsgInvalidExcludePattern+": %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// MatchesAny reports whether the base name of path matches one of globs.
func MatchesAny(globs []glob.Glob, path string) bool {
	base := filepath.Base(path)
	for _, g := range globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory below the sweep root should be skipped:
// hidden directories, virtualenvs, caches and anything matching excludes.
func SkipDir(path string, excludes []glob.Glob) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || skippedDirs[name] {
		return true
	}
	return MatchesAny(excludes, path)
}

// FindPythonFiles recursively finds all Python source files in a directory.
// Only a failure on root itself aborts the sweep; unreadable entries below it are
// logged and skipped.
func FindPythonFiles(root string, excludes []glob.Glob) ([]string, error) {
	var pyFiles []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return walkError(root, path, info, err)
		}

		// Skip excluded and hidden directories (but not the root directory)
		if info.IsDir() {
			if path != root && SkipDir(path, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if IsPythonFile(filepath.Base(path)) && !MatchesAny(excludes, path) {
			pyFiles = append(pyFiles, path)
		}

		return nil
	})

	return pyFiles, err
}

func walkError(root, path string, info os.FileInfo, err error) error {
	if path == root {
		return err
	}
	slog.Warn(errors.ErrMsgFailedToReadDirectory, "path", path, "error", err)
	if info != nil && info.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// IsDirectory checks if the given path is a directory
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
