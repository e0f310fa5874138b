package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/imports"
)

const unsorted = `import sys
from os import path
import os

print(path, os, sys)
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func execute(args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootCmd := NewRootCommand("v1.2.3")
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string) []string
		want    string
		wantErr bool
		kind    errors.Kind
	}{
		{
			name: "file flag with default type",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"--file", filepath.Join(dir, "a.py")}
			},
			want: "import os\nimport sys\nfrom os import path\n\nprint(path, os, sys)\n",
		},
		{
			name: "positional file with type",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"-t", "FROM_FIRST", filepath.Join(dir, "a.py")}
			},
			want: "from os import path\nimport os\nimport sys\n\nprint(path, os, sys)\n",
		},
		{
			name: "positional directory",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"--type", "import_first", dir}
			},
			want: "import os\nimport sys\nfrom os import path\n\nprint(path, os, sys)\n",
		},
		{
			name: "dry run leaves file untouched",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"--dry-run", "-d", dir}
			},
			want: unsorted,
		},
		{
			name: "settings file picks the type",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.pysort]\ntype = \"from_first\"\n")
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"-d", dir}
			},
			want: "from os import path\nimport os\nimport sys\n\nprint(path, os, sys)\n",
		},
		{
			name: "flag overrides settings file",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, ".pysort.yaml"), "type: from_first\n")
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"-d", dir, "--type", "structural"}
			},
			want: "import os\nimport sys\nfrom os import path\n\nprint(path, os, sys)\n",
		},
		{
			name: "explicit settings file",
			setup: func(t *testing.T, dir string) []string {
				cfgPath := filepath.Join(t.TempDir(), "custom.toml")
				writeFile(t, cfgPath, "dry_run = true\n")
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				return []string{"--config", cfgPath, filepath.Join(dir, "a.py")}
			},
			want: unsorted,
		},
		{
			name: "not a python file",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.txt"), unsorted)
				return []string{"-f", filepath.Join(dir, "a.txt")}
			},
			wantErr: true,
			kind:    errors.KindValidation,
		},
		{
			name: "missing path",
			setup: func(t *testing.T, dir string) []string {
				return []string{filepath.Join(dir, "missing.py")}
			},
			wantErr: true,
			kind:    errors.KindValidation,
		},
		{
			name: "unparseable file",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), "import os\ndef broken(:\n")
				return []string{"-f", filepath.Join(dir, "a.py")}
			},
			wantErr: true,
			kind:    errors.KindParse,
		},
		{
			name: "one failing file fails the sweep",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "a.py"), unsorted)
				writeFile(t, filepath.Join(dir, "b.py"), "def broken(:\n")
				return []string{dir}
			},
			want:    "import os\nimport sys\nfrom os import path\n\nprint(path, os, sys)\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			dir := t.TempDir()
			args := tt.setup(t, dir)

			_, _, err := execute(args...)
			if tt.wantErr {
				req.Error(err)
				if tt.kind != 0 {
					req.True(errors.IsKind(err, tt.kind), "unexpected error: %v", err)
				}
			} else {
				req.NoError(err)
			}
			if tt.want != "" {
				req.Equal(tt.want, readFile(t, filepath.Join(dir, "a.py")))
			}
		})
	}
}

func TestRootCommand_Diff(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, unsorted)

	stdout, _, err := execute("--diff", "--dry-run", path)
	req.NoError(err)
	req.Contains(stdout, "--- "+path)
	req.Contains(stdout, "+++ "+path)
	req.Equal(unsorted, readFile(t, path))
}

func TestRootCommand_Verbose(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, unsorted)

	_, stderr, err := execute("--verbose", path)
	req.NoError(err)
	req.Contains(stderr, errors.InfoMsgOriginalImports)
	req.Contains(stderr, errors.InfoMsgSortedImports)
}

func TestRootCommand_InvalidType(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, unsorted)

	_, _, err := execute("--type", "random", path)
	req.Error(err)
	req.Contains(err.Error(), "random")
	req.Equal(unsorted, readFile(t, path))
}

func TestRootCommand_NoTarget(t *testing.T) {
	req := require.New(t)
	_, _, err := execute()
	req.Error(err)
	req.True(errors.IsKind(err, errors.KindValidation))
	req.Contains(err.Error(), errors.ErrMsgNoTarget)
}

func TestRootCommand_Version(t *testing.T) {
	req := require.New(t)
	stdout, _, err := execute("--version")
	req.NoError(err)
	req.Contains(stdout, "pysort version")
}

func TestRootCommand_TooManyArgs(t *testing.T) {
	req := require.New(t)
	_, _, err := execute("a.py", "b.py")
	req.Error(err)
}

func TestPolicyValue(t *testing.T) {
	req := require.New(t)
	policy := imports.Structural
	v := &policyValue{policy: &policy}

	req.Equal("structural", v.String())
	req.Equal("type", v.Type())

	req.NoError(v.Set("Alphabetical"))
	req.Equal(imports.Alphabetical, policy)

	req.Error(v.Set("random"))
	req.Equal(imports.Alphabetical, policy)

	req.Equal("", (&policyValue{}).String())
}

func TestWatchCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args func(dir string) []string
	}{
		{
			name: "non-positive debounce",
			args: func(dir string) []string { return []string{"watch", "--debounce", "0s", dir} },
		},
		{
			name: "file instead of directory",
			args: func(dir string) []string { return []string{"watch", filepath.Join(dir, "a.py")} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "a.py"), unsorted)

			_, _, err := execute(tt.args(dir)...)
			req.Error(err)
			req.True(errors.IsKind(err, errors.KindValidation), "unexpected error: %v", err)
		})
	}
}
