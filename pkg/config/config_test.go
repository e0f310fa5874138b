package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/imports"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	req := require.New(t)
	cfg := Default()
	req.Equal(imports.Structural, cfg.Policy)
	req.Equal(1, cfg.Jobs)
	req.False(cfg.DryRun)
	req.False(cfg.Verbose)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    Config
	}{
		{
			name: "toml",
			file: ".pysort.toml",
			content: `
type = "FROM_FIRST"
exclude = ["*_pb2.py", "migrations"]
jobs = 4
keep_aliases = true
dry_run = true
`,
			want: Config{Policy: imports.FromFirst, Exclude: []string{"*_pb2.py", "migrations"}, Jobs: 4, KeepAliases: true, DryRun: true},
		},
		{
			name: "yaml",
			file: ".pysort.yaml",
			content: `
type: import-first
verbose: true
exclude:
  - build
`,
			want: Config{Policy: imports.ImportFirst, Verbose: true, Exclude: []string{"build"}, Jobs: 1},
		},
		{
			name: "pyproject",
			file: "pyproject.toml",
			content: `
[project]
name = "demo"

[tool.black]
line-length = 100

[tool.pysort]
type = "alphabetical"
diff = true
`,
			want: Config{Policy: imports.Alphabetical, Diff: true, Jobs: 1},
		},
		{
			name:    "empty yaml keeps defaults",
			file:    "empty.yml",
			content: "",
			want:    Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			path := writeFile(t, filepath.Join(dir, tt.name), tt.file, tt.content)
			cfg, err := Load(path)
			req.NoError(err)
			req.Equal(tt.want, cfg)
		})
	}
}

func TestLoad_errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		kind    errors.Kind
	}{
		{"unknown policy", "a.toml", `type = "random"`, 0},
		{"unknown toml key", "b.toml", `tyep = "structural"`, errors.KindValidation},
		{"unknown pyproject key", "c/pyproject.toml", "[tool.pysort]\njobz = 2\n", errors.KindValidation},
		{"unknown yaml key", "d.yaml", "jobz: 2\n", 0},
		{"malformed toml", "e.toml", `type = `, 0},
		{"unsupported format", "f.json", `{}`, errors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path)
			req.Error(err)
			if tt.kind != 0 {
				req.True(errors.IsKind(err, tt.kind), "got %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		req := require.New(t)
		_, err := Load(filepath.Join(dir, "missing.toml"))
		req.Error(err)
		req.True(errors.IsKind(err, errors.KindIO))
	})
}

func TestLoadInto_keepsUnsetFields(t *testing.T) {
	req := require.New(t)
	path := writeFile(t, t.TempDir(), ".pysort.toml", `jobs = 3`)

	cfg := Default()
	cfg.Policy = imports.Alphabetical
	cfg.File = "main.py"
	req.NoError(LoadInto(path, &cfg))
	req.Equal(3, cfg.Jobs)
	req.Equal(imports.Alphabetical, cfg.Policy)
	req.Equal("main.py", cfg.File)
}

func TestDiscover(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	target := writeFile(t, dir, "pkg/app/main.py", "import os\n")
	writeFile(t, dir, "pkg/pyproject.toml", "[tool.black]\nline-length = 100\n")
	settings := writeFile(t, dir, ".pysort.yaml", "type: alphabetical\n")

	req.Equal(settings, Discover(target), "pyproject.toml without [tool.pysort] is skipped")

	withSection := writeFile(t, dir, "pkg/app/pyproject.toml", "[tool.pysort]\njobs = 2\n")
	req.Equal(withSection, Discover(target))
}

func TestConfig_Target(t *testing.T) {
	req := require.New(t)

	path, isFile := Config{File: "a.py", Directory: "src"}.Target()
	req.Equal("a.py", path)
	req.True(isFile)

	path, isFile = Config{Directory: "src"}.Target()
	req.Equal("src", path)
	req.False(isFile)
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()
	pyFile := writeFile(t, dir, "main.py", "import os\n")
	txtFile := writeFile(t, dir, "notes.txt", "hello\n")
	missing := filepath.Join(dir, "missing.py")

	valid := func(mutate func(*Config)) Config {
		cfg := Default()
		mutate(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"file", valid(func(c *Config) { c.File = pyFile }), ""},
		{"directory", valid(func(c *Config) { c.Directory = dir }), ""},
		{"file takes precedence", valid(func(c *Config) { c.File = pyFile; c.Directory = dir }), ""},
		{"no target", valid(func(c *Config) {}), errors.ErrMsgNoTarget},
		{"missing file", valid(func(c *Config) { c.File = missing }), errors.ErrMsgPathDoesNotExist},
		{"wrong suffix", valid(func(c *Config) { c.File = txtFile }), errors.ErrMsgNotPythonFile},
		{"directory as file", valid(func(c *Config) { c.File = dir }), errors.ErrMsgNotPythonFile},
		{"missing directory", valid(func(c *Config) { c.Directory = filepath.Join(dir, "nope") }), errors.ErrMsgPathDoesNotExist},
		{"file as directory", valid(func(c *Config) { c.Directory = pyFile }), errors.ErrMsgNotDirectory},
		{"zero jobs", valid(func(c *Config) { c.File = pyFile; c.Jobs = 0 }), errors.ErrMsgInvalidJobs},
		{"bad policy", valid(func(c *Config) { c.File = pyFile; c.Policy = imports.Policy(9) }), "unknown policy"},
		{"bad exclude", valid(func(c *Config) { c.Directory = dir; c.Exclude = []string{"[oops"} }), "invalid exclude pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				req.NoError(err)
				return
			}
			req.Error(err)
			req.Contains(err.Error(), tt.wantErr)
			req.True(errors.IsKind(err, errors.KindValidation), "got %v", err)
		})
	}
}
