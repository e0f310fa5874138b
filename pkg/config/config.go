// Package config loads and validates pysort settings.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/imports"
	"github.com/siyuan-infoblox/pysort/pkg/utils"
)

// Config holds the settings for one run.
type Config struct {
	Directory   string         `toml:"directory" yaml:"directory"`       // directory swept for Python files
	File        string         `toml:"file" yaml:"file"`                 // single file, takes precedence over Directory
	Policy      imports.Policy `toml:"type" yaml:"type"`                 // ordering strategy
	Verbose     bool           `toml:"verbose" yaml:"verbose"`           // log imports before and after sorting
	DryRun      bool           `toml:"dry_run" yaml:"dry_run"`           // never write files
	Diff        bool           `toml:"diff" yaml:"diff"`                 // print a unified diff of each change
	Exclude     []string       `toml:"exclude" yaml:"exclude"`           // glob patterns matched against base names
	Jobs        int            `toml:"jobs" yaml:"jobs"`                 // files processed concurrently
	KeepAliases bool           `toml:"keep_aliases" yaml:"keep_aliases"` // render "as" clauses
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Policy: imports.Structural,
		Jobs:   1,
	}
}

type pyproject struct {
	Tool struct {
		Pysort Config `toml:"pysort"`
	} `toml:"tool"`
}

// Load reads path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := LoadInto(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadInto decodes path into cfg. Keys absent from the file leave cfg untouched.
// pyproject.toml files are read from their [tool.pysort] table.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IO(err, errors.ErrMsgFailedToLoadConfig, path)
	}

	switch {
	case filepath.Base(path) == "pyproject.toml":
		doc := pyproject{}
		doc.Tool.Pysort = *cfg
		meta, err := toml.Decode(string(data), &doc)
		if err != nil {
			return fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToLoadConfig, path, err)
		}
		if err := checkUndecoded(meta, path, "tool", "pysort"); err != nil {
			return err
		}
		*cfg = doc.Tool.Pysort
	case filepath.Ext(path) == ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToLoadConfig, path, err)
		}
		if err := checkUndecoded(meta, path); err != nil {
			return err
		}
	case filepath.Ext(path) == ".yaml", filepath.Ext(path) == ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToLoadConfig, path, err)
		}
	default:
		return errors.Validation(fmt.Sprintf(errors.ErrMsgUnsupportedConfigFormat, filepath.Ext(path)), path)
	}
	return nil
}

// checkUndecoded rejects unknown keys below prefix, which are usually typos.
func checkUndecoded(meta toml.MetaData, path string, prefix ...string) error {
	var unknown []string
	for _, key := range meta.Undecoded() {
		if len(key) <= len(prefix) || !hasPrefix(key, prefix) {
			continue
		}
		unknown = append(unknown, key.String())
	}
	if len(unknown) > 0 {
		return errors.Validation(fmt.Sprintf(errors.ErrMsgUnknownConfigKeys, strings.Join(unknown, ", ")), path)
	}
	return nil
}

func hasPrefix(key toml.Key, prefix []string) bool {
	for i, part := range prefix {
		if key[i] != part {
			return false
		}
	}
	return true
}

// HasSettings reports whether path carries pysort settings. Every dedicated
// config file does; a pyproject.toml only when it has a [tool.pysort] table.
func HasSettings(path string) bool {
	if filepath.Base(path) != "pyproject.toml" {
		return true
	}
	var doc map[string]any
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return false
	}
	return meta.IsDefined("tool", "pysort")
}

// Discover finds the nearest settings file above target, or "" if there is none.
func Discover(target string) string {
	return utils.FindConfigFile(target, HasSettings)
}

// Target returns the path to process and whether it is a single file.
func (c Config) Target() (string, bool) {
	if c.File != "" {
		return c.File, true
	}
	return c.Directory, false
}

// Validate checks the settings before any file is touched. Every failure is a
// validation error.
func (c Config) Validate() error {
	if c.File == "" && c.Directory == "" {
		return errors.Validation(errors.ErrMsgNoTarget, "")
	}

	if c.File != "" {
		info, err := os.Stat(c.File)
		if err != nil {
			return errors.Validation(errors.ErrMsgPathDoesNotExist, c.File)
		}
		if info.IsDir() || !utils.IsPythonFile(c.File) {
			return errors.Validation(errors.ErrMsgNotPythonFile, c.File)
		}
	}

	if c.Directory != "" {
		info, err := os.Stat(c.Directory)
		if err != nil {
			return errors.Validation(errors.ErrMsgPathDoesNotExist, c.Directory)
		}
		if c.File == "" && !info.IsDir() {
			return errors.Validation(errors.ErrMsgNotDirectory, c.Directory)
		}
	}

	if _, err := c.Policy.MarshalText(); err != nil {
		return errors.Validation(err.Error(), "")
	}

	if c.Jobs < 1 {
		return errors.Validation(errors.ErrMsgInvalidJobs, "")
	}

	if _, err := utils.CompileGlobs(c.Exclude); err != nil {
		return errors.Validation(err.Error(), "")
	}
	return nil
}
