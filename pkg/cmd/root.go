package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/siyuan-infoblox/pysort/pkg/config"
	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/formatter"
	"github.com/siyuan-infoblox/pysort/pkg/imports"
	"github.com/siyuan-infoblox/pysort/pkg/utils"
	"github.com/siyuan-infoblox/pysort/pkg/version"
)

const (
	UseDescription   = "pysort [flags] [PATH]"
	ShortDescription = "Python import sorter - A tool to reorder the imports of Python files"
	LongDescription  = `pysort is a command-line tool that reorders the import block of Python files.

Module-level imports are moved to the top of the file, one import per line, in the
order of the selected sorting type:
  from_first    'from' imports, then plain imports
  import_first  plain imports, then 'from' imports
  alphabetical  alphabetically by import line
  structural    standard library, then third-party, then local modules

The rest of the file is kept as is. Imports inside functions or conditionals are
left where they are.

PATH can be either a single Python file or a directory. When a directory is specified,
all Python files in the directory and subdirectories are processed recursively.
Settings are read from --config, or from the nearest .pysort.toml, .pysort.yaml or
pyproject.toml with a [tool.pysort] table. Flags override settings files.`
)

// options collects flag values. cfg holds exactly what was given on the command
// line; resolve merges it over the settings file.
type options struct {
	cfg           config.Config
	configPath    string
	debug         bool
	showVersion   bool
	moduleVersion string
	logger        *slog.Logger
}

// policyValue adapts imports.Policy to a pflag.Value so --type accepts any
// casing and rejects unknown names while parsing.
type policyValue struct {
	policy *imports.Policy
}

func (v *policyValue) String() string {
	if v.policy == nil {
		return ""
	}
	return v.policy.String()
}

func (v *policyValue) Set(s string) error {
	return v.policy.UnmarshalText([]byte(s))
}

func (v *policyValue) Type() string {
	return "type"
}

// NewRootCommand builds the pysort command tree.
func NewRootCommand(moduleVersion string) *cobra.Command {
	opts := &options{cfg: config.Default(), moduleVersion: moduleVersion}

	rootCmd := &cobra.Command{
		Use:               UseDescription,
		Short:             ShortDescription,
		Long:              LongDescription,
		Args:              opts.validateArgs,
		PersistentPreRunE: opts.setupLogging,
		RunE:              opts.run,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfg.Directory, "directory", "d", "", "Directory containing Python files to process")
	flags.StringVarP(&opts.cfg.File, "file", "f", "", "Specific Python file to process (takes precedence over --directory)")
	flags.VarP(&policyValue{policy: &opts.cfg.Policy}, "type", "t", "Import sorting strategy ("+strings.Join(imports.PolicyNames(), ", ")+")")
	flags.BoolVar(&opts.cfg.Verbose, "verbose", false, "Log the imports of each file before and after sorting")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.cfg.DryRun, "dry-run", false, "Preview changes without modifying files")
	flags.BoolVar(&opts.cfg.Diff, "diff", false, "Print a unified diff for every file that would change")
	flags.StringSliceVar(&opts.cfg.Exclude, "exclude", nil, "Comma-separated glob patterns of files and directories to skip (e.g., *_pb2.py,migrations)")
	flags.IntVarP(&opts.cfg.Jobs, "jobs", "j", 1, "Number of files processed concurrently")
	flags.BoolVar(&opts.cfg.KeepAliases, "keep-aliases", false, "Keep 'as' aliases when rewriting imports")
	flags.StringVar(&opts.configPath, "config", "", "Path to a settings file (.toml, .yaml or pyproject.toml)")
	rootCmd.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(newWatchCommand(opts))
	return rootCmd
}

func (o *options) validateArgs(cmd *cobra.Command, args []string) error {
	// If version flag is set, we don't need path arguments
	if o.showVersion {
		return nil
	}
	return cobra.MaximumNArgs(1)(cmd, args)
}

func (o *options) setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	o.logger = newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(o.logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolve layers defaults, the settings file and explicitly set flags, in that
// order, and validates the result.
func (o *options) resolve(cmd *cobra.Command, args []string) (config.Config, error) {
	given := o.cfg
	if len(args) == 1 && given.File == "" && given.Directory == "" {
		if isDir, err := utils.IsDirectory(args[0]); err == nil && isDir {
			given.Directory = args[0]
		} else {
			given.File = args[0]
		}
	}

	cfg := config.Default()
	path := o.configPath
	if path == "" {
		start := given.File
		if start == "" {
			start = given.Directory
		}
		if start == "" {
			start = "."
		}
		path = config.Discover(start)
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
		o.logger.Debug("loaded settings", "path", path)
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		applyFlag(&cfg, given, f.Name)
	})
	if given.File != "" || given.Directory != "" {
		cfg.File, cfg.Directory = given.File, given.Directory
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyFlag copies the value of one explicitly set flag from given into cfg.
func applyFlag(cfg *config.Config, given config.Config, name string) {
	switch name {
	case "type":
		cfg.Policy = given.Policy
	case "verbose":
		cfg.Verbose = given.Verbose
	case "dry-run":
		cfg.DryRun = given.DryRun
	case "diff":
		cfg.Diff = given.Diff
	case "exclude":
		cfg.Exclude = given.Exclude
	case "jobs":
		cfg.Jobs = given.Jobs
	case "keep-aliases":
		cfg.KeepAliases = given.KeepAliases
	}
}

func (o *options) newFormatter(cmd *cobra.Command, cfg config.Config) formatterRunner {
	return formatter.New(formatter.FormatterConfig{
		Policy:      cfg.Policy,
		Verbose:     cfg.Verbose,
		DryRun:      cfg.DryRun,
		Diff:        cfg.Diff,
		KeepAliases: cfg.KeepAliases,
		Jobs:        cfg.Jobs,
		Exclude:     cfg.Exclude,
		Logger:      o.logger,
		Out:         cmd.OutOrStdout(),
	})
}

// formatterRunner is the part of the formatter the commands drive.
type formatterRunner interface {
	ProcessFiles(ctx context.Context, filePaths []string) error
	ProcessDirectory(ctx context.Context, dir string) error
	ProcessPath(ctx context.Context, path string) error
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	// Handle version flag
	if o.showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get(o.moduleVersion))
		return nil
	}

	cfg, err := o.resolve(cmd, args)
	if err != nil {
		return err
	}

	target, _ := cfg.Target()
	return o.newFormatter(cmd, cfg).ProcessPath(cmd.Context(), target)
}

// Execute runs the command line and logs any failure. Interrupts cancel the run
// between files.
func Execute(moduleVersion string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(moduleVersion).ExecuteContext(ctx); err != nil {
		slog.Error(errors.ErrMsgSortingFailed, "error", err)
		return err
	}
	return nil
}
