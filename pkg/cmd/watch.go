package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/utils"
	"github.com/siyuan-infoblox/pysort/pkg/watch"
)

func newWatchCommand(opts *options) *cobra.Command {
	var debounce time.Duration

	watchCmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Sort imports of Python files as they change",
		Long: `Sort every Python file below DIR once, then keep watching the tree and sort
files again whenever they are written. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debounce <= 0 {
				return errors.Validation(errors.ErrMsgInvalidDebounce, "")
			}
			if len(args) == 0 && opts.cfg.File == "" && opts.cfg.Directory == "" {
				args = []string{"."}
			}
			return opts.watch(cmd, args, debounce)
		},
	}
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Time to wait for changes to settle before sorting")
	return watchCmd
}

func (o *options) watch(cmd *cobra.Command, args []string, debounce time.Duration) error {
	cfg, err := o.resolve(cmd, args)
	if err != nil {
		return err
	}
	dir, isFile := cfg.Target()
	if isFile {
		return errors.Validation(errors.ErrMsgNotDirectory, dir)
	}

	excludes, err := utils.CompileGlobs(cfg.Exclude)
	if err != nil {
		return errors.Validation(err.Error(), "")
	}

	ctx := cmd.Context()
	g := o.newFormatter(cmd, cfg)
	if err := g.ProcessDirectory(ctx, dir); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		o.logger.Warn(errors.ErrMsgSortingFailed, "path", dir, "error", err)
	}

	w, err := watch.New(debounce, excludes, o.logger, func(paths []string) {
		if err := g.ProcessFiles(ctx, paths); err != nil && ctx.Err() == nil {
			o.logger.Warn(errors.ErrMsgSortingFailed, "error", err)
		}
	})
	if err != nil {
		return errors.IO(err, errors.ErrMsgFailedToWatchDirectory, dir)
	}
	if err := w.Add(dir); err != nil {
		return errors.IO(err, errors.ErrMsgFailedToWatchDirectory, dir)
	}

	o.logger.Info(errors.InfoMsgWatching, "path", dir, "debounce", debounce)
	err = w.Run(ctx)
	o.logger.Info(errors.InfoMsgWatchStopped)
	return err
}
