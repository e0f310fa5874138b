package formatter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/pysort/pkg/errors"
	"github.com/siyuan-infoblox/pysort/pkg/imports"
	"github.com/siyuan-infoblox/pysort/pkg/utils"
)

type FormatterConfig struct {
	Policy      imports.Policy // ordering strategy
	Verbose     bool           // log imports before and after sorting
	DryRun      bool           // never write files
	Diff        bool           // print a unified diff for every changed file
	KeepAliases bool           // render "as" clauses
	Jobs        int            // files processed concurrently, at least 1
	Exclude     []string       // glob patterns skipped during directory sweeps
	Logger      *slog.Logger   // defaults to slog.Default()
	Out         io.Writer      // diff output, defaults to os.Stdout
}

// Result describes what processing one file did.
type Result struct {
	Path    string
	Changed bool // sorted content differs from the file
	Written bool // file was rewritten
}

// formatter handles the import sorting of files and directories
type formatter struct {
	config FormatterConfig
	outMu  sync.Mutex
}

// New creates a new formatter with the specified configuration
func New(config FormatterConfig) *formatter {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.Jobs < 1 {
		config.Jobs = 1
	}
	return &formatter{config: config}
}

func (g *formatter) logger() *slog.Logger {
	return g.config.Logger
}

// ProcessFile sorts the imports of a single Python file
func (g *formatter) ProcessFile(path string) (Result, error) {
	result := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return result, errors.IO(err, errors.ErrMsgFailedToReadFile, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return result, errors.IO(err, errors.ErrMsgFailedToReadFile, path)
	}

	rw, err := RewriteSource(src, g.config.Policy, g.config.KeepAliases)
	if err != nil {
		return result, errors.Parse(err, path)
	}
	result.Changed = !bytes.Equal(rw.Output, src)

	if g.config.Verbose {
		g.logger().Info(errors.InfoMsgProcessingFile, "path", path)
		g.logger().Info(errors.InfoMsgOriginalImports)
		for _, line := range rw.Original {
			g.logger().Info(line)
		}
		g.logger().Info(errors.InfoMsgSortedImports)
		for _, line := range rw.Sorted {
			g.logger().Info(line)
		}
	}

	if !result.Changed {
		g.logger().Debug(errors.InfoMsgAlreadySorted, "path", path)
		return result, nil
	}

	if g.config.Diff {
		if err := g.writeDiff(path, src, rw.Output); err != nil {
			return result, fmt.Errorf("%s: %w", errors.ErrMsgFailedToRenderDiff, err)
		}
	}

	if g.config.DryRun {
		g.logger().Info(errors.InfoMsgDryRun, "path", path)
		return result, nil
	}

	if err := os.WriteFile(path, rw.Output, info.Mode().Perm()); err != nil {
		return result, errors.IO(err, errors.ErrMsgFailedToWriteFile, path)
	}
	result.Written = true
	g.logger().Info(errors.InfoMsgSortedFile, "path", path)
	return result, nil
}

func (g *formatter) writeDiff(path string, before, after []byte) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return err
	}

	g.outMu.Lock()
	defer g.outMu.Unlock()
	_, err = io.WriteString(g.config.Out, diff)
	return err
}

// ProcessFiles sorts the imports of every file. Each file is handled by exactly
// one worker; a failing file is logged and skipped while the others continue.
func (g *formatter) ProcessFiles(ctx context.Context, filePaths []string) error {
	var processed, failed atomic.Int64

	var eg errgroup.Group
	eg.SetLimit(g.config.Jobs)
	for _, filePath := range filePaths {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := g.ProcessFile(filePath); err != nil {
				g.logger().Error(errors.InfoMsgErrorProcessing, "path", filePath, "error", err)
				failed.Add(1)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	_ = eg.Wait()

	g.logger().Info(errors.InfoMsgProcessedCount, "succeeded", processed.Load(), "failed", failed.Load())

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf(errors.ErrMsgFilesFailedToProcess, n)
	}
	return nil
}

// ProcessDirectory sorts the imports of every Python file below dir
func (g *formatter) ProcessDirectory(ctx context.Context, dir string) error {
	excludes, err := utils.CompileGlobs(g.config.Exclude)
	if err != nil {
		return errors.Validation(err.Error(), "")
	}

	pyFiles, err := utils.FindPythonFiles(dir, excludes)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToFindPythonFiles, err)
	}

	if len(pyFiles) == 0 {
		g.logger().Info(errors.InfoMsgNoPythonFilesFound, "path", dir)
		return nil
	}

	g.logger().Info(errors.InfoMsgFoundPythonFiles, "path", dir, "count", len(pyFiles))
	return g.ProcessFiles(ctx, pyFiles)
}

// ProcessPath processes a file or directory path
func (g *formatter) ProcessPath(ctx context.Context, path string) error {
	isDir, err := utils.IsDirectory(path)
	if err != nil {
		return errors.IO(err, errors.ErrMsgFailedToCheckPath, path)
	}

	if isDir {
		return g.ProcessDirectory(ctx, path)
	}
	_, err = g.ProcessFile(path)
	return err
}
