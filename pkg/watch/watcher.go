// Package watch reports Python files that change below a directory tree.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/siyuan-infoblox/pysort/pkg/utils"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 300 * time.Millisecond

type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	excludes   []glob.Glob
	logger     *slog.Logger
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New creates a watcher that calls onChange with the sorted paths of Python files
// written or created since the previous call.
func New(debounce time.Duration, excludes []glob.Glob, logger *slog.Logger, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		excludes:  excludes,
		logger:    logger,
		onChange:  onChange,
		pending:   make(map[string]struct{}),
	}, nil
}

// Add watches root and every directory below it that a sweep would visit.
func (w *Watcher) Add(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && utils.SkipDir(path, w.excludes) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run dispatches events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if utils.SkipDir(event.Name, w.excludes) {
				return
			}
			if err := w.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExisting(event.Name)
			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.wanted(event.Name) {
		w.schedule(event.Name)
	}
}

func (w *Watcher) wanted(path string) bool {
	return utils.IsPythonFile(path) && !utils.MatchesAny(w.excludes, path)
}

// enqueueExisting schedules files that appeared in a new directory before it was
// being watched.
func (w *Watcher) enqueueExisting(root string) {
	pyFiles, err := utils.FindPythonFiles(root, w.excludes)
	if err != nil {
		w.logger.Warn("failed to list new directory", "path", root, "error", err)
		return
	}
	for _, path := range pyFiles {
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) close() {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.Warn("failed to close watcher", "error", err)
	}
}
