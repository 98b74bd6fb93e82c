// Package watch keeps the index in sync with directories of statute files.
// Changes are collected from fsnotify, debounced, and handed to the indexing
// pipeline in batches.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mevzuatgpt/mevzuat/internal/index"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is indexed.
const DefaultDebounce = 500 * time.Millisecond

// Indexer is the part of the indexing pipeline the watcher drives.
type Indexer interface {
	Index(ctx context.Context, req index.IndexRequest) (*index.IndexResult, error)
	Remove(ctx context.Context, paths []string) (*index.IndexResult, error)
	Prune(ctx context.Context, currentPaths []string) (*index.IndexResult, error)
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Paths are the directories to watch, recursively.
	Paths []string

	// Extensions limits the files indexed; empty accepts all files.
	Extensions []string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Prune removes tracked files that vanished while nobody was watching.
	Prune bool

	// OnSync is called after every sync that indexed files, with the
	// running total.
	OnSync func(fileCount int, at time.Time)

	Indexer Indexer
	Log     *logger.Logger
}

// Watcher indexes statute files as they change on disk.
type Watcher struct {
	roots   []*IgnoreFilter
	exts    []string
	indexer Indexer
	prune   bool
	onSync  func(int, time.Time)

	// Batch processing
	pendingMu  sync.Mutex
	pending    map[string]struct{}
	batchTimer *time.Timer
	batchDelay time.Duration
	flush      chan struct{}

	// Stats
	statsMu   sync.Mutex
	fileCount int
	lastSync  time.Time

	// Lifecycle
	done     chan struct{}
	stopOnce sync.Once
	log      *logger.Logger
}

// NewWatcher validates cfg and creates a watcher. Every path must be an
// existing directory.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Indexer == nil {
		return nil, errors.ValidationError("watcher requires an indexer")
	}
	if len(cfg.Paths) == 0 {
		return nil, errors.ValidationError("watcher requires at least one directory")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Log == nil {
		cfg.Log = logger.Default()
	}

	w := &Watcher{
		exts:       cfg.Extensions,
		indexer:    cfg.Indexer,
		prune:      cfg.Prune,
		onSync:     cfg.OnSync,
		pending:    make(map[string]struct{}),
		batchDelay: cfg.Debounce,
		flush:      make(chan struct{}, 1),
		done:       make(chan struct{}),
		log:        cfg.Log.WithComponent("watcher"),
	}

	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.IOError("resolving watch path", err).WithDetail("path", p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.IOError("reading watch path", err).WithDetail("path", p)
		}
		if !info.IsDir() {
			return nil, errors.ValidationError("watch path is not a directory").WithDetail("path", p)
		}

		filter, err := NewIgnoreFilter(abs)
		if err != nil {
			return nil, errors.IOError("loading ignore patterns", err).WithDetail("path", p)
		}
		w.roots = append(w.roots, filter)
	}

	return w, nil
}

// Start indexes the watched directories once and then follows changes until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info("starting watcher", "paths", len(w.roots), "debounce", w.batchDelay.String())

	// Create fsnotify watcher before the initial sync so no change is lost.
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.IOError("creating file watcher", err)
	}
	defer fsWatcher.Close()

	for _, root := range w.roots {
		if err := w.addRecursive(fsWatcher, root.Root()); err != nil {
			return err
		}
	}

	if err := w.initialSync(ctx); err != nil {
		return err
	}

	w.log.Info("watching for changes")

	// Event loop
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()
		case <-w.done:
			w.stopTimer()
			return nil
		case <-w.flush:
			w.processBatch(ctx)
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, fsWatcher)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err.Error())
		}
	}
}

// Stop ends a running Start. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// Stats returns the number of files indexed so far and the time of the last
// successful sync.
func (w *Watcher) Stats() (int, time.Time) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.fileCount, w.lastSync
}

// filterFor returns the filter of the root containing path.
func (w *Watcher) filterFor(path string) *IgnoreFilter {
	for _, root := range w.roots {
		if root.Contains(path) {
			return root
		}
	}
	return nil
}

// accepts reports whether path is a statute file the watcher should index.
func (w *Watcher) accepts(path string) bool {
	filter := w.filterFor(path)
	if filter == nil || filter.ShouldIgnore(path, false) {
		return false
	}
	return index.HasExtension(path, w.exts)
}

// walk calls fn for every directory and accepted file under dir.
func (w *Watcher) walk(dir string, onDir, onFile func(path string) error) error {
	filter := w.filterFor(dir)

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("error walking path", "path", path, "error", err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if filter != nil && filter.ShouldIgnore(path, true) {
				return filepath.SkipDir
			}
			if onDir != nil {
				return onDir(path)
			}
			return nil
		}
		if onFile != nil && d.Type().IsRegular() && w.accepts(path) {
			return onFile(path)
		}
		return nil
	})
}

func (w *Watcher) addRecursive(fsWatcher *fsnotify.Watcher, dir string) error {
	err := w.walk(dir, fsWatcher.Add, nil)
	if err != nil {
		return errors.IOError("watching directory", err).WithDetail("path", dir)
	}
	return nil
}

// files lists every accepted file under the watched roots, sorted.
func (w *Watcher) files() ([]string, error) {
	var files []string
	for _, root := range w.roots {
		err := w.walk(root.Root(), nil, func(path string) error {
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, errors.IOError("walking watch directory", err).WithDetail("path", root.Root())
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (w *Watcher) initialSync(ctx context.Context) error {
	w.log.Info("performing initial sync")

	files, err := w.files()
	if err != nil {
		return err
	}

	if w.prune {
		res, err := w.indexer.Prune(ctx, files)
		if err != nil {
			return err
		}
		if res.Removed > 0 {
			w.log.Info("pruned vanished files", "removed", res.Removed)
		}
	}

	res, err := w.indexer.Index(ctx, index.IndexRequest{Paths: files})
	if err != nil {
		return err
	}
	w.recordSync(res.Indexed)

	w.log.Info("initial sync finished",
		"files", len(files),
		"indexed", res.Indexed,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event, fsWatcher *fsnotify.Watcher) {
	path := event.Name

	if event.Op == fsnotify.Chmod {
		return
	}

	// A new directory gets watched, and any files already in it (a moved-in
	// tree) are queued.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if filter := w.filterFor(path); filter != nil && filter.ShouldIgnore(path, true) {
				return
			}
			var queued []string
			err := w.walk(path, fsWatcher.Add, func(p string) error {
				queued = append(queued, p)
				return nil
			})
			if err != nil {
				w.log.Warn("failed to watch new directory", "path", path, "error", err.Error())
			}
			w.enqueue(queued...)
			return
		}
	}

	if !w.accepts(path) {
		return
	}
	w.enqueue(path)
}

// enqueue adds paths to the pending batch and restarts the debounce timer.
func (w *Watcher) enqueue(paths ...string) {
	if len(paths) == 0 {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	for _, p := range paths {
		w.pending[p] = struct{}{}
	}

	if w.batchTimer != nil {
		w.batchTimer.Stop()
	}
	w.batchTimer = time.AfterFunc(w.batchDelay, func() {
		select {
		case w.flush <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.batchTimer != nil {
		w.batchTimer.Stop()
	}
}

// takePending empties the pending set and returns it sorted.
func (w *Watcher) takePending() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	files := make([]string, 0, len(w.pending))
	for path := range w.pending {
		files = append(files, path)
	}
	w.pending = make(map[string]struct{})

	slices.Sort(files)
	return files
}

func (w *Watcher) processBatch(ctx context.Context) {
	files := w.takePending()
	if len(files) == 0 {
		return
	}

	w.log.Info("processing batch", "count", len(files))

	// Separate creates/updates from deletes
	var toIndex, toRemove []string
	for _, path := range files {
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			toRemove = append(toRemove, path)
		case err != nil:
			w.log.Warn("failed to stat file", "path", path, "error", err.Error())
		case info.Mode().IsRegular():
			toIndex = append(toIndex, path)
		}
	}

	if len(toRemove) > 0 {
		res, err := w.indexer.Remove(ctx, toRemove)
		if err != nil {
			w.log.Error("failed to remove files", "error", err.Error())
		} else {
			w.log.Info("removed files", "removed", res.Removed, "failed", res.Failed)
		}
	}

	if len(toIndex) > 0 {
		res, err := w.indexer.Index(ctx, index.IndexRequest{Paths: toIndex})
		if err != nil {
			w.log.Error("failed to index batch", "error", err.Error())
			return
		}
		w.recordSync(res.Indexed)
		w.log.Info("batch sync complete", "indexed", res.Indexed, "skipped", res.Skipped, "failed", res.Failed)
	}
}

func (w *Watcher) recordSync(indexed int) {
	w.statsMu.Lock()
	w.fileCount += indexed
	w.lastSync = time.Now()
	count, at := w.fileCount, w.lastSync
	w.statsMu.Unlock()

	if w.onSync != nil {
		w.onSync(count, at)
	}
}
