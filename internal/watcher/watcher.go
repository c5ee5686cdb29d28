// Package watcher reports batches of changed document files.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/fsutil"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a document path and calls onChange with the files that
// changed once writes have settled.
type Watcher struct {
	root      string
	extension string
	fsWatcher *fsnotify.Watcher
	onChange  func(ctx context.Context, files []string)
	onError   func(error)

	debounceDelay time.Duration
	pendingMu     sync.Mutex
	pendingFiles  map[string]struct{}
	debounceTimer *time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceDelay sets the debounce delay.
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDelay = d }
}

// WithExtension limits events to files with the given extension.
func WithExtension(ext string) Option {
	return func(w *Watcher) { w.extension = ext }
}

// WithOnError sets the callback for watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New watches root, a directory tree or a single file.
func New(root string, onChange func(ctx context.Context, files []string), opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:          root,
		fsWatcher:     fsWatcher,
		onChange:      onChange,
		debounceDelay: DefaultDebounce,
		pendingFiles:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addDirs(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directories to watch: %w", err)
	}
	return w, nil
}

// addDirs adds root's directories. A file root is watched through its
// directory so that editors replacing the file are noticed.
func (w *Watcher) addDirs() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsWatcher.Add(filepath.Dir(w.root))
	}
	dirs, err := fsutil.Dirs(w.root)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.fsWatcher.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// Run handles events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			} else {
				ctxlog.FromContext(ctx).Error("Watch error.", "error", err)
			}
		}
	}
}

func (w *Watcher) stop() {
	w.pendingMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pendingMu.Unlock()
	w.fsWatcher.Close()
}

func (w *Watcher) relevant(name string) bool {
	if w.extension != "" && !strings.HasSuffix(name, w.extension) {
		return false
	}
	info, err := os.Stat(w.root)
	if err == nil && !info.IsDir() {
		return filepath.Clean(name) == filepath.Clean(w.root)
	}
	return true
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if fsutil.IsHidden(info.Name()) {
				return
			}
			if err := w.fsWatcher.Add(event.Name); err != nil {
				ctxlog.FromContext(ctx).Warn("Cannot watch new directory.", "path", event.Name, "error", err)
			}
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !w.relevant(event.Name) {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pendingFiles[event.Name] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		files = append(files, f)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(files)
	ctxlog.FromContext(ctx).Debug("Documents changed.", "files", files)
	w.onChange(ctx, files)
}
