// Package watcher triggers re-runs when a request, its documents, or their outlines change.
// Events are coalesced: a burst of file changes produces one callback after the
// debounce interval with every changed path.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/pkg/utils"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches directories and individual files and invokes onChange after
// changes settle.
type Watcher struct {
	roots      []string
	files      map[string]bool
	extensions []string
	onChange   func(changed []string)
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watched  map[string]bool
	pending  map[string]bool
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for event output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long changes must settle before onChange fires. Non-positive keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFiles watches individual files regardless of extension. Their parent
// directories are watched so editors that replace files on save are observed.
func WithFiles(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.files[filepath.Clean(abs)] = true
			}
		}
	}
}

// NewWatcher creates a watcher over roots (non-recursive). extensions filter
// which files in roots count as changes (empty = all).
func NewWatcher(roots []string, extensions []string, onChange func(changed []string), opts ...Option) *Watcher {
	w := &Watcher{
		files:      make(map[string]bool),
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		watched:    make(map[string]bool),
		pending:    make(map[string]bool),
		done:       make(chan struct{}),
	}
	for _, r := range roots {
		if r == "" {
			continue
		}
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		w.roots = append(w.roots, filepath.Clean(r))
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := append([]string(nil), w.roots...)
	for f := range w.files {
		dirs = append(dirs, filepath.Dir(f))
	}
	for _, dir := range dirs {
		if w.watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			clear(w.watched)
			return err
		}
		w.watched[dir] = true
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watcher starting",
		zap.Strings("roots", w.roots),
		zap.Int("files", len(w.files)),
		zap.Strings("extensions", w.extensions),
		zap.Duration("debounce", w.debounce),
	)
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(ev.Name)
	if !w.relevant(path) {
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.started || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	w.timer = nil
	onChange := w.onChange
	w.mu.Unlock()

	slices.Sort(changed)
	w.logger.Debug("watcher changes settled", zap.Strings("paths", changed))
	if onChange != nil {
		onChange(changed)
	}
}

// relevant reports whether path is a watched file or a matching file directly inside a root.
func (w *Watcher) relevant(path string) bool {
	if w.files[path] {
		return true
	}
	dir := filepath.Dir(path)
	for _, root := range w.roots {
		if root == dir {
			return matchExtension(path, w.extensions)
		}
	}
	return false
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Roots returns a copy of the watched root directories.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and releases resources. Pending changes are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	clear(w.pending)
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
