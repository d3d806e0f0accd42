// Package watch notifies listeners when files under a site root change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/grain/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before listeners run.
const DefaultDebounce = 300 * time.Millisecond

// SiteChangeListener reacts to a change anywhere in the site.
type SiteChangeListener interface {
	SiteChanged()
}

// ListenerFunc adapts a function to SiteChangeListener.
type ListenerFunc func()

// SiteChanged calls f.
func (f ListenerFunc) SiteChanged() { f() }

// Watcher monitors a directory tree. Listeners run one after another, in
// registration order, on the goroutine that called Run.
type Watcher struct {
	root      string
	watcher   *fsnotify.Watcher
	listeners []SiteChangeListener
	ignored   []string
	debounce  time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithListener registers l.
func WithListener(l SiteChangeListener) Option {
	return func(w *Watcher) { w.listeners = append(w.listeners, l) }
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnoredDirs excludes directories, typically the output and cache
// directories when they live inside the root.
func WithIgnoredDirs(dirs ...string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			if d == "" {
				continue
			}
			if abs, err := filepath.Abs(d); err == nil {
				w.ignored = append(w.ignored, abs)
			}
		}
	}
}

// New creates a watcher for root and every directory below it.
func New(root string, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	w := &Watcher{root: absRoot, watcher: fw, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addDirsRecursive(absRoot); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("Watching site for changes", logfields.Path(w.root))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	trigger := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(ev) {
				trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-fire:
			w.notify()
		}
	}
}

// Close stops the underlying watcher; Run returns afterwards.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) notify() {
	slog.Debug("Site changed", logfields.Count(len(w.listeners)))
	for _, l := range w.listeners {
		l.SiteChanged()
	}
}

// handleEvent reports whether ev should trigger listeners.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) || w.isIgnored(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod && ev.Op&^fsnotify.Chmod == 0 {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) isIgnored(path string) bool {
	for _, dir := range w.ignored {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.isIgnored(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
