// Package watcher reports changes below a project root.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nielssp/plet/internal/diagnostics"
)

const DefaultInterval = 2 * time.Second

// Watcher calls a function whenever something below Root may have changed.
// Filesystem events are delivered by fsnotify; a ticker polls at Interval
// for changes the event stream misses.
type Watcher struct {
	Root     string
	Skip     map[string]struct{}
	Interval time.Duration
	Reporter *diagnostics.Reporter
}

// New creates a watcher for root that ignores the given directory names.
func New(root string, reporter *diagnostics.Reporter, skip ...string) *Watcher {
	w := &Watcher{
		Root:     root,
		Skip:     map[string]struct{}{".git": {}},
		Interval: DefaultInterval,
		Reporter: reporter,
	}
	for _, name := range skip {
		w.Skip[name] = struct{}{}
	}
	return w
}

// Run blocks until ctx is done. onChange receives true when files were
// created, removed or renamed, which the module map cannot detect by
// itself, and false for writes and polls.
func (w *Watcher) Run(ctx context.Context, onChange func(structural bool)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.watchDirs(fw, w.Root); err != nil {
		return err
	}

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.shouldAddWatchDir(event) {
				if err := w.watchDirs(fw, event.Name); err != nil {
					w.warn("%s: %v", event.Name, err)
				}
			}
			if !isWatchEvent(event.Op) || w.skipped(event.Name) {
				continue
			}
			onChange(event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.warn("watcher: %v", err)
		case <-ticker.C:
			onChange(false)
		}
	}
}

func (w *Watcher) watchDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.warn("%s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.Root && w.shouldSkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func (w *Watcher) shouldSkipDir(name string) bool {
	_, exists := w.Skip[name]
	return exists
}

// skipped reports whether path is inside an ignored directory.
func (w *Watcher) skipped(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	for dir := rel; dir != "." && dir != string(filepath.Separator) && dir != ""; dir = filepath.Dir(dir) {
		if w.shouldSkipDir(filepath.Base(dir)) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldAddWatchDir(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == 0 {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	return info.IsDir() && !w.shouldSkipDir(info.Name())
}

func (w *Watcher) warn(format string, args ...interface{}) {
	if w.Reporter != nil {
		w.Reporter.Warning(format, args...)
	}
}

func isWatchEvent(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
