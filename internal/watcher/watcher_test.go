package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsWatchEvent(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want bool
	}{
		{fsnotify.Create, true},
		{fsnotify.Write, true},
		{fsnotify.Remove, true},
		{fsnotify.Rename, true},
		{fsnotify.Chmod, false},
	}
	for _, tt := range tests {
		if got := isWatchEvent(tt.op); got != tt.want {
			t.Errorf("isWatchEvent(%s) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestSkipped(t *testing.T) {
	root := t.TempDir()
	w := New(root, nil, "dist")
	tests := map[string]bool{
		filepath.Join(root, "index.plet"):             false,
		filepath.Join(root, "posts", "a.md"):          false,
		filepath.Join(root, "dist", "index.html"):     true,
		filepath.Join(root, "dist", "blog", "a.html"): true,
		filepath.Join(root, ".git", "HEAD"):           true,
	}
	for path, want := range tests {
		if got := w.skipped(path); got != want {
			t.Errorf("skipped(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "posts"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := New(root, nil, "dist")
	w.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan bool, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(structural bool) { changes <- structural })
	}()

	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "posts", "new.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case structural := <-changes:
		if !structural {
			t.Error("creating a file must be reported as structural")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
