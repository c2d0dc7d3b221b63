package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrimIndex(t *testing.T) {
	tests := map[string]string{
		"index.html":         "",
		"blog/index.html":    "blog",
		"blog/post.html":     "blog/post.html",
		"notindex.html":      "notindex.html",
		"blog/notindex.html": "blog/notindex.html",
	}
	for in, want := range tests {
		if got := TrimIndex(in); got != want {
			t.Errorf("TrimIndex(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCombinePaths(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/", "a/b", "/a/b"},
		{"/site/", "/a", "/site/a"},
		{"https://example.com", "feed.xml", "https://example.com/feed.xml"},
		{"/site/", "", "/site/"},
		{"", "", "/"},
	}
	for _, tt := range tests {
		if got := CombinePaths(tt.root, tt.path); got != tt.want {
			t.Errorf("CombinePaths(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestWebPath(t *testing.T) {
	tests := []struct {
		rel, root, want string
	}{
		{"index.html", "/", "/"},
		{"blog/index.html", "/", "/blog"},
		{"assets/a.png", "/base/", "/base/assets/a.png"},
		{"../secret", "/", "#invalid-path"},
	}
	for _, tt := range tests {
		if got := WebPath(tt.rel, tt.root); got != tt.want {
			t.Errorf("WebPath(%q, %q) = %q, want %q", tt.rel, tt.root, got, tt.want)
		}
	}
}

func TestSamePage(t *testing.T) {
	if !SamePage("/blog/", "blog/index.html") {
		t.Error("expected /blog/ to match blog/index.html")
	}
	if SamePage("blog", "about") {
		t.Error("expected blog and about to differ")
	}
}

func TestIsDescendant(t *testing.T) {
	if !IsDescendant("/a", "/a/b/c") {
		t.Error("expected /a/b/c inside /a")
	}
	if IsDescendant("/a", "/b") {
		t.Error("expected /b outside /a")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dest := filepath.Join(dir, "out", "nested", "a.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	copied, err := CopyFile(src, dest)
	if err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if !copied {
		t.Errorf("expected first copy to write the file")
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("copied content = %q", data)
	}
	srcInfo, _ := os.Stat(src)
	destInfo, _ := os.Stat(dest)
	if !srcInfo.ModTime().Equal(destInfo.ModTime()) {
		t.Errorf("mtime not preserved: %v vs %v", srcInfo.ModTime(), destInfo.ModTime())
	}
	if Outdated(src, dest) {
		t.Errorf("copy reported as outdated")
	}
	copied, err = CopyFile(src, dest)
	if err != nil || copied {
		t.Errorf("second copy = %v, %v; want skipped", copied, err)
	}
}
