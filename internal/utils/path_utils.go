package utils

import (
	"path"
	"path/filepath"
	"strings"
)

// ResolvePath resolves name relative to dir unless it is absolute.
func ResolvePath(dir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, filepath.FromSlash(name))
}

// TrimIndex strips a trailing "index.html" so that directory indexes link
// to the directory.
func TrimIndex(webPath string) string {
	if webPath == "index.html" {
		return ""
	}
	return strings.TrimSuffix(webPath, "/index.html")
}

// CombinePaths joins a root path or URL with a site path using exactly one
// slash between them.
func CombinePaths(root, p string) string {
	if p == "" {
		if root == "" {
			return "/"
		}
		return root
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(p, "/")
}

// WebPath converts a path relative to the output directory to a link
// under root. Paths leaving the output directory are invalid.
func WebPath(rel, root string) string {
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "#invalid-path"
	}
	if path.Base(rel) == "index.html" {
		rel = path.Dir(rel)
		if rel == "." {
			rel = ""
		}
	}
	return CombinePaths(root, rel)
}

// SamePage compares two site paths ignoring surrounding slashes and index
// files.
func SamePage(a, b string) bool {
	return strings.Trim(TrimIndex(a), "/") == strings.Trim(TrimIndex(b), "/")
}

// IsDescendant reports whether p lies inside dir.
func IsDescendant(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
