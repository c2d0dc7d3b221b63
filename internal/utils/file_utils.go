package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Outdated reports whether dest is missing or has a different
// modification time than src.
func Outdated(src, dest string) bool {
	info, err := os.Stat(src)
	if err != nil {
		return true
	}
	destInfo, err := os.Stat(dest)
	return err != nil || !destInfo.ModTime().Equal(info.ModTime())
}

// CopyFile copies src to dest, creating parent directories. The copy gets
// the modification time of src, and an up to date copy is left alone.
// The result reports whether dest was written.
func CopyFile(src, dest string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if destInfo, err := os.Stat(dest); err == nil && destInfo.ModTime().Equal(info.ModTime()) && destInfo.Size() == info.Size() {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", dest, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return false, err
	}
	return true, os.Chtimes(dest, info.ModTime(), info.ModTime())
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
