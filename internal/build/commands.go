package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nielssp/plet/internal/config"
)

// ErrExists is returned by Init when the directory already has an index.
var ErrExists = errors.New("file exists")

const initialIndex = `{# Pages are added to SITE_MAP, e.g. add_page('index.html', 'templates/index.plet') #}
`

// Init creates an index script in dir.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, config.IndexFiles[0])
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return path, fmt.Errorf("%s: %w", config.IndexFiles[0], ErrExists)
		}
		return path, err
	}
	defer f.Close()
	_, err = f.WriteString(initialIndex)
	return path, err
}

// Clean removes the output directory of project.
func Clean(project *config.Project) error {
	dist := project.DistDir()
	info, err := os.Stat(dist)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dist)
	}
	return os.RemoveAll(dist)
}
