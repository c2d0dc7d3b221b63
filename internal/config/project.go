package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project holds the optional settings read from plet.yaml.
type Project struct {
	Root string `yaml:"-"`

	Dist                  string   `yaml:"dist"`
	Port                  string   `yaml:"port"`
	RootPath              string   `yaml:"root_path"`
	RootURL               string   `yaml:"root_url"`
	ImagePreserveLossless bool     `yaml:"image_preserve_lossless"`
	Markdown              Markdown `yaml:"markdown"`
}

type Markdown struct {
	Highlight bool   `yaml:"highlight"`
	Style     string `yaml:"style"`
}

// ErrNoProject is returned when no index file is found in the working
// directory or any of its parents.
var ErrNoProject = errors.New("not a plet project (no index.plet found)")

func DefaultProject(root string) *Project {
	return &Project{
		Root:     root,
		Dist:     DefaultDistDir,
		Port:     DefaultPort,
		RootPath: "/",
		Markdown: Markdown{Highlight: true, Style: "github"},
	}
}

// LoadProject reads plet.yaml from root. A missing file yields the defaults.
func LoadProject(root string) (*Project, error) {
	p := DefaultProject(root)
	data, err := os.ReadFile(filepath.Join(root, ProjectFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ProjectFile, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ProjectFile, err)
	}
	p.Root = root
	if p.Dist == "" {
		p.Dist = DefaultDistDir
	}
	if p.Port == "" {
		p.Port = DefaultPort
	}
	if !strings.HasPrefix(p.RootPath, "/") {
		p.RootPath = "/" + p.RootPath
	}
	if !strings.HasSuffix(p.RootPath, "/") {
		p.RootPath += "/"
	}
	p.RootURL = strings.TrimSuffix(p.RootURL, "/")
	return p, nil
}

// DistDir is the absolute output directory.
func (p *Project) DistDir() string {
	if filepath.IsAbs(p.Dist) {
		return p.Dist
	}
	return filepath.Join(p.Root, p.Dist)
}

// IndexFile returns the path of the project's index script.
func (p *Project) IndexFile() string {
	for _, name := range IndexFiles {
		path := filepath.Join(p.Root, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(p.Root, IndexFiles[0])
}

// FindProjectRoot walks up from dir to the first directory containing an
// index file.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range IndexFiles {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}
