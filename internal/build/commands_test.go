package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "index.plet") {
		t.Errorf("Init() path = %q", path)
	}
	if _, err := Init(dir); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	project, err := config.LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	site := NewSite(project, diagnostics.NewReporter(&out))
	failed, err := site.Build(context.Background())
	if err != nil || failed != 0 {
		t.Fatalf("building the initial site: %d, %v\n%s", failed, err, out.String())
	}
	if len(site.Pages()) != 0 {
		t.Errorf("expected an empty site map, got %d pages", len(site.Pages()))
	}
}

func TestClean(t *testing.T) {
	site, _ := newTestSite(t, map[string]string{
		"index.plet": "SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]",
		"p.plet":     "hi",
	})
	if _, err := site.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	dist := site.Project.DistDir()
	if _, err := os.Stat(dist); err != nil {
		t.Fatalf("expected output directory: %v", err)
	}
	if err := Clean(site.Project); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dist); !os.IsNotExist(err) {
		t.Error("output directory must be removed")
	}
	if err := Clean(site.Project); err != nil {
		t.Errorf("cleaning twice: %v", err)
	}
}
