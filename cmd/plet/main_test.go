package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nielssp/plet/internal/diagnostics"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want globalArgs
	}{
		{"command", []string{"plet", "build"}, globalArgs{command: "build"}},
		{"short port", []string{"plet", "-p", "8080", "serve"}, globalArgs{command: "serve", port: "8080"}},
		{"joined port", []string{"plet", "serve", "-p8080"}, globalArgs{command: "serve", port: "8080"}},
		{"long port", []string{"plet", "serve", "--port=9000"}, globalArgs{command: "serve", port: "9000"}},
		{"eval flags", []string{"plet", "-t", "eval", "page.plet", "--ast"}, globalArgs{command: "eval", args: []string{"page.plet"}, template: true, ast: true}},
		{"help", []string{"plet", "--help"}, globalArgs{help: true}},
		{"version", []string{"plet", "-v"}, globalArgs{version: true}},
		{"dashdash", []string{"plet", "eval", "--", "-odd.plet"}, globalArgs{command: "eval", args: []string{"-odd.plet"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.argv)
			if err != nil {
				t.Fatal(err)
			}
			tt.want.programName = "plet"
			if diff := cmp.Diff(tt.want, *got, cmp.AllowUnexported(globalArgs{})); diff != "" {
				t.Errorf("parseArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, argv := range [][]string{{"plet", "--port"}, {"plet", "-x"}} {
		if _, err := parseArgs(argv); err == nil {
			t.Errorf("parseArgs(%v): expected error", argv)
		}
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runIn(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, reporter: diagnostics.NewReporter(&stderr), dir: dir}
	code := run(context.Background(), append([]string{"plet"}, args...), c)
	return result{code, stdout.String(), stderr.String()}
}

func TestVersionAndHelp(t *testing.T) {
	dir := t.TempDir()
	if r := runIn(t, dir, "--version"); r.code != 0 || r.stdout != "Plet 0.1.0\n" {
		t.Errorf("--version = %+v", r)
	}
	if r := runIn(t, dir, "-h"); r.code != 0 || !strings.Contains(r.stdout, "lipsum [<dir>]") {
		t.Errorf("-h = %+v", r)
	}
	if r := runIn(t, dir); r.code != 1 || !strings.HasPrefix(r.stdout, "usage: plet") {
		t.Errorf("no command = %+v", r)
	}
	if r := runIn(t, dir, "frobnicate"); r.code != 1 || !strings.Contains(r.stderr, "unrecognized command: frobnicate") {
		t.Errorf("unknown command = %+v", r)
	}
}

func TestInitBuildClean(t *testing.T) {
	dir := t.TempDir()
	if r := runIn(t, dir, "build"); r.code != 1 || !strings.Contains(r.stderr, "not a plet project") {
		t.Errorf("build outside project = %+v", r)
	}
	if r := runIn(t, dir, "init"); r.code != 0 {
		t.Fatalf("init = %+v", r)
	}
	if r := runIn(t, dir, "init"); r.code != 1 || !strings.Contains(r.stderr, "file exists") {
		t.Errorf("second init = %+v", r)
	}

	index := "SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]"
	if err := os.WriteFile(filepath.Join(dir, "index.plet"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "p.plet"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "templates")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if r := runIn(t, sub, "build"); r.code != 0 {
		t.Fatalf("build = %+v", r)
	}
	data, err := os.ReadFile(filepath.Join(dir, "dist", "p.html"))
	if err != nil || string(data) != "hi" {
		t.Errorf("dist/p.html = %q, %v", data, err)
	}

	if r := runIn(t, dir, "clean"); r.code != 0 {
		t.Errorf("clean = %+v", r)
	}
	if _, err := os.Stat(filepath.Join(dir, "dist")); !os.IsNotExist(err) {
		t.Error("dist must be removed")
	}
}

func TestBuildFailures(t *testing.T) {
	dir := t.TempDir()
	index := "SITE_MAP = [{path: 'bad.plet', dest: 'bad.html'}]"
	os.WriteFile(filepath.Join(dir, "index.plet"), []byte(index), 0o644)
	os.WriteFile(filepath.Join(dir, "bad.plet"), []byte("{1 / 0}"), 0o644)
	r := runIn(t, dir, "build")
	if r.code != 1 || !strings.Contains(r.stderr, "1 of 1 pages failed") {
		t.Errorf("build = %+v", r)
	}
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "page.plet"), []byte("{ 1 + 2 * 3 }"), 0o644)
	os.WriteFile(filepath.Join(dir, "script.plet"), []byte("upper('ok')"), 0o644)

	if r := runIn(t, dir, "eval", "-t", "page.plet"); r.code != 0 || r.stdout != "7" {
		t.Errorf("eval -t = %+v", r)
	}
	if r := runIn(t, dir, "eval", "script.plet"); r.code != 0 || r.stdout != "OK" {
		t.Errorf("eval = %+v", r)
	}
	if r := runIn(t, dir, "eval", "-t", "-a", "page.plet"); r.code != 0 || r.stdout != "{1 + 2 * 3}\n" {
		t.Errorf("eval -a = %+v", r)
	}
	if r := runIn(t, dir, "eval"); r.code != 1 || r.stdout != "usage: plet eval <file>\n" {
		t.Errorf("eval without file = %+v", r)
	}
	if r := runIn(t, dir, "eval", "missing.plet"); r.code != 1 || r.stderr == "" {
		t.Errorf("eval missing = %+v", r)
	}
}

func TestLipsum(t *testing.T) {
	dir := t.TempDir()
	if r := runIn(t, dir, "lipsum"); r.code != 0 || !strings.HasPrefix(r.stdout, "{\n  published: ") {
		t.Errorf("lipsum = %+v", r)
	}
	if r := runIn(t, dir, "lipsum", "posts"); r.code != 0 {
		t.Fatalf("lipsum posts = %+v", r)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "posts"))
	if err != nil || len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".md" {
		t.Errorf("expected one markdown file, got %v, %v", entries, err)
	}
}

func TestWatchReportsBuildErrors(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.plet"), []byte("SITE_MAP = [{path: 'p.plet', dest: 'p.html'}]"), 0o644)
	os.WriteFile(filepath.Join(dir, "p.plet"), []byte("hi"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, reporter: diagnostics.NewReporter(&stderr), dir: dir}
	if code := run(ctx, []string{"plet", "watch"}, c); code != 0 {
		t.Errorf("watch = %d\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), context.Canceled.Error()) {
		t.Errorf("interrupted build must be reported:\n%s", stderr.String())
	}
}
