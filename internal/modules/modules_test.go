package modules

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/diagnostics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	mtime := time.Now().Add(offset)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func objectKeys(t *testing.T, node ast.Node) []string {
	t.Helper()
	obj, ok := node.(*ast.ObjectLiteral)
	if !ok {
		t.Fatalf("expected object literal, got %T", node)
	}
	var keys []string
	for _, p := range obj.Properties {
		switch k := p.Key.(type) {
		case *ast.Identifier:
			keys = append(keys, k.Value)
		case *ast.StringLiteral:
			keys = append(keys, k.Value)
		default:
			t.Fatalf("unexpected key %T", p.Key)
		}
	}
	return keys
}

func TestLoadKinds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.plet"), "Hello {name}")
	writeFile(t, filepath.Join(dir, "data.json"), "{b: 1, a: [2, 3]}")
	writeFile(t, filepath.Join(dir, "style.css"), "body {}")

	mods := NewModuleMap(diagnostics.NewReporter(&bytes.Buffer{}))
	tests := []struct {
		file string
		kind Kind
	}{
		{"page.plet", KindUser},
		{"data.json", KindData},
		{"style.css", KindAsset},
	}
	for _, tt := range tests {
		mod, err := mods.Load(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatalf("Load(%s): %v", tt.file, err)
		}
		if mod.Kind != tt.kind {
			t.Errorf("Load(%s).Kind = %s, want %s", tt.file, mod.Kind, tt.kind)
		}
		again, _ := mods.Load(filepath.Join(dir, tt.file))
		if again != mod {
			t.Errorf("Load(%s) must return the cached module", tt.file)
		}
	}
	if _, err := mods.LoadUser(filepath.Join(dir, "style.css")); err == nil {
		t.Error("LoadUser of an asset must fail")
	}
	if mod, _ := mods.Load(filepath.Join(dir, "page.plet")); mod.Block() == nil {
		t.Error("user module root must be a block")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.plet"), "{if x}unterminated")
	var out bytes.Buffer
	mods := NewModuleMap(diagnostics.NewReporter(&out))

	_, err := mods.Load(filepath.Join(dir, "broken.plet"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if len(loadErr.Diagnostics) == 0 {
		t.Error("expected diagnostics")
	}
	if out.Len() == 0 {
		t.Error("load errors must be reported")
	}
	if _, ok := mods.Get(Canonical(filepath.Join(dir, "broken.plet"))); ok {
		t.Error("failed modules must not be cached")
	}

	_, err = mods.Load(filepath.Join(dir, "missing.plet"))
	if !errors.As(err, &loadErr) || loadErr.Diagnostics[0].Code != diagnostics.ErrIO01 {
		t.Errorf("expected IO error, got %v", err)
	}
}

func TestDetectChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.plet")
	writeFile(t, path, "one")
	touch(t, path, -time.Hour)

	mods := NewModuleMap(nil)
	mods.AddSystem("core")
	first, err := mods.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if mods.DetectChanges() {
		t.Fatal("no changes expected")
	}

	writeFile(t, path, "two")
	touch(t, path, 0)
	if !mods.DetectChanges() {
		t.Fatal("expected change to be detected")
	}
	if mods.DetectChanges() {
		t.Error("a change must be reported only once")
	}

	second, err := mods.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if second == first || second.Dirty {
		t.Error("dirty module must be reloaded")
	}
	text := second.Block().Statements[0].(*ast.StringLiteral)
	if text.Value != "two" {
		t.Errorf("reloaded content = %q", text.Value)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !mods.DetectChanges() {
		t.Error("removed file must be detected")
	}
	if mod, _ := mods.System("core"); mod == nil || mod.Dirty {
		t.Error("system modules are never dirty")
	}
}

func TestReadAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "content")
	mods := NewModuleMap(nil)
	got, err := mods.ReadAsset(path)
	if err != nil || got != "content" {
		t.Fatalf("ReadAsset = %q, %v", got, err)
	}
	if _, ok := mods.Get(Canonical(path)); !ok {
		t.Error("asset must be cached for change detection")
	}
}

func TestDecodeYAMLOrder(t *testing.T) {
	root, err := DecodeYAML([]byte("zeta: 1\nalpha:\n  nested: true\nmid: [a, 2, 1.5, ~]\n"), "data.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, objectKeys(t, root)); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	list := root.(*ast.ObjectLiteral).Properties[2].Value.(*ast.ListLiteral)
	want := []string{"*ast.StringLiteral", "*ast.IntegerLiteral", "*ast.FloatLiteral", "*ast.NilLiteral"}
	var got []string
	for _, elem := range list.Elements {
		got = append(got, typeName(elem))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scalar types mismatch (-want +got):\n%s", diff)
	}
	if _, err := DecodeYAML([]byte("a: [unclosed"), "bad.yaml"); err == nil {
		t.Error("expected yaml error")
	}
}

func TestDecodeTOMLOrder(t *testing.T) {
	source := `
title = "Site"
count = 3

[author]
name = "N"
email = "n@example.com"

[[links]]
href = "/a"
`
	root, err := DecodeTOML(source, "data.toml")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"title", "count", "author", "links"}, objectKeys(t, root)); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	author := root.(*ast.ObjectLiteral).Properties[2].Value
	if diff := cmp.Diff([]string{"name", "email"}, objectKeys(t, author)); diff != "" {
		t.Errorf("nested key order mismatch (-want +got):\n%s", diff)
	}
	links, ok := root.(*ast.ObjectLiteral).Properties[3].Value.(*ast.ListLiteral)
	if !ok || len(links.Elements) != 1 {
		t.Errorf("expected array of tables, got %#v", root.(*ast.ObjectLiteral).Properties[3].Value)
	}
}

func typeName(n ast.Node) string {
	switch n.(type) {
	case *ast.StringLiteral:
		return "*ast.StringLiteral"
	case *ast.IntegerLiteral:
		return "*ast.IntegerLiteral"
	case *ast.FloatLiteral:
		return "*ast.FloatLiteral"
	case *ast.NilLiteral:
		return "*ast.NilLiteral"
	}
	return "other"
}
