package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/nielssp/plet/internal/ast"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/lexer"
	"github.com/nielssp/plet/internal/parser"
	"github.com/nielssp/plet/internal/pipeline"
)

// LoadError is returned when a module cannot be read or parsed. The
// diagnostics have already been reported.
type LoadError struct {
	Path        string
	Diagnostics []*diagnostics.DiagnosticError
}

func (e *LoadError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("unable to load module %s: %s", e.Path, e.Diagnostics[0].Message)
	}
	return fmt.Sprintf("unable to load module %s: %d errors", e.Path, len(e.Diagnostics))
}

// ModuleMap caches modules by canonical path. All methods are safe for
// concurrent use.
type ModuleMap struct {
	mu       sync.Mutex
	modules  map[string]*Module
	reporter *diagnostics.Reporter
}

// NewModuleMap creates an empty cache. Load failures are reported to
// reporter when it is not nil.
func NewModuleMap(reporter *diagnostics.Reporter) *ModuleMap {
	return &ModuleMap{
		modules:  make(map[string]*Module),
		reporter: reporter,
	}
}

// Canonical returns the cache key for a file path.
func Canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (m *ModuleMap) Get(path string) (*Module, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.modules[path]
	return mod, ok
}

// Add stores mod, replacing any module with the same path.
func (m *ModuleMap) Add(mod *Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[mod.Path] = mod
}

// AddSystem registers a system module under name.
func (m *ModuleMap) AddSystem(name string) {
	m.Add(&Module{Kind: KindSystem, Path: name})
}

// System returns the system module called name.
func (m *ModuleMap) System(name string) (*Module, bool) {
	mod, ok := m.Get(name)
	if !ok || mod.Kind != KindSystem {
		return nil, false
	}
	return mod, true
}

// Paths lists the cached keys in sorted order.
func (m *ModuleMap) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.modules))
	for path := range m.modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Load returns the module for path, parsing it if it is missing from the
// cache or dirty. The file extension selects the loader.
func (m *ModuleMap) Load(path string) (*Module, error) {
	path = Canonical(path)
	if mod, ok := m.Get(path); ok && !mod.Dirty {
		return mod, nil
	}
	switch {
	case config.HasSourceExt(path):
		return m.loadUser(path, pipeline.ModeTemplate)
	case config.DataDecoder(path) != "":
		return m.loadData(path)
	}
	return m.loadAsset(path)
}

// LoadUser is Load restricted to template modules.
func (m *ModuleMap) LoadUser(path string) (*Module, error) {
	path = Canonical(path)
	if mod, ok := m.Get(path); ok && !mod.Dirty {
		if mod.Kind != KindUser {
			return nil, fmt.Errorf("%s is not a template", path)
		}
		return mod, nil
	}
	return m.loadUser(path, pipeline.ModeTemplate)
}

// LoadScript loads a user module that is parsed in code mode, like the
// index script of a project.
func (m *ModuleMap) LoadScript(path string) (*Module, error) {
	path = Canonical(path)
	if mod, ok := m.Get(path); ok && !mod.Dirty && mod.Kind == KindUser {
		return mod, nil
	}
	return m.loadUser(path, pipeline.ModeScript)
}

func (m *ModuleMap) fail(path string, errs ...*diagnostics.DiagnosticError) error {
	if m.reporter != nil {
		m.reporter.Report(errs)
	}
	return &LoadError{Path: path, Diagnostics: errs}
}

func (m *ModuleMap) readSource(path string) (string, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, m.fail(path, diagnostics.NewIOError(path, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, m.fail(path, diagnostics.NewIOError(path, err))
	}
	return string(data), info, nil
}

func (m *ModuleMap) loadUser(path string, mode pipeline.Mode) (*Module, error) {
	source, info, err := m.readSource(path)
	if err != nil {
		return nil, err
	}
	ctx := Parse(source, path, mode)
	if ctx.HasErrors() {
		return nil, m.fail(path, ctx.Errors...)
	}
	mod := &Module{Kind: KindUser, Path: path, Root: ctx.AstRoot, ModTime: info.ModTime()}
	m.Add(mod)
	return mod, nil
}

func (m *ModuleMap) loadData(path string) (*Module, error) {
	source, info, err := m.readSource(path)
	if err != nil {
		return nil, err
	}
	var root ast.Node
	var errs []*diagnostics.DiagnosticError
	switch config.DataDecoder(path) {
	case "yaml":
		root, err = DecodeYAML([]byte(source), path)
	case "toml":
		root, err = DecodeTOML(source, path)
	default:
		ctx := Parse(source, path, pipeline.ModeData)
		root, errs = ctx.AstRoot, ctx.Errors
	}
	if err != nil {
		errs = append(errs, &diagnostics.DiagnosticError{Code: diagnostics.ErrP007, File: path, Message: err.Error()})
	}
	if len(errs) > 0 || root == nil {
		return nil, m.fail(path, errs...)
	}
	mod := &Module{Kind: KindData, Path: path, Root: root, ModTime: info.ModTime()}
	m.Add(mod)
	return mod, nil
}

func (m *ModuleMap) loadAsset(path string) (*Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, m.fail(path, diagnostics.NewIOError(path, err))
	}
	mod := &Module{Kind: KindAsset, Path: path, ModTime: info.ModTime()}
	mod.Image, _ = ImageInfo(path)
	m.Add(mod)
	return mod, nil
}

// ReadAsset loads path as an asset and returns its content.
func (m *ModuleMap) ReadAsset(path string) (string, error) {
	path = Canonical(path)
	if mod, ok := m.Get(path); !ok || mod.Dirty {
		if _, err := m.loadAsset(path); err != nil {
			return "", err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", m.fail(path, diagnostics.NewIOError(path, err))
	}
	return string(data), nil
}

// DetectChanges marks every file-backed module whose file changed or
// disappeared as dirty. A module is reported at most once until it is
// loaded again.
func (m *ModuleMap) DetectChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := false
	for _, mod := range m.modules {
		if mod.Kind == KindSystem || mod.Dirty {
			continue
		}
		info, err := os.Stat(mod.Path)
		if err != nil || !info.ModTime().Equal(mod.ModTime) {
			mod.Dirty = true
			changed = true
		}
	}
	return changed
}

// Parse runs the lexer and parser over source.
func Parse(source, path string, mode pipeline.Mode) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Mode = mode
	return pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
}
